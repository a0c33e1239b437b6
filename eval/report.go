// Package eval scores class predictions against known labels.
package eval

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Argmax returns, for every row of m, the column holding its largest value.
func Argmax(m mat.Matrix) []int {
	r, c := m.Dims()
	out := make([]int, r)
	row := make([]float64, c)
	for i := range out {
		mat.Row(row, i, m)
		out[i] = floats.MaxIdx(row)
	}
	return out
}

// Accuracy is the fraction of predictions equal to the actual labels.
func Accuracy(pred, actual []int) float64 {
	if len(actual) == 0 {
		return 0
	}
	var correct int
	for i := range actual {
		if i < len(pred) && pred[i] == actual[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(actual))
}

// ClassScore holds the per-class figures of a Report.
type ClassScore struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report summarizes a classification run.
type Report struct {
	Classes     []ClassScore
	Accuracy    float64
	MacroAvg    ClassScore
	WeightedAvg ClassScore
}

// Classification compares predicted with actual labels over classes
// 0..classes-1. Scores with a zero denominator are 0. With no classes only
// the accuracy is filled in.
func Classification(pred, actual []int, classes int) Report {
	if classes <= 0 {
		return Report{Accuracy: Accuracy(pred, actual)}
	}
	confusion := mat.NewDense(classes, classes, nil)
	for i, a := range actual {
		if i >= len(pred) || a < 0 || a >= classes || pred[i] < 0 || pred[i] >= classes {
			continue
		}
		confusion.Set(a, pred[i], confusion.At(a, pred[i])+1)
	}

	rep := Report{
		Classes:  make([]ClassScore, classes),
		Accuracy: Accuracy(pred, actual),
	}
	precision := make([]float64, classes)
	recall := make([]float64, classes)
	f1 := make([]float64, classes)
	support := make([]float64, classes)
	col := make([]float64, classes)
	for k := 0; k < classes; k++ {
		tp := confusion.At(k, k)
		predicted := floats.Sum(mat.Col(col, k, confusion))
		support[k] = floats.Sum(confusion.RawRowView(k))

		precision[k] = ratio(tp, predicted)
		recall[k] = ratio(tp, support[k])
		f1[k] = ratio(2*precision[k]*recall[k], precision[k]+recall[k])
		rep.Classes[k] = ClassScore{
			Precision: precision[k],
			Recall:    recall[k],
			F1:        f1[k],
			Support:   int(support[k]),
		}
	}

	total := int(floats.Sum(support))
	rep.MacroAvg = ClassScore{
		Precision: stat.Mean(precision, nil),
		Recall:    stat.Mean(recall, nil),
		F1:        stat.Mean(f1, nil),
		Support:   total,
	}
	rep.WeightedAvg = ClassScore{Support: total}
	if total > 0 {
		rep.WeightedAvg.Precision = stat.Mean(precision, support)
		rep.WeightedAvg.Recall = stat.Mean(recall, support)
		rep.WeightedAvg.F1 = stat.Mean(f1, support)
	}
	return rep
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// String renders the report as a table.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for k, s := range r.Classes {
		fmt.Fprintf(&b, "%12d %10.2f %10.2f %10.2f %10d\n", k, s.Precision, s.Recall, s.F1, s.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%12s %10.2f %10.2f %10.2f %10d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%12s %10.2f %10.2f %10.2f %10d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	return b.String()
}
