package eval

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// AnalysisRecord is one row of the run analysis log.
type AnalysisRecord struct {
	Name       string
	Topology   string
	Activation string
	Alpha      float64
	Epochs     int
	Samples    int
	EndTime    time.Time
	Duration   time.Duration
	Accuracy   float64
}

var analysisHeaders = []string{
	"Name", "Topology", "Activator", "LR", "Epochs", "Samples", "End Time", "SecondsToTrain", "Accuracy",
}

// AppendAnalysis appends rec to the CSV log at path, creating the file and
// its header row on first use.
func AppendAnalysis(path string, rec AnalysisRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return errors.Wrap(err, "creating analysis directory")
	}
	var needsHeaders bool
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeaders = true
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "opening analysis file")
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if needsHeaders {
		if err := w.Write(analysisHeaders); err != nil {
			return errors.Wrap(err, "writing csv headers")
		}
	}
	record := []string{
		rec.Name,
		rec.Topology,
		rec.Activation,
		strconv.FormatFloat(rec.Alpha, 'f', 4, 64),
		strconv.Itoa(rec.Epochs),
		strconv.Itoa(rec.Samples),
		strconv.FormatInt(rec.EndTime.Unix(), 10),
		strconv.FormatFloat(rec.Duration.Seconds(), 'f', 2, 64),
		strconv.FormatFloat(rec.Accuracy, 'f', 5, 64),
	}
	if err := w.Write(record); err != nil {
		return errors.Wrap(err, "writing csv record")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flushing csv")
	}
	return file.Close()
}
