package nn

import (
	"fmt"
	"io"
)

// Reporter receives the aggregate training loss after the epochs selected by
// the display interval.
type Reporter interface {
	Report(epoch int, loss float64)
}

// ReporterFunc adapts a plain function to a Reporter.
type ReporterFunc func(epoch int, loss float64)

func (f ReporterFunc) Report(epoch int, loss float64) {
	f(epoch, loss)
}

type writerReporter struct {
	w io.Writer
}

// NewWriterReporter returns a Reporter printing one "[INFO] epoch=N, loss=L"
// line per report to w.
func NewWriterReporter(w io.Writer) Reporter {
	return writerReporter{w: w}
}

func (r writerReporter) Report(epoch int, loss float64) {
	fmt.Fprintf(r.w, "[INFO] epoch=%d, loss=%.7f\n", epoch, loss)
}

type discardReporter struct{}

func (discardReporter) Report(int, float64) {}
