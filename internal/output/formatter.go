// Package output renders assertion outcomes and run summaries for the
// terminal.
package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/storageops/nascheck/internal/harness"
)

// Formatter writes one line per assertion outcome and a final verdict.
type Formatter struct {
	writer io.Writer

	green *color.Color
	red   *color.Color
	blue  *color.Color
	gray  *color.Color
}

// NewFormatter creates a formatter writing to w.
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{
		writer: w,
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		blue:   color.New(color.FgBlue),
		gray:   color.New(color.FgHiBlack),
	}
}

// PrintPhase prints a phase separator.
func (f *Formatter) PrintPhase(phase string) {
	f.blue.Fprintf(f.writer, "\n▸ %s\n", phase)
}

// PrintOutcome prints a single pass/fail line.
func (f *Formatter) PrintOutcome(o harness.Outcome) {
	if o.Passed {
		f.green.Fprintf(f.writer, "pass")
		f.gray.Fprintf(f.writer, "  %s\n", o.ID)
		return
	}

	f.red.Fprintf(f.writer, "FAIL")
	fmt.Fprintf(f.writer, "  %s", o.ID)
	if o.Message != "" {
		f.gray.Fprintf(f.writer, "  %s", o.Message)
	}
	fmt.Fprintf(f.writer, "\n")
}

// PrintSummary prints the run's final counters.
func (f *Formatter) PrintSummary(run *harness.Run) {
	fmt.Fprintf(f.writer, "\n")
	if run.Failed() == 0 {
		f.green.Fprintf(f.writer, "%d assertions passed, 0 failed\n", run.Passed())
		return
	}
	f.red.Fprintf(f.writer, "%d assertions passed, %d failed\n", run.Passed(), run.Failed())
}
