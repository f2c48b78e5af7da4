package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/tunogya/groundhog/pkg/model"
)

// ConsoleSink prints the metric line of every step and the final summary
type ConsoleSink struct {
	w    io.Writer
	topN int
}

// NewConsoleSink creates a console sink. topN is the count announced in the
// summary line.
func NewConsoleSink(w io.Writer, topN int) *ConsoleSink {
	if topN <= 0 {
		topN = model.DefaultTopN
	}
	return &ConsoleSink{w: w, topN: topN}
}

// WriteStep prints g, r and s separated by double tabs
func (c *ConsoleSink) WriteStep(_ context.Context, step model.Step) error {
	_, err := io.WriteString(c.w, FormatStep(step)+"\n")
	return err
}

// WriteReport prints the switch count and the weirdest values
func (c *ConsoleSink) WriteReport(_ context.Context, report *model.Report) error {
	_, err := fmt.Fprintf(c.w, "Global tendency switched %d times\n%d weirdest values are %s\n",
		report.Switches, c.topN, model.FormatFloats(report.Anomalies))
	return err
}

// FormatStep renders the metric line of a step
func FormatStep(step model.Step) string {
	line := fmt.Sprintf("g=%s\t\tr=%s%%\t\ts=%s",
		step.Snapshot.Gain.Format(2),
		step.Snapshot.Change.Format(0),
		step.Snapshot.StdDev.Format(2),
	)
	if step.Switched {
		line += "\t\ta switch occurs"
	}
	return line
}
