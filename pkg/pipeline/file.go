package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tunogya/groundhog/pkg/model"
)

// FileSink writes the anomalies of the report to a file, one value per line,
// for the charting front-end
type FileSink struct {
	path string
}

// NewFileSink creates a sink writing to path
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// WriteStep is a no-op
func (f *FileSink) WriteStep(context.Context, model.Step) error {
	return nil
}

// WriteReport replaces the file with the anomalies of the report
func (f *FileSink) WriteReport(_ context.Context, report *model.Report) error {
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	lines := make([]string, len(report.Anomalies))
	for i, v := range report.Anomalies {
		lines[i] = model.FormatFloat(v)
	}

	if err := os.WriteFile(f.path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write aberrations: %w", err)
	}
	return nil
}
