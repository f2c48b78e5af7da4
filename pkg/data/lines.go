package data

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// LineSource reads one reading per line until the sentinel or end of input
type LineSource struct {
	scanner  *bufio.Scanner
	sentinel string
	line     int
	done     bool
}

// NewLineSource creates a line-based source. An empty sentinel selects
// DefaultSentinel.
func NewLineSource(r io.Reader, sentinel string) *LineSource {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	return &LineSource{
		scanner:  bufio.NewScanner(r),
		sentinel: sentinel,
	}
}

// Next returns the next reading
func (s *LineSource) Next(ctx context.Context) (float64, bool, error) {
	if s.done {
		return 0, false, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	if !s.scanner.Scan() {
		s.done = true
		if err := s.scanner.Err(); err != nil {
			return 0, false, fmt.Errorf("failed to read line %d: %w", s.line+1, err)
		}
		return 0, false, nil
	}
	s.line++

	token := strings.TrimSpace(s.scanner.Text())
	if token == s.sentinel {
		s.done = true
		return 0, false, nil
	}

	value, err := ParseReading(token)
	if err != nil {
		return 0, false, fmt.Errorf("line %d: %w", s.line, err)
	}
	return value, true, nil
}

// Line returns the number of lines consumed so far
func (s *LineSource) Line() int {
	return s.line
}
