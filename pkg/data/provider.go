package data

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tunogya/groundhog/pkg/model"
)

// DefaultSentinel ends a line stream
const DefaultSentinel = "STOP"

// Source defines the interface for pulling readings one at a time.
// Next returns ok=false once the stream is terminated, either by the sentinel
// token or by the end of the underlying input. A non-nil error aborts the run.
type Source interface {
	Next(ctx context.Context) (value float64, ok bool, err error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc func(ctx context.Context) (float64, bool, error)

// Next calls f(ctx)
func (f SourceFunc) Next(ctx context.Context) (float64, bool, error) {
	return f(ctx)
}

// ParseReading converts a trimmed token into a reading value.
// Non-numeric tokens and non-finite values are rejected with ErrInvalidInput.
func ParseReading(token string) (float64, error) {
	token = strings.TrimSpace(token)
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", model.ErrInvalidInput, token)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q is not a finite number", model.ErrInvalidInput, token)
	}
	return value, nil
}

// Collect drains a source into a slice. Intended for tests and small files.
func Collect(ctx context.Context, src Source) ([]float64, error) {
	var values []float64
	for {
		v, ok, err := src.Next(ctx)
		if err != nil {
			return values, err
		}
		if !ok {
			return values, nil
		}
		values = append(values, v)
	}
}
