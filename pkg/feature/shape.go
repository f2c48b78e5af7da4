package feature

import (
	"fmt"

	"github.com/tunogya/groundhog/pkg/model"
)

// Extractor turns reading windows into shape vectors for similarity search
type Extractor struct {
	DataVersion int
	VectorDim   int // Target dimension for ShapeVector
}

// NewExtractor creates a new shape extractor
func NewExtractor(dataVersion, vectorDim int) *Extractor {
	if vectorDim <= 0 {
		vectorDim = model.VectorDim32
	}
	return &Extractor{
		DataVersion: dataVersion,
		VectorDim:   vectorDim,
	}
}

// Extract builds the shape vector of a complete window.
// The first half of the vector is the min-max normalised level curve, the
// second half the normalised step-to-step changes.
func (e *Extractor) Extract(w *model.Window) (model.ShapeVector, error) {
	if w == nil || !w.IsComplete() {
		return nil, fmt.Errorf("window is incomplete")
	}

	values := w.Values()
	levels := MinMaxNormalize(values)

	deltas := make([]float64, 0, len(values))
	for i := 1; i < len(values); i++ {
		deltas = append(deltas, values[i]-values[i-1])
	}
	deltas = MinMaxNormalize(deltas)

	half := e.VectorDim / 2
	levels = downsample(levels, half)
	deltas = downsample(deltas, e.VectorDim-half)

	vector := model.NewShapeVector(e.VectorDim)
	idx := 0

	// Fill with levels, zero padded when the window is shorter than half
	for i := 0; i < half; i++ {
		if i < len(levels) {
			vector[idx] = float32(levels[i])
		}
		idx++
	}

	// Fill with changes
	for i := 0; idx < e.VectorDim; i++ {
		if i < len(deltas) {
			vector[idx] = float32(deltas[i])
		}
		idx++
	}

	return vector, nil
}

// downsample reduces the number of samples using simple averaging
func downsample(values []float64, targetLen int) []float64 {
	if len(values) <= targetLen {
		return values
	}

	result := make([]float64, targetLen)
	ratio := float64(len(values)) / float64(targetLen)

	for i := 0; i < targetLen; i++ {
		start := int(float64(i) * ratio)
		end := int(float64(i+1) * ratio)
		if end > len(values) {
			end = len(values)
		}

		sum := 0.0
		count := 0
		for j := start; j < end; j++ {
			sum += values[j]
			count++
		}
		if count > 0 {
			result[i] = sum / float64(count)
		}
	}

	return result
}
