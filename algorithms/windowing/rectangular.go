package windowing

import (
	"fmt"
)

// Rectangular represents a rectangular (boxcar) window function.
// It leaves the frame untouched and exists so the pipeline can be run
// without leakage suppression for comparison.
type Rectangular struct {
	size int
}

// NewRectangular creates a new rectangular window
func NewRectangular(size int) *Rectangular {
	return &Rectangular{size: size}
}

// Apply returns a copy of signal, or nil on a length mismatch
func (r *Rectangular) Apply(signal []float64) []float64 {
	if len(signal) != r.size {
		return nil
	}

	windowed := make([]float64, r.size)
	copy(windowed, signal)
	return windowed
}

// ApplyInPlace only checks the length
func (r *Rectangular) ApplyInPlace(signal []float64) error {
	if len(signal) != r.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), r.size)
	}
	return nil
}

func (r *Rectangular) GetCoefficients() []float64 {
	coeffs := make([]float64, r.size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	return coeffs
}

func (r *Rectangular) GetSize() int {
	return r.size
}

func (r *Rectangular) GetType() string {
	return "rectangular"
}
