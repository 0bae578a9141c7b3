package windowing

import (
	"math"
)

// Hann represents a Hann window function.
//
// The periodic form (symmetric=false) is w[i] = sin²(πi/N), which is the
// same curve as 0.5(1 - cos(2πi/N)) and leaves a bin-centered sinusoid with
// exactly three nonzero bins. The symmetric form divides by N-1 instead.
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHann creates a new Hann window
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

func (h *Hann) generate() {
	h.coefficients = make([]float64, h.size)

	denominator := float64(h.size)
	if h.symmetric {
		denominator = float64(h.size - 1)
	}
	if denominator <= 0 {
		// a single-point window passes the sample through
		for i := range h.coefficients {
			h.coefficients[i] = 1.0
		}
		return
	}

	for i := 0; i < h.size; i++ {
		s := math.Sin(math.Pi * float64(i) / denominator)
		h.coefficients[i] = s * s
	}
}

// Apply applies the window to a signal (creates new array)
func (h *Hann) Apply(signal []float64) []float64 {
	return applyCopy(h.coefficients, signal)
}

// ApplyInPlace applies the window to a signal in-place
func (h *Hann) ApplyInPlace(signal []float64) error {
	return applyInPlace(h.coefficients, signal)
}

// GetCoefficients returns a copy of the window coefficients
func (h *Hann) GetCoefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// GetSize returns the window size
func (h *Hann) GetSize() int {
	return h.size
}

// GetType returns the window type
func (h *Hann) GetType() string {
	return "hann"
}

// IsSymmetric reports whether the window divides by N-1
func (h *Hann) IsSymmetric() bool {
	return h.symmetric
}
