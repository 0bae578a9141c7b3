package common

import (
	"fmt"
)

// MinTransformSize is the smallest transform size that leaves at least one
// bin with two real neighbors.
const MinTransformSize = 4

// MaxTransformSize bounds allocations made on reconfiguration.
const MaxTransformSize = 1 << 20

// Workspace owns every buffer sized by the transform size. A workspace is
// never resized in place: Resized builds a complete replacement first, so a
// rejected size leaves the current workspace untouched.
type Workspace struct {
	size       int
	generation uint64

	// Frame holds the N time-domain samples of one analysis call.
	Frame []float64

	// Coefficients, Magnitude and Phase hold bins 0..N/2.
	Coefficients []complex128
	Magnitude    []float64
	Phase        []float64

	// Peaks is the bounded peak index storage, capacity N/2-1.
	Peaks []int
}

// ValidateTransformSize checks that n is a power of two within the
// supported range.
func ValidateTransformSize(n int) error {
	if !IsPowerOfTwo(n) {
		return fmt.Errorf("transform size %d is not a power of two (next is %d)", n, NextPowerOfTwo(n))
	}
	if n < MinTransformSize || n > MaxTransformSize {
		return fmt.Errorf("transform size %d outside [%d, %d]", n, MinTransformSize, MaxTransformSize)
	}
	return nil
}

// NewWorkspace allocates a generation-1 workspace for transform size n
func NewWorkspace(n int) (*Workspace, error) {
	return newWorkspace(n, 1)
}

func newWorkspace(n int, generation uint64) (*Workspace, error) {
	if err := ValidateTransformSize(n); err != nil {
		return nil, err
	}

	bins := n/2 + 1
	return &Workspace{
		size:         n,
		generation:   generation,
		Frame:        make([]float64, n),
		Coefficients: make([]complex128, bins),
		Magnitude:    make([]float64, bins),
		Phase:        make([]float64, bins),
		Peaks:        make([]int, 0, PeakCapacity(n)),
	}, nil
}

// Resized returns a new workspace for size n with the next generation number.
// The receiver is not modified, including on error.
func (w *Workspace) Resized(n int) (*Workspace, error) {
	return newWorkspace(n, w.generation+1)
}

// Size returns the transform size N
func (w *Workspace) Size() int {
	return w.size
}

// Bins returns the number of non-redundant bins, N/2+1
func (w *Workspace) Bins() int {
	return w.size/2 + 1
}

// Generation identifies this allocation; it grows with every resize.
func (w *Workspace) Generation() uint64 {
	return w.generation
}

// Reset zeroes the per-call buffers and empties the peak list
func (w *Workspace) Reset() {
	clear(w.Frame)
	clear(w.Coefficients)
	clear(w.Magnitude)
	clear(w.Phase)
	w.Peaks = w.Peaks[:0]
}

// PeakCapacity is the most peaks a spectrum of size n can hold: one per
// interior bin in [1, N/2-1].
func PeakCapacity(n int) int {
	if n < MinTransformSize {
		return 0
	}
	return n/2 - 1
}
