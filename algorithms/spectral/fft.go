package spectral

import (
	"fmt"
	"strings"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend names accepted by NewTransform
const (
	BackendPlan   = "plan"
	BackendDirect = "direct"
)

// Transform computes the real-input DFT of a frame of fixed size N and
// writes the non-redundant bins 0..N/2 into dst.
type Transform interface {
	// Forward transforms frame (len N) into dst (len N/2+1). A nil dst is
	// allocated. The returned slice aliases dst.
	Forward(dst []complex128, frame []float64) ([]complex128, error)

	// Size returns N
	Size() int

	// Backend returns the backend name
	Backend() string
}

// NewTransform builds a transform for size n using the named backend
func NewTransform(backend string, n int) (Transform, error) {
	if n <= 0 {
		return nil, fmt.Errorf("transform size must be positive, got %d", n)
	}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendPlan:
		return NewPlanTransform(n), nil
	case BackendDirect:
		return NewDirectTransform(n), nil
	default:
		return nil, fmt.Errorf("unknown transform backend: %q", backend)
	}
}

// PlanTransform wraps a gonum FFT plan. The plan's twiddle factors are
// computed once for the size and reused by every Forward call; a new size
// needs a new PlanTransform.
type PlanTransform struct {
	n    int
	plan *fourier.FFT
}

// NewPlanTransform creates a cached-plan transform of size n
func NewPlanTransform(n int) *PlanTransform {
	return &PlanTransform{
		n:    n,
		plan: fourier.NewFFT(n),
	}
}

func (p *PlanTransform) Forward(dst []complex128, frame []float64) ([]complex128, error) {
	if err := checkShapes(p.n, dst, frame); err != nil {
		return nil, err
	}
	return p.plan.Coefficients(dst, frame), nil
}

func (p *PlanTransform) Size() int {
	return p.n
}

func (p *PlanTransform) Backend() string {
	return BackendPlan
}

// DirectTransform computes each call with go-dsp, which handles any size
// but keeps no plan between calls.
type DirectTransform struct {
	n int
}

// NewDirectTransform creates a go-dsp transform of size n
func NewDirectTransform(n int) *DirectTransform {
	return &DirectTransform{n: n}
}

func (d *DirectTransform) Forward(dst []complex128, frame []float64) ([]complex128, error) {
	if err := checkShapes(d.n, dst, frame); err != nil {
		return nil, err
	}
	if dst == nil {
		dst = make([]complex128, d.n/2+1)
	}

	full := fft.FFTReal(frame)
	copy(dst, full[:d.n/2+1])
	return dst, nil
}

func (d *DirectTransform) Size() int {
	return d.n
}

func (d *DirectTransform) Backend() string {
	return BackendDirect
}

func checkShapes(n int, dst []complex128, frame []float64) error {
	if len(frame) != n {
		return fmt.Errorf("frame length (%d) doesn't match transform size (%d)", len(frame), n)
	}
	if dst != nil && len(dst) != n/2+1 {
		return fmt.Errorf("bin buffer length (%d) doesn't match %d bins", len(dst), n/2+1)
	}
	return nil
}
