package windowing

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// Window is an analysis window of fixed size
type Window interface {
	// Apply returns a windowed copy of signal, or nil on a length mismatch
	Apply(signal []float64) []float64

	// ApplyInPlace multiplies signal by the window coefficients
	ApplyInPlace(signal []float64) error

	GetCoefficients() []float64
	GetSize() int
	GetType() string
}

// gonum window functions multiply their argument in place
type gonumWindowFunc func(seq []float64) []float64

var gonumWindows = map[string]gonumWindowFunc{
	"hamming":          window.Hamming,
	"blackman":         window.Blackman,
	"blackman_harris":  window.BlackmanHarris,
	"blackman_nuttall": window.BlackmanNuttall,
	"nuttall":          window.Nuttall,
	"bartlett_hann":    window.BartlettHann,
	"flat_top":         window.FlatTop,
	"lanczos":          window.Lanczos,
}

// New builds the named window. "hann" is the periodic Hann used by the
// resonance pipeline; the other names are generated by gonum.
func New(name string, size int) (Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "hann":
		return NewHann(size, false), nil
	case "rectangular", "boxcar":
		return NewRectangular(size), nil
	}

	fn, ok := gonumWindows[key]
	if !ok {
		return nil, fmt.Errorf("unknown window type: %q", name)
	}
	return newTabulated(key, size, fn), nil
}

// Names lists every window type accepted by New
func Names() []string {
	names := []string{"hann", "rectangular"}
	for name := range gonumWindows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// tabulated holds coefficients produced once by a gonum window function
type tabulated struct {
	name         string
	coefficients []float64
}

func newTabulated(name string, size int, fn gonumWindowFunc) *tabulated {
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	fn(coeffs)
	return &tabulated{name: name, coefficients: coeffs}
}

func (t *tabulated) Apply(signal []float64) []float64 {
	return applyCopy(t.coefficients, signal)
}

func (t *tabulated) ApplyInPlace(signal []float64) error {
	return applyInPlace(t.coefficients, signal)
}

func (t *tabulated) GetCoefficients() []float64 {
	coeffs := make([]float64, len(t.coefficients))
	copy(coeffs, t.coefficients)
	return coeffs
}

func (t *tabulated) GetSize() int {
	return len(t.coefficients)
}

func (t *tabulated) GetType() string {
	return t.name
}

func applyCopy(coeffs, signal []float64) []float64 {
	if len(signal) != len(coeffs) {
		return nil
	}

	windowed := make([]float64, len(coeffs))
	for i, c := range coeffs {
		windowed[i] = signal[i] * c
	}
	return windowed
}

func applyInPlace(coeffs, signal []float64) error {
	if len(signal) != len(coeffs) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(coeffs))
	}

	for i, c := range coeffs {
		signal[i] *= c
	}
	return nil
}
