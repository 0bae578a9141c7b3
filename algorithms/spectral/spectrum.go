package spectral

import (
	"fmt"
	"math"
)

// Spectrum is the magnitude/phase view of one transformed frame.
// Magnitude and Phase cover bins 0..N/2.
type Spectrum struct {
	Magnitude    []float64 `json:"magnitude"`
	Phase        []float64 `json:"phase"`
	Sum          float64   `json:"sum"`
	MaxMagnitude float64   `json:"max_magnitude"`
	MaxBin       int       `json:"max_bin"`
}

// Bins returns the number of bins in the spectrum
func (s *Spectrum) Bins() int {
	return len(s.Magnitude)
}

// IsSilent reports whether every bin is zero
func (s *Spectrum) IsSilent() bool {
	return s.MaxMagnitude == 0
}

// Analyze derives magnitude and phase for every bin of coeffs, writing into
// magnitude and phase (both len(coeffs)), and tracks the running sum and
// maximum magnitude. Phase lies in (-π, π].
func Analyze(coeffs []complex128, magnitude, phase []float64) (Spectrum, error) {
	if len(magnitude) != len(coeffs) || len(phase) != len(coeffs) {
		return Spectrum{}, fmt.Errorf("spectrum buffers (%d, %d) don't match %d bins",
			len(magnitude), len(phase), len(coeffs))
	}

	s := Spectrum{
		Magnitude: magnitude,
		Phase:     phase,
	}

	for i, c := range coeffs {
		re, im := real(c), imag(c)

		m := math.Hypot(re, im)
		p := math.Atan2(im, re)
		if p == -math.Pi {
			p = math.Pi
		}

		magnitude[i] = m
		phase[i] = p
		s.Sum += m
		if m > s.MaxMagnitude {
			s.MaxMagnitude = m
			s.MaxBin = i
		}
	}

	return s, nil
}

// BinWidth returns Δf = sampleRate / N
func BinWidth(sampleRate float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return sampleRate / float64(n)
}
