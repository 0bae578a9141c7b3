package resonance

import (
	"github.com/RyanBlaney/sonido-resonance/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-resonance/algorithms/temporal"
)

// Resonance is one entry of the analyzer's output list
type Resonance struct {
	Frequency float64 `json:"frequency"` // Hz
	Amplitude float64 `json:"amplitude"` // relative to the loudest bin of the frame
}

// Result is the analysis of a single frame
type Result struct {
	Cursor        int                     `json:"cursor"` // requested cursor
	Start         int                     `json:"start"`  // first frame actually analyzed
	Channel       int                     `json:"channel"`
	TransformSize int                     `json:"transform_size"`
	Generation    uint64                  `json:"generation"` // workspace generation used
	SampleRate    float64                 `json:"sample_rate"`
	BinWidth      float64                 `json:"bin_width"`
	MaxMagnitude  float64                 `json:"max_magnitude"`
	Peaks         []harmonic.SpectralPeak `json:"peaks"`
	Diagnostics   []Diagnostic            `json:"diagnostics,omitempty"`
}

// Resonances returns the (frequency, amplitude) list in bin order
func (r *Result) Resonances() []Resonance {
	out := make([]Resonance, len(r.Peaks))
	for i, p := range r.Peaks {
		out[i] = Resonance{Frequency: p.Frequency, Amplitude: p.Amplitude}
	}
	return out
}

func (r *Result) clone() *Result {
	c := *r
	c.Peaks = append([]harmonic.SpectralPeak(nil), r.Peaks...)
	c.Diagnostics = append([]Diagnostic(nil), r.Diagnostics...)
	return &c
}

// PartialDecay is a tracked partial together with its decay fit
type PartialDecay struct {
	harmonic.Partial
	Fit            *temporal.DecayFit `json:"fit,omitempty"`
	DecayPerSecond float64            `json:"decay_per_second"`
	T60            float64            `json:"t60,omitempty"` // seconds; 0 when the partial does not decay
}

// RangeResult is the analysis of a span of the source at evenly spaced points
type RangeResult struct {
	From            int            `json:"from"` // clamped first cursor
	To              int            `json:"to"`   // clamped last cursor
	Step            int            `json:"step"` // frames between consecutive points
	SecondsPerPoint float64        `json:"seconds_per_point"`
	Points          []*Result      `json:"points"`
	Partials        []PartialDecay `json:"partials"`
	Diagnostics     []Diagnostic   `json:"diagnostics,omitempty"`
}

// Resonances returns the resonance list of the first analysis point
func (r *RangeResult) Resonances() []Resonance {
	if len(r.Points) == 0 {
		return []Resonance{}
	}
	return r.Points[0].Resonances()
}
