package harmonic

import (
	"math"
	"sort"

	"github.com/RyanBlaney/sonido-resonance/logging"
)

// Observation is one sighting of a partial at an analysis point
type Observation struct {
	Point     int     `json:"point"`     // analysis point index
	Frequency float64 `json:"frequency"` // refined frequency at this point
	Amplitude float64 `json:"amplitude"` // magnitude relative to the reference frame maximum
	BinIndex  int     `json:"bin_index"`
}

// Partial is a peak of the first analysis point followed through the
// remaining points.
type Partial struct {
	ID           int           `json:"id"`
	Frequency    float64       `json:"frequency"` // refined frequency at point 0
	Amplitude    float64       `json:"amplitude"` // normalized amplitude at point 0
	Observations []Observation `json:"observations"`
}

// Points returns the analysis point indices and amplitudes of every
// observation, in order, ready for a decay fit.
func (p *Partial) Points() (x, y []float64) {
	x = make([]float64, len(p.Observations))
	y = make([]float64, len(p.Observations))
	for i, obs := range p.Observations {
		x[i] = float64(obs.Point)
		y[i] = obs.Amplitude
	}
	return x, y
}

// PartialTracker follows the peaks of a seed frame across later frames by
// closest refined frequency.
type PartialTracker struct {
	tolerance float64 // Hz
	reference float64 // maximum magnitude of the seed frame
	partials  []Partial
	logger    logging.Logger
}

// NewPartialTracker seeds one partial per peak. reference is the seed
// frame's maximum magnitude; later amplitudes are expressed against it so
// that decay between frames is preserved. tolerance is the largest
// frequency distance, in Hz, accepted as a match.
func NewPartialTracker(seed []SpectralPeak, reference, tolerance float64) *PartialTracker {
	pt := &PartialTracker{
		tolerance: tolerance,
		reference: reference,
		partials:  make([]Partial, len(seed)),
		logger: logging.WithFields(logging.Fields{
			"component": "partial_tracker",
		}),
	}

	for i, peak := range seed {
		pt.partials[i] = Partial{
			ID:        i,
			Frequency: peak.Frequency,
			Amplitude: peak.Amplitude,
			Observations: []Observation{{
				Point:     0,
				Frequency: peak.Frequency,
				Amplitude: peak.Amplitude,
				BinIndex:  peak.BinIndex,
			}},
		}
	}

	return pt
}

type candidate struct {
	partial  int
	peak     int
	distance float64
}

// Observe matches the peaks of analysis point `point` against the partials.
// Each peak is claimed by at most one partial; the closest pairs are
// assigned first. Returns the number of partials matched.
func (pt *PartialTracker) Observe(point int, peaks []SpectralPeak) int {
	if pt.reference <= 0 {
		return 0
	}

	var candidates []candidate
	for i := range pt.partials {
		for j, peak := range peaks {
			d := math.Abs(peak.Frequency - pt.partials[i].Frequency)
			if d <= pt.tolerance {
				candidates = append(candidates, candidate{partial: i, peak: j, distance: d})
			}
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].distance < candidates[b].distance
	})

	partialTaken := make(map[int]bool)
	peakTaken := make(map[int]bool)
	for _, c := range candidates {
		if partialTaken[c.partial] || peakTaken[c.peak] {
			continue
		}
		partialTaken[c.partial] = true
		peakTaken[c.peak] = true

		peak := peaks[c.peak]
		p := &pt.partials[c.partial]
		p.Observations = append(p.Observations, Observation{
			Point:     point,
			Frequency: peak.Frequency,
			Amplitude: peak.Magnitude / pt.reference,
			BinIndex:  peak.BinIndex,
		})
	}

	pt.logger.Debug("Matched partials", logging.Fields{
		"point":    point,
		"peaks":    len(peaks),
		"matched":  len(partialTaken),
		"partials": len(pt.partials),
	})

	return len(partialTaken)
}

// Partials returns the tracked partials in seed order
func (pt *PartialTracker) Partials() []Partial {
	return pt.partials
}
