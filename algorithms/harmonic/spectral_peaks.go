package harmonic

import (
	"github.com/RyanBlaney/sonido-resonance/algorithms/common"
	"github.com/RyanBlaney/sonido-resonance/logging"
)

// DefaultThresholdDB is the default loudness threshold relative to the
// loudest bin of the frame.
const DefaultThresholdDB = -32.0

// SpectralPeak represents a detected and refined spectral peak
type SpectralPeak struct {
	BinIndex   int     `json:"bin_index"`   // integer bin of the local maximum
	RefinedBin float64 `json:"refined_bin"` // BinIndex + fractional offset
	Frequency  float64 `json:"frequency"`   // refined frequency in Hz
	Magnitude  float64 `json:"magnitude"`   // raw bin magnitude
	Amplitude  float64 `json:"amplitude"`   // Magnitude / frame maximum, in (0, 1]
	Phase      float64 `json:"phase"`       // bin phase in radians
}

// PeakDetector finds strict local maxima that sit within a loudness
// threshold of the frame's loudest bin.
type PeakDetector struct {
	thresholdDB float64
	logger      logging.Logger
}

// NewPeakDetector creates a detector with the given threshold in dB (<= 0)
func NewPeakDetector(thresholdDB float64) *PeakDetector {
	return &PeakDetector{
		thresholdDB: thresholdDB,
		logger: logging.WithFields(logging.Fields{
			"component": "peak_detector",
		}),
	}
}

// Threshold returns the loudness threshold in dB
func (pd *PeakDetector) Threshold() float64 {
	return pd.thresholdDB
}

// Capacity returns the most peaks a magnitude spectrum of the given number
// of bins (N/2+1) can yield: one per interior bin.
func Capacity(bins int) int {
	return max(bins-2, 0)
}

// Detect scans bins [1, len(magnitude)-2] and appends the index of every
// retained peak to dst[:0], in bin order. At most capacity indices are
// written; capacity is further bounded by Capacity(len(magnitude)).
// A silent spectrum (maxMagnitude == 0) yields no peaks.
func (pd *PeakDetector) Detect(dst []int, magnitude []float64, maxMagnitude float64, capacity int) []int {
	dst = dst[:0]
	if maxMagnitude <= 0 || len(magnitude) < 3 {
		return dst
	}

	limit := min(capacity, Capacity(len(magnitude)))
	if limit <= 0 {
		return dst
	}

	for i := 1; i < len(magnitude)-1; i++ {
		m := magnitude[i]
		if !(magnitude[i-1] < m && magnitude[i+1] < m) {
			continue
		}
		if common.AmplitudeToDB(m, maxMagnitude) <= pd.thresholdDB {
			continue
		}
		if len(dst) == limit {
			pd.logger.Debug("Peak capacity reached, remaining bins skipped", logging.Fields{
				"capacity": limit,
				"bin":      i,
			})
			break
		}
		dst = append(dst, i)
	}

	return dst
}

// Refine converts detected peak bins into SpectralPeaks using refiner.
// Bins whose refinement is undefined are dropped and returned separately so
// the caller can report them; the rest keep bin order.
func Refine(refiner Refiner, magnitude, phase []float64, maxMagnitude float64, bins []int, binWidth float64) (peaks []SpectralPeak, dropped []int) {
	peaks = make([]SpectralPeak, 0, len(bins))
	if maxMagnitude <= 0 {
		return peaks, nil
	}

	for _, bin := range bins {
		offset, err := refiner.Offset(magnitude, bin)
		if err != nil {
			dropped = append(dropped, bin)
			continue
		}

		refined := float64(bin) + offset
		peak := SpectralPeak{
			BinIndex:   bin,
			RefinedBin: refined,
			Frequency:  refined * binWidth,
			Magnitude:  magnitude[bin],
			Amplitude:  magnitude[bin] / maxMagnitude,
		}
		if bin < len(phase) {
			peak.Phase = phase[bin]
		}
		peaks = append(peaks, peak)
	}

	return peaks, dropped
}
