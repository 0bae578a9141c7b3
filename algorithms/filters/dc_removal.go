package filters

import (
	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-resonance/algorithms/common"
)

// DCRemoval removes the DC component (0 Hz) of analysis frames before they
// are windowed.
//
// A recursive DC blocker (y[n] = x[n] - x[n-1] + R·y[n-1]) starts from zero
// state on every frame and rings for hundreds of samples, which would make
// the spectra of two frames of the same decaying partial differ by more
// than their gain. Subtracting the frame mean is linear in the frame, so a
// frame scaled by g keeps a spectrum scaled by g.
type DCRemoval struct {
	enabled bool
}

// NewDCRemoval creates a DC removal stage; a disabled stage is a no-op
func NewDCRemoval(enabled bool) *DCRemoval {
	return &DCRemoval{enabled: enabled}
}

// Enabled reports whether the stage modifies frames
func (dc *DCRemoval) Enabled() bool {
	return dc != nil && dc.enabled
}

// ProcessInPlace subtracts the mean of frame from every sample and returns
// the removed offset.
func (dc *DCRemoval) ProcessInPlace(frame []float64) float64 {
	if !dc.Enabled() || len(frame) == 0 {
		return 0
	}

	offset := common.Mean(frame)
	floats.AddConst(-offset, frame)
	return offset
}
