package harmonic

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/RyanBlaney/sonido-resonance/algorithms/common"
)

// ErrRefinementUndefined is returned when a peak's neighbors do not admit a
// finite sub-bin offset.
var ErrRefinementUndefined = errors.New("fractional bin refinement undefined")

// Refiner names accepted by NewRefiner
const (
	RefinerLogParabolic = "log_parabolic"
	RefinerParabolic    = "parabolic"
)

// Refiner estimates the sub-bin offset of a peak from its two neighbors
type Refiner interface {
	// Offset returns δ such that the true peak lies at bin+δ
	Offset(magnitude []float64, bin int) (float64, error)
	Name() string
}

// NewRefiner returns the named refiner
func NewRefiner(name string) (Refiner, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RefinerLogParabolic:
		return LogParabolic{}, nil
	case RefinerParabolic:
		return Parabolic{}, nil
	default:
		return nil, fmt.Errorf("unknown refiner: %q", name)
	}
}

// LogParabolic fits a parabola through the log magnitudes of the peak and
// its neighbors:
//
//	δ = ln(m[i+1]/m[i-1]) / (2·ln(m[i]² / (m[i-1]·m[i+1])))
//
// For a Hann window this is exact at bin centers and at half-bin offsets.
type LogParabolic struct{}

func (LogParabolic) Offset(magnitude []float64, bin int) (float64, error) {
	left, center, right, err := neighbors(magnitude, bin)
	if err != nil {
		return 0, err
	}
	if left <= 0 || right <= 0 || center <= 0 {
		return 0, fmt.Errorf("bin %d has a zero neighbor: %w", bin, ErrRefinementUndefined)
	}

	den := 2 * math.Log(center*center/(left*right))
	if den == 0 || !common.IsFinite(den) {
		return 0, fmt.Errorf("bin %d has a flat log curvature: %w", bin, ErrRefinementUndefined)
	}

	delta := math.Log(right/left) / den
	if !common.IsFinite(delta) {
		return 0, fmt.Errorf("bin %d offset is not finite: %w", bin, ErrRefinementUndefined)
	}
	return delta, nil
}

func (LogParabolic) Name() string {
	return RefinerLogParabolic
}

// Parabolic fits a parabola through the linear magnitudes
type Parabolic struct{}

func (Parabolic) Offset(magnitude []float64, bin int) (float64, error) {
	y1, y2, y3, err := neighbors(magnitude, bin)
	if err != nil {
		return 0, err
	}

	denom := 2.0 * (2.0*y2 - y1 - y3)
	if math.Abs(denom) <= 1e-10 {
		return 0, fmt.Errorf("bin %d has no curvature: %w", bin, ErrRefinementUndefined)
	}
	return (y3 - y1) / denom, nil
}

func (Parabolic) Name() string {
	return RefinerParabolic
}

func neighbors(magnitude []float64, bin int) (left, center, right float64, err error) {
	if bin < 1 || bin > len(magnitude)-2 {
		return 0, 0, 0, fmt.Errorf("bin %d lacks two neighbors in %d bins: %w", bin, len(magnitude), ErrRefinementUndefined)
	}
	return magnitude[bin-1], magnitude[bin], magnitude[bin+1], nil
}
