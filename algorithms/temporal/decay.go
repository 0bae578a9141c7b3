package temporal

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-resonance/algorithms/common"
	"github.com/RyanBlaney/sonido-resonance/logging"
)

var (
	// ErrNonPositiveAmplitude is returned when a sample cannot be log-linearized
	ErrNonPositiveAmplitude = errors.New("non-positive amplitude")

	// ErrDegenerateFit is returned when the normal equations are singular
	ErrDegenerateFit = errors.New("degenerate decay fit")
)

// Weighting schemes for the log-linear fit
const (
	WeightingAmplitude = "amplitude"
	WeightingUniform   = "uniform"
)

// DecayFit is the result of fitting y = A·exp(B·x)
type DecayFit struct {
	A        float64 `json:"a"`         // amplitude coefficient
	B        float64 `json:"b"`         // decay rate per unit x
	LnA      float64 `json:"ln_a"`      // ln(A)
	RSquared float64 `json:"r_squared"` // weighted goodness of fit in log space
	Points   int     `json:"points"`
}

// Evaluate returns A·exp(B·x)
func (f DecayFit) Evaluate(x float64) float64 {
	return f.A * math.Exp(f.B*x)
}

// PerSecond rescales B from "per analysis point" to "per second" given the
// time between consecutive points.
func (f DecayFit) PerSecond(secondsPerPoint float64) float64 {
	if secondsPerPoint <= 0 {
		return 0
	}
	return f.B / secondsPerPoint
}

// T60 returns the time, in seconds, for the amplitude to fall by 60 dB at
// the given decay rate per second. Non-decaying rates return +Inf.
func T60(decayPerSecond float64) float64 {
	if decayPerSecond >= 0 {
		return math.Inf(1)
	}
	return math.Log(1e-3) / decayPerSecond
}

// DecayFitter fits an exponential amplitude envelope to a handful of
// observations by linearizing ln(y) = ln(A) + B·x.
//
// With amplitude weighting (the default) every point is weighted by its own
// amplitude y, which favors the louder early observations:
//
//	Sy = Σy, Sxy = Σxy, Sx2y = Σx²y, SylnY = Σy·ln y, SxylnY = Σxy·ln y
//	den  = Sy·Sx2y - Sxy²
//	ln A = (Sx2y·SylnY - Sxy·SxylnY) / den
//	B    = (Sy·SxylnY - Sxy·SylnY) / den
//
// Uniform weighting is the ordinary least-squares line through (x, ln y).
type DecayFitter struct {
	weighting string
	logger    logging.Logger
}

// NewDecayFitter creates a fitter with the named weighting
func NewDecayFitter(weighting string) (*DecayFitter, error) {
	w := strings.ToLower(strings.TrimSpace(weighting))
	if w == "" {
		w = WeightingAmplitude
	}
	if w != WeightingAmplitude && w != WeightingUniform {
		return nil, fmt.Errorf("unknown decay weighting: %q", weighting)
	}

	return &DecayFitter{
		weighting: w,
		logger: logging.WithFields(logging.Fields{
			"component": "decay_fitter",
			"weighting": w,
		}),
	}, nil
}

// Weighting returns the weighting scheme in use
func (df *DecayFitter) Weighting() string {
	return df.weighting
}

// Fit fits y = A·exp(B·x). Every y must be strictly positive.
func (df *DecayFitter) Fit(x, y []float64) (DecayFit, error) {
	if len(x) != len(y) {
		return DecayFit{}, fmt.Errorf("x and y lengths differ (%d vs %d)", len(x), len(y))
	}
	if len(y) < 2 {
		return DecayFit{}, fmt.Errorf("%d observations: %w", len(y), ErrDegenerateFit)
	}

	lnY := make([]float64, len(y))
	for i, v := range y {
		if !(v > 0) {
			return DecayFit{}, fmt.Errorf("observation %d has amplitude %g: %w", i, v, ErrNonPositiveAmplitude)
		}
		lnY[i] = math.Log(v)
	}

	var (
		fit     DecayFit
		weights []float64
		err     error
	)
	switch df.weighting {
	case WeightingUniform:
		fit, err = fitUniform(x, lnY)
	default:
		fit, err = fitAmplitudeWeighted(x, y, lnY)
		weights = y
	}
	if err != nil {
		df.logger.Debug("Decay fit failed", logging.Fields{
			"points": len(y),
			"error":  err.Error(),
		})
		return DecayFit{}, err
	}

	fit.A = math.Exp(fit.LnA)
	fit.Points = len(y)
	fit.RSquared = stat.RSquared(x, lnY, weights, fit.LnA, fit.B)
	if !common.IsFinite(fit.RSquared) {
		fit.RSquared = 0.0
	}

	return fit, nil
}

func fitAmplitudeWeighted(x, y, lnY []float64) (DecayFit, error) {
	var sy, sxy, sx2y, sylny, sxylny float64
	for i := range y {
		xy := x[i] * y[i]
		sy += y[i]
		sxy += xy
		sx2y += x[i] * xy
		sylny += y[i] * lnY[i]
		sxylny += xy * lnY[i]
	}

	den := sy*sx2y - sxy*sxy
	if den == 0 {
		return DecayFit{}, fmt.Errorf("weighted normal equations are singular: %w", ErrDegenerateFit)
	}

	lnA := (sx2y*sylny - sxy*sxylny) / den
	b := (sy*sxylny - sxy*sylny) / den
	if !common.IsFinite(lnA) || !common.IsFinite(b) {
		return DecayFit{}, fmt.Errorf("fit coefficients are not finite: %w", ErrDegenerateFit)
	}

	return DecayFit{LnA: lnA, B: b}, nil
}

func fitUniform(x, lnY []float64) (DecayFit, error) {
	if stat.Variance(x, nil) == 0 {
		return DecayFit{}, fmt.Errorf("all observations share one x: %w", ErrDegenerateFit)
	}

	alpha, beta := stat.LinearRegression(x, lnY, nil, false)
	if !common.IsFinite(alpha) || !common.IsFinite(beta) {
		return DecayFit{}, fmt.Errorf("fit coefficients are not finite: %w", ErrDegenerateFit)
	}

	return DecayFit{LnA: alpha, B: beta}, nil
}
