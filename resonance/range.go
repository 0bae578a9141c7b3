package resonance

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/sonido-resonance/algorithms/common"
	"github.com/RyanBlaney/sonido-resonance/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-resonance/algorithms/temporal"
	"github.com/RyanBlaney/sonido-resonance/logging"
)

// AnalyzeRange analyzes the span [from, to] at evenly spaced points and fits
// an exponential decay to every partial of the first point.
//
// from must be strictly below to, both as given and after each cursor is
// clamped so that a full window fits in the source. With the default five points the step is
// (to-from)/4 frames and the points are from, from+step, from+2·step,
// from+3·step and to.
//
// Partials are the refined peaks of the first point. At every later point a
// partial is matched to the peak closest in frequency within the configured
// tolerance; unmatched points add no observation. Observation amplitudes
// are relative to the first point's loudest bin, so decay between points is
// preserved. A partial whose fit fails keeps its observations, gets no fit
// and adds a diagnostic.
func (a *Analyzer) AnalyzeRange(ctx context.Context, from, to int) (*RangeResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "AnalyzeRange",
		"from":     from,
		"to":       to,
	})

	if from >= to {
		logger.Warn("Range rejected, first cursor must be below the second")
		return nil, NewAnalysisError(CodeInvalidRange, "AnalyzeRange",
			fmt.Sprintf("cursor %d is not below cursor %d", from, to), nil)
	}

	res := &RangeResult{
		From:     from,
		To:       to,
		Points:   make([]*Result, 0, a.cfg.AnalysisPoints),
		Partials: []PartialDecay{},
	}

	if a.source != nil {
		if last := a.source.FrameCount() - a.pipe.workspace.Size(); last >= 0 {
			res.From = common.ClampInt(from, 0, last)
			res.To = common.ClampInt(to, 0, last)
			if res.From != from || res.To != to {
				logger.Debug("Range clamped to the source", logging.Fields{
					"clamped_from": res.From,
					"clamped_to":   res.To,
				})
			}
		}
	}

	if res.From >= res.To {
		logger.Warn("Range rejected, clamped cursors leave no span", logging.Fields{
			"clamped_from": res.From,
			"clamped_to":   res.To,
		})
		return nil, NewAnalysisError(CodeInvalidRange, "AnalyzeRange",
			fmt.Sprintf("cursors %d and %d both clamp to %d", from, to, res.From), nil)
	}

	points := a.cfg.AnalysisPoints
	res.Step = (res.To - res.From) / (points - 1)
	res.SecondsPerPoint = float64(res.Step) / a.cfg.SampleRate

	for k := 0; k < points; k++ {
		if err := ctx.Err(); err != nil {
			if len(res.Points) > 0 {
				a.last = res.Points[0].clone()
			}
			return res, err
		}

		cursor := res.From + k*res.Step
		if k == points-1 {
			cursor = res.To
		}

		pr, err := a.analyzePoint(cursor, logger.WithFields(logging.Fields{"point": k}))
		res.Points = append(res.Points, pr)
		if err != nil {
			for _, d := range pr.Diagnostics {
				res.Diagnostics = append(res.Diagnostics, withField(d, "point", k))
			}
			if k == 0 {
				a.last = pr.clone()
				return res, err
			}
		}
	}

	seed := res.Points[0]
	a.last = seed.clone()

	tracker := harmonic.NewPartialTracker(seed.Peaks, seed.MaxMagnitude, a.cfg.MatchToleranceBins*seed.BinWidth)
	for k := 1; k < len(res.Points); k++ {
		tracker.Observe(k, res.Points[k].Peaks)
	}

	for _, partial := range tracker.Partials() {
		res.Partials = append(res.Partials, a.fitPartial(partial, res, logger))
	}

	logger.Debug("Range analyzed", logging.Fields{
		"step":     res.Step,
		"partials": len(res.Partials),
	})

	return res, nil
}

func (a *Analyzer) fitPartial(partial harmonic.Partial, res *RangeResult, logger logging.Logger) PartialDecay {
	pd := PartialDecay{Partial: partial}

	x, y := partial.Points()
	fit, err := a.fitter.Fit(x, y)
	if err != nil {
		logger.Debug("Decay fit failed", logging.Fields{
			"partial":      partial.ID,
			"frequency":    partial.Frequency,
			"observations": len(partial.Observations),
			"error":        err.Error(),
		})
		res.Diagnostics = append(res.Diagnostics, diagnosticFrom(err, CodeDegenerateFit, map[string]any{
			"partial":   partial.ID,
			"frequency": partial.Frequency,
		}))
		return pd
	}

	pd.Fit = &fit
	pd.DecayPerSecond = fit.PerSecond(res.SecondsPerPoint)
	if pd.DecayPerSecond < 0 {
		pd.T60 = temporal.T60(pd.DecayPerSecond)
	}
	return pd
}

func withField(d Diagnostic, key string, value any) Diagnostic {
	fields := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		fields[k] = v
	}
	fields[key] = value
	d.Fields = fields
	return d
}
