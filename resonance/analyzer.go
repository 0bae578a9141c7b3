// Package resonance extracts the resonant partials of a sampled signal: the
// frequencies and relative amplitudes of the spectral peaks of a frame, and
// the exponential decay of those partials across a span of the signal.
package resonance

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/RyanBlaney/sonido-resonance/algorithms/common"
	"github.com/RyanBlaney/sonido-resonance/algorithms/filters"
	"github.com/RyanBlaney/sonido-resonance/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-resonance/algorithms/spectral"
	"github.com/RyanBlaney/sonido-resonance/algorithms/temporal"
	"github.com/RyanBlaney/sonido-resonance/algorithms/windowing"
	"github.com/RyanBlaney/sonido-resonance/logging"
	"github.com/RyanBlaney/sonido-resonance/resonance/config"
	"github.com/RyanBlaney/sonido-resonance/source"
)

// pipeline groups everything sized by the transform size. It is replaced as
// a whole on reconfiguration and never modified afterwards.
type pipeline struct {
	workspace *common.Workspace
	transform spectral.Transform
	window    windowing.Window
}

func newPipeline(cfg *config.AnalysisConfig, prev *common.Workspace) (*pipeline, error) {
	var (
		ws  *common.Workspace
		err error
	)
	if prev == nil {
		ws, err = common.NewWorkspace(cfg.TransformSize)
	} else {
		ws, err = prev.Resized(cfg.TransformSize)
	}
	if err != nil {
		return nil, err
	}

	transform, err := spectral.NewTransform(cfg.Backend, cfg.TransformSize)
	if err != nil {
		return nil, err
	}

	window, err := windowing.New(cfg.Window, cfg.TransformSize)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		workspace: ws,
		transform: transform,
		window:    window,
	}, nil
}

// Analyzer runs the resonance pipeline against a bound source buffer.
// All methods are safe for concurrent use; analysis calls and
// reconfiguration are serialized, so a call never observes a half-applied
// configuration.
type Analyzer struct {
	mu sync.Mutex

	cfg      config.AnalysisConfig
	pipe     *pipeline
	dc       *filters.DCRemoval
	detector *harmonic.PeakDetector
	refiner  harmonic.Refiner
	fitter   *temporal.DecayFitter
	loader   *source.FrameLoader
	source   source.Buffer
	last     *Result

	logger logging.Logger
}

// NewAnalyzer creates an analyzer from cfg. A nil cfg uses
// config.DefaultAnalysisConfig.
func NewAnalyzer(cfg *config.AnalysisConfig) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.DefaultAnalysisConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, NewAnalysisError(CodeInvalidConfiguration, "NewAnalyzer", "invalid analysis configuration", err)
	}

	pipe, err := newPipeline(cfg, nil)
	if err != nil {
		return nil, NewAnalysisError(CodeInvalidConfiguration, "NewAnalyzer", "could not build pipeline", err)
	}

	refiner, err := harmonic.NewRefiner(cfg.Refiner)
	if err != nil {
		return nil, NewAnalysisError(CodeInvalidConfiguration, "NewAnalyzer", "could not build refiner", err)
	}

	fitter, err := temporal.NewDecayFitter(cfg.DecayWeighting)
	if err != nil {
		return nil, NewAnalysisError(CodeInvalidConfiguration, "NewAnalyzer", "could not build decay fitter", err)
	}

	return &Analyzer{
		cfg:      *cfg,
		pipe:     pipe,
		dc:       filters.NewDCRemoval(cfg.RemoveDC),
		detector: harmonic.NewPeakDetector(cfg.ThresholdDB),
		refiner:  refiner,
		fitter:   fitter,
		loader:   source.NewFrameLoader(),
		logger: logging.WithFields(logging.Fields{
			"component": "resonance_analyzer",
		}),
	}, nil
}

// Config returns a copy of the active configuration
func (a *Analyzer) Config() config.AnalysisConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// TransformSize returns the active transform size N
func (a *Analyzer) TransformSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pipe.workspace.Size()
}

// Generation returns the generation of the active workspace
func (a *Analyzer) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pipe.workspace.Generation()
}

// ConfigureTransformSize switches to transform size n. n must be a power of
// two between common.MinTransformSize (4) and common.MaxTransformSize; 1 and
// 2 are rejected because they leave no bin with two neighbors to hold a
// peak. A rejected value keeps the previous size active. Every
// size-dependent buffer is rebuilt before the switch.
func (a *Analyzer) ConfigureTransformSize(n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := a.logger.WithFields(logging.Fields{
		"function":  "ConfigureTransformSize",
		"requested": n,
		"current":   a.cfg.TransformSize,
	})

	if n == a.cfg.TransformSize {
		return nil
	}

	cfg := a.cfg
	cfg.TransformSize = n

	var pipe *pipeline
	err := common.ValidateTransformSize(n)
	if err == nil {
		pipe, err = newPipeline(&cfg, a.pipe.workspace)
	}
	if err != nil {
		logger.Warn("Transform size rejected, keeping current size", logging.Fields{
			"error": err.Error(),
		})
		return NewAnalysisError(CodeInvalidConfiguration, "ConfigureTransformSize",
			fmt.Sprintf("transform size %d rejected", n), err)
	}

	a.pipe = pipe
	a.cfg = cfg

	logger.Info("Transform size changed", logging.Fields{
		"generation": pipe.workspace.Generation(),
	})
	return nil
}

// ConfigureChannel selects the channel to analyze and returns the channel
// actually in effect. The value is clamped into the bound source's
// channels; without a source negative values become 0.
func (a *Analyzer) ConfigureChannel(channel int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	effective := max(channel, 0)
	if a.source != nil {
		if nc := a.source.ChannelCount(); nc > 0 {
			effective = common.ClampInt(channel, 0, nc-1)
		}
	}

	if effective != channel {
		a.logger.Debug("Channel clamped", logging.Fields{
			"requested": channel,
			"channel":   effective,
		})
	}

	a.cfg.Channel = effective
	return effective
}

// ConfigureThreshold sets the loudness threshold in dB relative to the
// loudest bin. Positive or NaN values are rejected.
func (a *Analyzer) ConfigureThreshold(thresholdDB float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if math.IsNaN(thresholdDB) || thresholdDB > 0 {
		a.logger.Warn("Threshold rejected, keeping current threshold", logging.Fields{
			"requested": thresholdDB,
			"current":   a.cfg.ThresholdDB,
		})
		return NewAnalysisError(CodeInvalidConfiguration, "ConfigureThreshold",
			fmt.Sprintf("threshold %v dB must be <= 0", thresholdDB), nil)
	}

	a.cfg.ThresholdDB = thresholdDB
	a.detector = harmonic.NewPeakDetector(thresholdDB)
	return nil
}

// BindSource makes buf the analyzed source and adopts its sample rate. A nil
// buf unbinds the current source.
func (a *Analyzer) BindSource(buf source.Buffer) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.source = buf
	if buf == nil {
		a.logger.Info("Source unbound")
		return
	}

	if rate := buf.SampleRate(); rate > 0 && !math.IsInf(rate, 0) {
		a.cfg.SampleRate = rate
	}
	if nc := buf.ChannelCount(); nc > 0 {
		a.cfg.Channel = common.ClampInt(a.cfg.Channel, 0, nc-1)
	}

	a.logger.Info("Source bound", logging.Fields{
		"frames":      buf.FrameCount(),
		"channels":    buf.ChannelCount(),
		"sample_rate": a.cfg.SampleRate,
		"channel":     a.cfg.Channel,
	})
}

// AnalyzeAt analyzes the N frames starting at cursor. A negative cursor is
// treated as 0 and a window running past the end is pulled back so that it
// fits.
//
// When the source is unavailable the returned Result is still non-nil: it
// carries no peaks and a SOURCE_UNAVAILABLE diagnostic, and the error
// matches ErrSourceUnavailable.
func (a *Analyzer) AnalyzeAt(ctx context.Context, cursor int) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "AnalyzeAt",
		"cursor":   cursor,
	})

	start := cursor
	if start < 0 {
		logger.Debug("Negative cursor clamped to 0")
		start = 0
	}

	res, err := a.analyzePoint(start, logger)
	res.Cursor = cursor
	a.last = res.clone()

	if err != nil {
		return res, err
	}

	logger.Debug("Frame analyzed", logging.Fields{
		"start": res.Start,
		"peaks": len(res.Peaks),
	})
	return res, nil
}

// LastResult returns a copy of the most recent single-frame result, or of
// the first point of the most recent range analysis. ok is false before any
// analysis ran.
func (a *Analyzer) LastResult() (res *Result, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.last == nil {
		return nil, false
	}
	return a.last.clone(), true
}

// SampleAt returns the sample of the configured channel nearest to the
// fractional frame position. An unavailable source reads as 0 and the
// error matches ErrSourceUnavailable.
func (a *Analyzer) SampleAt(position float64) (float64, error) {
	out := []float64{0}
	err := a.SampleVector([]float64{position}, out)
	return out[0], err
}

// SampleVector looks up every position into dst; see SampleAt
func (a *Analyzer) SampleVector(positions, dst []float64) error {
	a.mu.Lock()
	buf, channel := a.source, a.cfg.Channel
	a.mu.Unlock()

	if err := source.SampleVector(buf, channel, positions, dst); err != nil {
		a.logger.Debug("Sample lookup failed", logging.Fields{
			"positions": len(positions),
			"error":     err.Error(),
		})
		return NewAnalysisError(codeOf(err, CodeInvalidConfiguration), "SampleVector", "sample lookup failed", err)
	}
	return nil
}
