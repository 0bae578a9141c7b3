package resonance

import (
	"github.com/RyanBlaney/sonido-resonance/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-resonance/algorithms/spectral"
	"github.com/RyanBlaney/sonido-resonance/logging"
)

// analyzePoint runs load, optional DC removal, window, transform, spectrum,
// peak detection and refinement for the frame starting at start. The caller
// holds a.mu.
// The returned Result never aliases the workspace.
func (a *Analyzer) analyzePoint(start int, logger logging.Logger) (*Result, error) {
	pipe := a.pipe
	ws := pipe.workspace
	n := ws.Size()

	res := &Result{
		Cursor:        start,
		Start:         start,
		Channel:       a.cfg.Channel,
		TransformSize: n,
		Generation:    ws.Generation(),
		SampleRate:    a.cfg.SampleRate,
		BinWidth:      spectral.BinWidth(a.cfg.SampleRate, n),
		Peaks:         []harmonic.SpectralPeak{},
	}

	ws.Reset()

	win, err := a.loader.Load(a.source, a.cfg.Channel, start, ws.Frame)
	if err != nil {
		aerr := NewAnalysisError(CodeSourceUnavailable, "analyze", "could not load analysis frame", err)
		logger.Warn("Source unavailable, emitting empty result", logging.Fields{
			"error": err.Error(),
		})
		res.Diagnostics = append(res.Diagnostics, diagnosticFrom(aerr, CodeSourceUnavailable, nil))
		return res, aerr
	}
	res.Start = win.Start
	res.Channel = win.Channel

	if offset := a.dc.ProcessInPlace(ws.Frame); offset != 0 {
		logger.Debug("Removed DC offset", logging.Fields{
			"offset": offset,
		})
	}

	if err := pipe.window.ApplyInPlace(ws.Frame); err != nil {
		return res, NewAnalysisError(CodeInvalidConfiguration, "analyze", "window does not match frame", err)
	}

	coeffs, err := pipe.transform.Forward(ws.Coefficients, ws.Frame)
	if err != nil {
		return res, NewAnalysisError(CodeInvalidConfiguration, "analyze", "transform does not match frame", err)
	}

	spectrum, err := spectral.Analyze(coeffs, ws.Magnitude, ws.Phase)
	if err != nil {
		return res, NewAnalysisError(CodeInvalidConfiguration, "analyze", "spectrum buffers do not match transform", err)
	}
	res.MaxMagnitude = spectrum.MaxMagnitude

	if spectrum.IsSilent() {
		logger.Debug("Silent frame, no peaks", logging.Fields{
			"start": win.Start,
		})
		return res, nil
	}

	ws.Peaks = a.detector.Detect(ws.Peaks, spectrum.Magnitude, spectrum.MaxMagnitude, cap(ws.Peaks))

	peaks, dropped := harmonic.Refine(a.refiner, spectrum.Magnitude, spectrum.Phase,
		spectrum.MaxMagnitude, ws.Peaks, res.BinWidth)
	res.Peaks = peaks

	for _, bin := range dropped {
		logger.Debug("Peak dropped, refinement undefined", logging.Fields{
			"bin":     bin,
			"refiner": a.refiner.Name(),
		})
		res.Diagnostics = append(res.Diagnostics, diagnosticFrom(harmonic.ErrRefinementUndefined,
			CodeRefinementUndefined, map[string]any{"bin": bin}))
	}

	return res, nil
}
