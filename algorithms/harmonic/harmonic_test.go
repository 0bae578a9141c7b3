package harmonic

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-resonance/algorithms/spectral"
	"github.com/RyanBlaney/sonido-resonance/algorithms/windowing"
)

const (
	testSize = 1024
	testRate = 44100.0
)

// toneSpectrum returns the Hann-windowed spectrum of a unit sine at the
// given (fractional) bin.
func toneSpectrum(t *testing.T, bin float64) spectral.Spectrum {
	t.Helper()

	frame := make([]float64, testSize)
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * bin * float64(i) / testSize)
	}
	require.NoError(t, windowing.NewHann(testSize, false).ApplyInPlace(frame))

	coeffs, err := spectral.NewPlanTransform(testSize).Forward(nil, frame)
	require.NoError(t, err)

	s, err := spectral.Analyze(coeffs, make([]float64, len(coeffs)), make([]float64, len(coeffs)))
	require.NoError(t, err)
	return s
}

func detectAndRefine(t *testing.T, s spectral.Spectrum) []SpectralPeak {
	t.Helper()

	pd := NewPeakDetector(DefaultThresholdDB)
	bins := pd.Detect(nil, s.Magnitude, s.MaxMagnitude, Capacity(s.Bins()))
	peaks, dropped := Refine(LogParabolic{}, s.Magnitude, s.Phase, s.MaxMagnitude, bins,
		spectral.BinWidth(testRate, testSize))
	require.Empty(t, dropped)
	return peaks
}

func TestBinCenteredToneYieldsSinglePeak(t *testing.T) {
	peaks := detectAndRefine(t, toneSpectrum(t, 32))

	require.Len(t, peaks, 1)
	assert.Equal(t, 32, peaks[0].BinIndex)
	assert.InDelta(t, 32.0, peaks[0].RefinedBin, 1e-9)
	assert.InDelta(t, 32*testRate/testSize, peaks[0].Frequency, 1e-6)
	assert.InDelta(t, 1.0, peaks[0].Amplitude, 1e-12)
}

func TestFractionalToneRefinement(t *testing.T) {
	binWidth := spectral.BinWidth(testRate, testSize)

	for _, bin := range []float64{32.5, 32.25, 40.7, 100.4} {
		peaks := detectAndRefine(t, toneSpectrum(t, bin))

		require.Len(t, peaks, 1, "bin %.2f", bin)
		want := bin * binWidth
		assert.InDelta(t, want, peaks[0].Frequency, 0.05*binWidth, "bin %.2f", bin)
	}
}

func TestHalfBinToneIsNearlyExact(t *testing.T) {
	peaks := detectAndRefine(t, toneSpectrum(t, 32.5))
	require.Len(t, peaks, 1)
	assert.InDelta(t, 32.5, peaks[0].RefinedBin, 1e-4)
}

func TestMonotonicAndFlatSpectraHaveNoPeaks(t *testing.T) {
	pd := NewPeakDetector(DefaultThresholdDB)

	rising := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}
	assert.Empty(t, pd.Detect(nil, rising, 0.9, Capacity(len(rising))))

	flat := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}
	assert.Empty(t, pd.Detect(nil, flat, 1, Capacity(len(flat))))

	plateau := []float64{0, 1, 2, 2, 1, 0, 0, 0, 0}
	assert.Empty(t, pd.Detect(nil, plateau, 2, Capacity(len(plateau))))
}

func TestSilentSpectrumHasNoPeaks(t *testing.T) {
	pd := NewPeakDetector(DefaultThresholdDB)
	silent := make([]float64, testSize/2+1)
	assert.Empty(t, pd.Detect(nil, silent, 0, Capacity(len(silent))))

	peaks, dropped := Refine(LogParabolic{}, silent, silent, 0, []int{3}, 1)
	assert.Empty(t, peaks)
	assert.Empty(t, dropped)
}

func TestThresholdIsStrictAndRelative(t *testing.T) {
	// bin 2 is the loudest, bin 6 sits 20 dB below it and bin 10 40 dB below
	mag := []float64{0, 0.5, 1, 0.5, 0, 0.05, 0.1, 0.05, 0, 0, 0.01, 0}

	bins := NewPeakDetector(-32).Detect(nil, mag, 1, Capacity(len(mag)))
	assert.Equal(t, []int{2, 6}, bins)

	bins = NewPeakDetector(-50).Detect(nil, mag, 1, Capacity(len(mag)))
	assert.Equal(t, []int{2, 6, 10}, bins)

	bins = NewPeakDetector(-10).Detect(nil, mag, 1, Capacity(len(mag)))
	assert.Equal(t, []int{2}, bins)

	bins = NewPeakDetector(0).Detect(nil, mag, 1, Capacity(len(mag)))
	assert.Empty(t, bins, "a peak exactly at the threshold is rejected")
}

func TestDetectRespectsCapacity(t *testing.T) {
	comb := []float64{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	pd := NewPeakDetector(-1e-9)

	dst := make([]int, 0, 2)
	bins := pd.Detect(dst, comb, 1, 2)
	assert.Equal(t, []int{1, 3}, bins)

	bins = pd.Detect(nil, comb, 1, 100)
	assert.Equal(t, []int{1, 3, 5, 7, 9}, bins)
	assert.Equal(t, 9, Capacity(len(comb)))
	assert.Equal(t, 0, Capacity(1))
}

func TestDetectReusesDestination(t *testing.T) {
	pd := NewPeakDetector(DefaultThresholdDB)
	dst := make([]int, 0, 4)
	dst = append(dst, 99, 98)

	bins := pd.Detect(dst, []float64{0, 2, 0, 1, 0}, 2, 3)
	assert.Equal(t, []int{1, 3}, bins)
}

func TestLogParabolicUndefined(t *testing.T) {
	lp := LogParabolic{}

	_, err := lp.Offset([]float64{0, 1, 0.5}, 1)
	assert.True(t, errors.Is(err, ErrRefinementUndefined))

	_, err = lp.Offset([]float64{0.5, 1, 0}, 1)
	assert.True(t, errors.Is(err, ErrRefinementUndefined))

	// m[i]^2 == m[i-1]*m[i+1]
	_, err = lp.Offset([]float64{0.5, 1, 2}, 1)
	assert.True(t, errors.Is(err, ErrRefinementUndefined))

	_, err = lp.Offset([]float64{0.5, 1}, 1)
	assert.True(t, errors.Is(err, ErrRefinementUndefined))

	delta, err := lp.Offset([]float64{0.5, 1, 0.5}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, delta)
}

func TestRefineDropsUndefinedPeaks(t *testing.T) {
	mag := []float64{0, 1, 0, 0.2, 1, 0.5, 0}
	peaks, dropped := Refine(LogParabolic{}, mag, make([]float64, len(mag)), 1, []int{1, 4}, 10)

	assert.Equal(t, []int{1}, dropped)
	require.Len(t, peaks, 1)
	assert.Equal(t, 4, peaks[0].BinIndex)
	assert.Greater(t, peaks[0].Frequency, 40.0)
	assert.Less(t, peaks[0].Frequency, 45.0)
}

func TestParabolicRefiner(t *testing.T) {
	p := Parabolic{}
	delta, err := p.Offset([]float64{1, 3, 2}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/6.0, delta, 1e-12)

	_, err = p.Offset([]float64{1, 1, 1}, 1)
	assert.True(t, errors.Is(err, ErrRefinementUndefined))
}

func TestNewRefiner(t *testing.T) {
	r, err := NewRefiner("")
	require.NoError(t, err)
	assert.Equal(t, RefinerLogParabolic, r.Name())

	r, err = NewRefiner("Parabolic")
	require.NoError(t, err)
	assert.Equal(t, RefinerParabolic, r.Name())

	_, err = NewRefiner("quinn")
	assert.Error(t, err)
}
