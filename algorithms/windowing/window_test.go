package windowing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicHannMatchesRaisedCosine(t *testing.T) {
	const n = 64
	h := NewHann(n, false)
	coeffs := h.GetCoefficients()

	require.Len(t, coeffs, n)
	for i, c := range coeffs {
		want := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/n))
		assert.InDelta(t, want, c, 1e-12, "index %d", i)
	}
	assert.Equal(t, 0.0, coeffs[0])
	assert.InDelta(t, 1.0, coeffs[n/2], 1e-15)
	assert.False(t, h.IsSymmetric())
}

func TestSymmetricHannEndsAtZero(t *testing.T) {
	h := NewHann(9, true)
	coeffs := h.GetCoefficients()
	assert.InDelta(t, 0.0, coeffs[0], 1e-15)
	assert.InDelta(t, 0.0, coeffs[8], 1e-15)
	assert.InDelta(t, 1.0, coeffs[4], 1e-15)
}

func TestHannApplyInPlace(t *testing.T) {
	h := NewHann(8, false)
	frame := []float64{2, 2, 2, 2, 2, 2, 2, 2}
	require.NoError(t, h.ApplyInPlace(frame))

	for i, c := range h.GetCoefficients() {
		assert.InDelta(t, 2*c, frame[i], 1e-12)
	}

	assert.Error(t, h.ApplyInPlace(make([]float64, 7)))
	assert.Nil(t, h.Apply(make([]float64, 7)))
}

func TestNewByName(t *testing.T) {
	w, err := New("HANN", 16)
	require.NoError(t, err)
	assert.Equal(t, "hann", w.GetType())

	w, err = New("rectangular", 16)
	require.NoError(t, err)
	frame := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	require.NoError(t, w.ApplyInPlace(frame))
	assert.Equal(t, 16.0, frame[15])

	for _, name := range Names() {
		w, err := New(name, 32)
		require.NoError(t, err, name)
		assert.Equal(t, 32, w.GetSize(), name)
		assert.Len(t, w.Apply(make([]float64, 32)), 32, name)
	}

	_, err = New("gaussian", 16)
	assert.Error(t, err)
	_, err = New("hann", 0)
	assert.Error(t, err)
}

func TestTabulatedWindowsAreBounded(t *testing.T) {
	w, err := New("hamming", 128)
	require.NoError(t, err)
	for _, c := range w.GetCoefficients() {
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0+1e-12)
	}
}
