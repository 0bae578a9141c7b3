package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 4, 256, 1024, 1 << 20} {
		assert.True(t, IsPowerOfTwo(n), n)
	}
	for _, n := range []int{0, -4, 3, 1000, 1023} {
		assert.False(t, IsPowerOfTwo(n), n)
	}
	assert.Equal(t, 1024, NextPowerOfTwo(1000))
	assert.Equal(t, 1, NextPowerOfTwo(-3))

	err := ValidateTransformSize(1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1024")
}

func TestClampIntAndRounding(t *testing.T) {
	assert.Equal(t, 0, ClampInt(-5, 0, 10))
	assert.Equal(t, 10, ClampInt(50, 0, 10))
	assert.Equal(t, 0, ClampInt(3, 0, -1))

	assert.Equal(t, 3, RoundHalfUp(2.5))
	assert.Equal(t, 2, RoundHalfUp(2.49))
	assert.Equal(t, 0, RoundHalfUp(-0.5))
	assert.Equal(t, -1, RoundHalfUp(-0.51))
}

func TestAmplitudeToDB(t *testing.T) {
	assert.InDelta(t, -6.0206, AmplitudeToDB(0.5, 1), 1e-4)
	assert.InDelta(t, 0.0, AmplitudeToDB(3, 3), 1e-12)
	assert.True(t, math.IsInf(AmplitudeToDB(0, 1), -1))
	assert.True(t, math.IsNaN(AmplitudeToDB(1, 0)))
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 0.5, Mean([]float64{0.25, 0.75, 0.5}), 1e-12)
	assert.Equal(t, 0.0, Mean(nil))
}

func TestWorkspaceSizing(t *testing.T) {
	ws, err := NewWorkspace(1024)
	require.NoError(t, err)

	assert.Equal(t, 1024, ws.Size())
	assert.Len(t, ws.Frame, 1024)
	assert.Len(t, ws.Magnitude, 513)
	assert.Len(t, ws.Phase, 513)
	assert.Len(t, ws.Coefficients, 513)
	assert.Equal(t, 511, cap(ws.Peaks))
	assert.Equal(t, uint64(1), ws.Generation())
}

func TestWorkspaceResizedKeepsOriginalOnError(t *testing.T) {
	ws, err := NewWorkspace(256)
	require.NoError(t, err)
	ws.Frame[0] = 1.5

	_, err = ws.Resized(1000)
	require.Error(t, err)
	assert.Equal(t, 256, ws.Size())
	assert.Equal(t, 1.5, ws.Frame[0])

	next, err := ws.Resized(512)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Generation())
	assert.Len(t, next.Frame, 512)
	assert.Len(t, ws.Frame, 256)
}

func TestWorkspaceRoundTrip(t *testing.T) {
	first, err := NewWorkspace(1024)
	require.NoError(t, err)
	small, err := first.Resized(256)
	require.NoError(t, err)
	again, err := small.Resized(1024)
	require.NoError(t, err)

	assert.Equal(t, len(first.Frame), len(again.Frame))
	assert.Equal(t, len(first.Magnitude), len(again.Magnitude))
	assert.Equal(t, cap(first.Peaks), cap(again.Peaks))
	assert.Equal(t, uint64(3), again.Generation())
}

func TestValidateTransformSize(t *testing.T) {
	assert.NoError(t, ValidateTransformSize(4))
	assert.Error(t, ValidateTransformSize(2))
	assert.Error(t, ValidateTransformSize(0))
	assert.Error(t, ValidateTransformSize(MaxTransformSize*2))
}

func TestWorkspaceReset(t *testing.T) {
	ws, err := NewWorkspace(8)
	require.NoError(t, err)
	ws.Frame[3] = 2
	ws.Magnitude[1] = 1
	ws.Peaks = append(ws.Peaks, 1)

	ws.Reset()
	assert.Equal(t, 0.0, ws.Frame[3])
	assert.Equal(t, 0.0, ws.Magnitude[1])
	assert.Empty(t, ws.Peaks)
	assert.Equal(t, 3, cap(ws.Peaks))
}
