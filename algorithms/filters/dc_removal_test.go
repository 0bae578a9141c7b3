package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

func TestDCRemovalSubtractsMean(t *testing.T) {
	frame := []float64{1.5, 0.5, 1.5, 0.5}

	offset := NewDCRemoval(true).ProcessInPlace(frame)
	assert.InDelta(t, 1.0, offset, 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, -0.5, 0.5, -0.5}, frame, 1e-12)
	assert.InDelta(t, 0, stat.Mean(frame, nil), 1e-12)
}

func TestDCRemovalKeepsScaling(t *testing.T) {
	a := []float64{0.3, 0.9, -0.2, 0.4, 0.1}
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = 0.25 * v
	}

	dc := NewDCRemoval(true)
	dc.ProcessInPlace(a)
	dc.ProcessInPlace(b)
	for i := range a {
		assert.InDelta(t, 0.25*a[i], b[i], 1e-12)
	}
}

func TestDisabledDCRemovalIsNoOp(t *testing.T) {
	frame := []float64{2, 2, 2}

	assert.Equal(t, 0.0, NewDCRemoval(false).ProcessInPlace(frame))
	assert.Equal(t, []float64{2, 2, 2}, frame)

	var nilStage *DCRemoval
	assert.False(t, nilStage.Enabled())
	assert.Equal(t, 0.0, nilStage.ProcessInPlace(frame))
}
