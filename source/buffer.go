// Package source holds the sample buffer the analyzer reads from and the
// routines that copy frames and single samples out of it.
package source

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable is returned when a buffer is missing, released, or cannot
// serve the requested region.
var ErrUnavailable = errors.New("source buffer unavailable")

// Buffer is a host-owned array of interleaved float samples. Samples may
// only be read between a successful Lock and the matching Unlock; Unlock
// must not be called after a failed Lock.
type Buffer interface {
	// Lock pins the buffer and returns its interleaved samples
	// (FrameCount()*ChannelCount() values).
	Lock() ([]float64, error)
	Unlock()

	FrameCount() int
	ChannelCount() int
	SampleRate() float64
}

// MemoryBuffer is an in-process Buffer. Readers share the lock; Release
// waits for them and makes every later Lock fail.
type MemoryBuffer struct {
	mu         sync.RWMutex
	samples    []float64
	frames     int
	channels   int
	sampleRate float64
	released   bool
}

// NewMemoryBuffer wraps interleaved samples. len(samples) must be a
// multiple of channels.
func NewMemoryBuffer(samples []float64, channels int, sampleRate float64) (*MemoryBuffer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%d samples do not divide into %d channels", len(samples), channels)
	}

	return &MemoryBuffer{
		samples:    samples,
		frames:     len(samples) / channels,
		channels:   channels,
		sampleRate: sampleRate,
	}, nil
}

// NewMonoBuffer wraps a single channel of samples
func NewMonoBuffer(samples []float64, sampleRate float64) (*MemoryBuffer, error) {
	return NewMemoryBuffer(samples, 1, sampleRate)
}

// Interleave builds a MemoryBuffer from per-channel slices of equal length
func Interleave(sampleRate float64, channels ...[]float64) (*MemoryBuffer, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("no channels given")
	}

	frames := len(channels[0])
	for i, ch := range channels {
		if len(ch) != frames {
			return nil, fmt.Errorf("channel %d has %d frames, expected %d", i, len(ch), frames)
		}
	}

	samples := make([]float64, frames*len(channels))
	for f := 0; f < frames; f++ {
		for c, ch := range channels {
			samples[f*len(channels)+c] = ch[f]
		}
	}
	return NewMemoryBuffer(samples, len(channels), sampleRate)
}

func (b *MemoryBuffer) Lock() ([]float64, error) {
	b.mu.RLock()
	if b.released {
		b.mu.RUnlock()
		return nil, fmt.Errorf("buffer released: %w", ErrUnavailable)
	}
	return b.samples, nil
}

func (b *MemoryBuffer) Unlock() {
	b.mu.RUnlock()
}

func (b *MemoryBuffer) FrameCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.released {
		return 0
	}
	return b.frames
}

func (b *MemoryBuffer) ChannelCount() int {
	return b.channels
}

func (b *MemoryBuffer) SampleRate() float64 {
	return b.sampleRate
}

// Release drops the samples. It blocks until current readers unlock.
func (b *MemoryBuffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = nil
	b.released = true
}
