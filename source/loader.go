package source

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-resonance/algorithms/common"
	"github.com/RyanBlaney/sonido-resonance/logging"
)

// FrameWindow describes where a frame was actually read from
type FrameWindow struct {
	Cursor  int  `json:"cursor"`  // requested cursor
	Start   int  `json:"start"`   // first frame copied
	Channel int  `json:"channel"` // channel copied after clamping
	Clamped bool `json:"clamped"` // Start != Cursor
}

// FrameLoader copies analysis frames out of a Buffer
type FrameLoader struct {
	logger logging.Logger
}

// NewFrameLoader creates a frame loader
func NewFrameLoader() *FrameLoader {
	return &FrameLoader{
		logger: logging.WithFields(logging.Fields{
			"component": "frame_loader",
		}),
	}
}

// Load copies len(frame) consecutive samples of one channel starting at
// cursor into frame. The start is pulled back to frameCount-len(frame) when
// the window would run past the end, and up to 0 for negative cursors. The
// channel is clamped to the buffer's channels. The buffer stays locked only
// for the copy.
func (fl *FrameLoader) Load(buf Buffer, channel, cursor int, frame []float64) (FrameWindow, error) {
	win := FrameWindow{Cursor: cursor}
	if buf == nil {
		return win, fmt.Errorf("no buffer bound: %w", ErrUnavailable)
	}

	n := len(frame)
	frames := buf.FrameCount()
	channels := buf.ChannelCount()
	if channels <= 0 {
		return win, fmt.Errorf("buffer has no channels: %w", ErrUnavailable)
	}
	if frames < n {
		return win, fmt.Errorf("buffer has %d frames, window needs %d: %w", frames, n, ErrUnavailable)
	}

	win.Channel = common.ClampInt(channel, 0, channels-1)
	win.Start = common.ClampInt(cursor, 0, frames-n)
	win.Clamped = win.Start != cursor

	samples, err := buf.Lock()
	if err != nil {
		return win, fmt.Errorf("lock failed: %w", ensureUnavailable(err))
	}
	defer buf.Unlock()

	if len(samples) < frames*channels {
		return win, fmt.Errorf("buffer holds %d samples, expected %d: %w", len(samples), frames*channels, ErrUnavailable)
	}

	for i := range frame {
		frame[i] = samples[(win.Start+i)*channels+win.Channel]
	}

	if win.Clamped {
		fl.logger.Debug("Window start clamped", logging.Fields{
			"cursor": cursor,
			"start":  win.Start,
			"frames": frames,
			"size":   n,
		})
	}

	return win, nil
}

// SampleAt returns the sample of channel nearest to a fractional frame
// position. The position rounds half up and clamps into the buffer. An
// unavailable buffer reads as 0 together with the error.
func SampleAt(buf Buffer, channel int, position float64) (float64, error) {
	out := []float64{0}
	err := SampleVector(buf, channel, []float64{position}, out)
	return out[0], err
}

// SampleVector looks up every position of positions into dst under a
// single lock. dst must be at least as long as positions. When the buffer
// is unavailable dst is zeroed.
func SampleVector(buf Buffer, channel int, positions, dst []float64) error {
	if len(dst) < len(positions) {
		return fmt.Errorf("destination holds %d values, need %d", len(dst), len(positions))
	}
	dst = dst[:len(positions)]
	clear(dst)

	if buf == nil {
		return fmt.Errorf("no buffer bound: %w", ErrUnavailable)
	}
	frames := buf.FrameCount()
	channels := buf.ChannelCount()
	if frames <= 0 || channels <= 0 {
		return fmt.Errorf("buffer is empty: %w", ErrUnavailable)
	}
	ch := common.ClampInt(channel, 0, channels-1)

	samples, err := buf.Lock()
	if err != nil {
		return fmt.Errorf("lock failed: %w", ensureUnavailable(err))
	}
	defer buf.Unlock()

	if len(samples) < frames*channels {
		return fmt.Errorf("buffer holds %d samples, expected %d: %w", len(samples), frames*channels, ErrUnavailable)
	}

	for i, pos := range positions {
		idx := 0
		if !math.IsNaN(pos) {
			idx = common.RoundHalfUp(common.Clamp(pos, 0, float64(frames-1)))
		}
		dst[i] = samples[idx*channels+ch]
	}
	return nil
}

func ensureUnavailable(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
