package transcode

import (
	"context"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeJSON = `{
  "streams": [{
    "codec_type": "audio",
    "codec_name": "flac",
    "codec_long_name": "FLAC (Free Lossless Audio Codec)",
    "sample_rate": "48000",
    "channels": 2,
    "duration": "3.250000",
    "bit_rate": "912000"
  }]
}`

func TestParseFFprobeOutput(t *testing.T) {
	meta, err := parseFFprobeOutput([]byte(probeJSON))
	require.NoError(t, err)

	assert.Equal(t, 48000, meta.SampleRate)
	assert.Equal(t, 2, meta.Channels)
	assert.Equal(t, "flac", meta.Codec)
	assert.InDelta(t, 3.25, meta.Duration, 1e-9)
	assert.Equal(t, 912000, meta.Bitrate)
}

func TestParseFFprobeOutputRejects(t *testing.T) {
	cases := map[string]string{
		"garbage":     `not json`,
		"no streams":  `{"streams": []}`,
		"video":       `{"streams": [{"codec_type": "video", "sample_rate": "48000", "channels": 2}]}`,
		"no rate":     `{"streams": [{"codec_type": "audio", "sample_rate": "", "channels": 2}]}`,
		"no channels": `{"streams": [{"codec_type": "audio", "sample_rate": "44100", "channels": 0}]}`,
	}
	for name, body := range cases {
		_, err := parseFFprobeOutput([]byte(body))
		assert.Error(t, err, name)
	}
}

func TestBuildFFmpegArgsKeepsSourceShape(t *testing.T) {
	d := NewDecoder(nil)
	args := d.buildFFmpegArgs(&AudioMetadata{SampleRate: 48000, Channels: 2})

	assert.Equal(t, []string{"-f", "f64le", "-ac", "2", "-ar", "48000", "-v", "error"}, args)
}

func TestBuildFFmpegArgsResamples(t *testing.T) {
	cfg := DefaultDecoderConfig()
	cfg.TargetSampleRate = 44100
	cfg.TargetChannels = 1
	cfg.MaxDuration = 2500 * time.Millisecond
	d := NewDecoder(cfg)

	args := d.buildFFmpegArgs(&AudioMetadata{SampleRate: 48000, Channels: 2})
	assert.Equal(t, []string{
		"-f", "f64le", "-ac", "1", "-ar", "44100",
		"-af", "aresample=resampler=soxr:precision=28",
		"-t", "2.50",
		"-v", "error",
	}, args)
}

func TestNewBufferFromRawOutput(t *testing.T) {
	values := []float64{0.5, -0.5, 0.25, -0.25, 1}
	raw := make([]byte, 0, len(values)*8+3)
	for _, v := range values {
		raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
	}
	raw = append(raw, 1, 2, 3)

	assert.Equal(t, values, bytesToFloat64(raw))
	assert.Nil(t, bytesToFloat64(raw[:5]))

	buf, err := NewDecoder(nil).newBuffer(raw, &AudioMetadata{SampleRate: 32000, Channels: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, buf.FrameCount())
	assert.Equal(t, 2, buf.ChannelCount())
	assert.Equal(t, 32000.0, buf.SampleRate())

	_, err = NewDecoder(nil).newBuffer(nil, &AudioMetadata{SampleRate: 32000, Channels: 2})
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	cfg := DefaultDecoderConfig()
	assert.NoError(t, NewDecoder(cfg).ValidateConfig())

	cfg.TargetChannels = 9
	assert.Error(t, NewDecoder(cfg).ValidateConfig())

	cfg = DefaultDecoderConfig()
	cfg.FFprobePath = ""
	assert.Error(t, NewDecoder(cfg).ValidateConfig())
}

func TestDecodeFileMissingTools(t *testing.T) {
	cfg := DefaultDecoderConfig()
	dir := t.TempDir()
	cfg.FFprobePath = filepath.Join(dir, "no-ffprobe")
	cfg.FFmpegPath = filepath.Join(dir, "no-ffmpeg")
	d := NewDecoder(cfg)

	_, _, err := d.DecodeFile(context.Background(), filepath.Join(dir, "input.flac"))
	assert.Error(t, err)
	assert.Error(t, d.CheckAvailability(context.Background()))
}
