package source

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DecodeWAV reads a PCM WAV stream into a MemoryBuffer with samples scaled
// to [-1, 1).
func DecodeWAV(r io.ReadSeeker) (*MemoryBuffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not read PCM buffer: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, errors.New("WAV file declares no channels")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}

	samples := make([]float64, len(buf.Data)-len(buf.Data)%buf.Format.NumChannels)
	scale := math.Pow(2, float64(bitDepth-1))
	for i := range samples {
		v := buf.Data[i]
		if bitDepth == 8 {
			// 8-bit PCM is unsigned
			v -= 128
		}
		samples[i] = float64(v) / scale
	}

	return NewMemoryBuffer(samples, buf.Format.NumChannels, float64(buf.Format.SampleRate))
}

// LoadWAV opens and decodes a WAV file
func LoadWAV(path string) (*MemoryBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	buf, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return buf, nil
}

// EncodeWAV writes the buffer as integer PCM of the given bit depth
// (8, 16, 24 or 32). Samples outside [-1, 1] are clipped.
func EncodeWAV(w io.WriteSeeker, src Buffer, bitDepth int) error {
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	samples, err := src.Lock()
	if err != nil {
		return err
	}
	defer src.Unlock()

	scale := math.Pow(2, float64(bitDepth-1))
	data := make([]int, len(samples))
	for i, s := range samples {
		v := int(math.Round(s * scale))
		v = min(max(v, -int(scale)), int(scale)-1)
		if bitDepth == 8 {
			v += 128
		}
		data[i] = v
	}

	sampleRate := int(math.Round(src.SampleRate()))
	channels := src.ChannelCount()

	encoder := wav.NewEncoder(w, sampleRate, bitDepth, channels, 1)
	if err := encoder.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		SourceBitDepth: bitDepth,
	}); err != nil {
		return fmt.Errorf("data writing error: %w", err)
	}
	return encoder.Close()
}

// SaveWAV writes the buffer to a WAV file at path
func SaveWAV(path string, src Buffer, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return EncodeWAV(f, src, bitDepth)
}
