package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-resonance/logging"
	"github.com/RyanBlaney/sonido-resonance/resonance"
	"github.com/RyanBlaney/sonido-resonance/resonance/config"
	"github.com/RyanBlaney/sonido-resonance/source"
	"github.com/RyanBlaney/sonido-resonance/transcode"
)

// openSource decodes path with the configured decoder
func openSource(ctx context.Context, cfg *config.Config, path string) (*source.MemoryBuffer, error) {
	logger := logging.WithFields(logging.Fields{
		"function": "openSource",
		"file":     path,
		"decoder":  cfg.Decoder,
	})

	switch strings.ToLower(cfg.Decoder) {
	case config.DecoderFFmpeg:
		buf, meta, err := transcode.NewDecoder(&cfg.Transcode).DecodeFile(ctx, path)
		if err != nil {
			return nil, err
		}
		logger.Debug("Decoded with ffmpeg", logging.Fields{
			"codec":    meta.Codec,
			"duration": meta.Duration,
		})
		return buf, nil
	case config.DecoderWAV:
		return source.LoadWAV(path)
	default:
		return nil, fmt.Errorf("unsupported decoder: %q", cfg.Decoder)
	}
}

// newAnalyzer loads the configuration, decodes path and binds it to a new
// analyzer.
func newAnalyzer(ctx context.Context, path string) (*resonance.Analyzer, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	buf, err := openSource(ctx, cfg, path)
	if err != nil {
		return nil, nil, err
	}

	analyzer, err := resonance.NewAnalyzer(&cfg.Analysis)
	if err != nil {
		return nil, nil, err
	}
	analyzer.BindSource(buf)

	return analyzer, cfg, nil
}
