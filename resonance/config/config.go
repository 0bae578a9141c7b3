// Package config holds the analysis configuration shared by the analyzer
// and the command line host.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-resonance/algorithms/common"
	"github.com/RyanBlaney/sonido-resonance/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-resonance/algorithms/spectral"
	"github.com/RyanBlaney/sonido-resonance/algorithms/temporal"
	"github.com/RyanBlaney/sonido-resonance/algorithms/windowing"
	"github.com/RyanBlaney/sonido-resonance/transcode"
)

// Decoder names accepted by Config.Decoder
const (
	DecoderWAV    = "wav"
	DecoderFFmpeg = "ffmpeg"
)

// Output formats accepted by Config.OutputFormat
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// AnalysisConfig configures a resonance analyzer
type AnalysisConfig struct {
	TransformSize      int     `json:"transform_size" yaml:"transform_size" mapstructure:"transform_size"` // power of two
	ThresholdDB        float64 `json:"threshold_db" yaml:"threshold_db" mapstructure:"threshold_db"`       // relative to the frame maximum, <= 0
	Channel            int     `json:"channel" yaml:"channel" mapstructure:"channel"`
	SampleRate         float64 `json:"sample_rate" yaml:"sample_rate" mapstructure:"sample_rate"` // replaced by the bound source's rate
	Window             string  `json:"window" yaml:"window" mapstructure:"window"`
	Backend            string  `json:"backend" yaml:"backend" mapstructure:"backend"` // "plan", "direct"
	Refiner            string  `json:"refiner" yaml:"refiner" mapstructure:"refiner"` // "log_parabolic", "parabolic"
	MatchToleranceBins float64 `json:"match_tolerance_bins" yaml:"match_tolerance_bins" mapstructure:"match_tolerance_bins"`
	DecayWeighting     string  `json:"decay_weighting" yaml:"decay_weighting" mapstructure:"decay_weighting"` // "amplitude", "uniform"
	AnalysisPoints     int     `json:"analysis_points" yaml:"analysis_points" mapstructure:"analysis_points"`
	RemoveDC           bool    `json:"remove_dc" yaml:"remove_dc" mapstructure:"remove_dc"` // subtract the frame mean before windowing
}

// DefaultAnalysisConfig returns the default analysis configuration
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		TransformSize:      1024,
		ThresholdDB:        harmonic.DefaultThresholdDB,
		Channel:            0,
		SampleRate:         44100,
		Window:             "hann",
		Backend:            spectral.BackendPlan,
		Refiner:            harmonic.RefinerLogParabolic,
		MatchToleranceBins: 1.0,
		DecayWeighting:     temporal.WeightingAmplitude,
		AnalysisPoints:     5,
		RemoveDC:           false,
	}
}

// Validate checks every field and returns the first problem found
func (c *AnalysisConfig) Validate() error {
	if err := common.ValidateTransformSize(c.TransformSize); err != nil {
		return err
	}

	if math.IsNaN(c.ThresholdDB) || c.ThresholdDB > 0 {
		return fmt.Errorf("threshold must be <= 0 dB, got %v", c.ThresholdDB)
	}

	if c.Channel < 0 {
		return fmt.Errorf("channel must not be negative: %d", c.Channel)
	}

	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("sample rate must be positive, got %v", c.SampleRate)
	}

	if _, err := windowing.New(c.Window, common.MinTransformSize); err != nil {
		return err
	}

	if _, err := spectral.NewTransform(c.Backend, common.MinTransformSize); err != nil {
		return err
	}

	if _, err := harmonic.NewRefiner(c.Refiner); err != nil {
		return err
	}

	if !(c.MatchToleranceBins > 0) || math.IsInf(c.MatchToleranceBins, 0) {
		return fmt.Errorf("match tolerance must be positive, got %v bins", c.MatchToleranceBins)
	}

	if _, err := temporal.NewDecayFitter(c.DecayWeighting); err != nil {
		return err
	}

	if c.AnalysisPoints < 2 || c.AnalysisPoints > 64 {
		return fmt.Errorf("analysis points must be between 2 and 64: %d", c.AnalysisPoints)
	}

	return nil
}

// Config is the full configuration of the command line host
type Config struct {
	LogLevel     string                  `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	OutputFormat string                  `json:"output_format" yaml:"output_format" mapstructure:"output_format"`
	Decoder      string                  `json:"decoder" yaml:"decoder" mapstructure:"decoder"` // "wav", "ffmpeg"
	Analysis     AnalysisConfig          `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	Transcode    transcode.DecoderConfig `json:"transcode" yaml:"transcode" mapstructure:"transcode"`
}

// DefaultConfig returns the default host configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		OutputFormat: OutputTable,
		Decoder:      DecoderWAV,
		Analysis:     *DefaultAnalysisConfig(),
		Transcode:    *transcode.DefaultDecoderConfig(),
	}
}

// SetDefaults registers every default with v so that environment variables
// and config files can override individual keys.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("decoder", d.Decoder)

	v.SetDefault("analysis.transform_size", d.Analysis.TransformSize)
	v.SetDefault("analysis.threshold_db", d.Analysis.ThresholdDB)
	v.SetDefault("analysis.channel", d.Analysis.Channel)
	v.SetDefault("analysis.sample_rate", d.Analysis.SampleRate)
	v.SetDefault("analysis.window", d.Analysis.Window)
	v.SetDefault("analysis.backend", d.Analysis.Backend)
	v.SetDefault("analysis.refiner", d.Analysis.Refiner)
	v.SetDefault("analysis.match_tolerance_bins", d.Analysis.MatchToleranceBins)
	v.SetDefault("analysis.decay_weighting", d.Analysis.DecayWeighting)
	v.SetDefault("analysis.analysis_points", d.Analysis.AnalysisPoints)
	v.SetDefault("analysis.remove_dc", d.Analysis.RemoveDC)

	v.SetDefault("transcode.target_sample_rate", d.Transcode.TargetSampleRate)
	v.SetDefault("transcode.target_channels", d.Transcode.TargetChannels)
	v.SetDefault("transcode.max_duration", d.Transcode.MaxDuration)
	v.SetDefault("transcode.resample_quality", d.Transcode.ResampleQuality)
	v.SetDefault("transcode.ffmpeg_path", d.Transcode.FFmpegPath)
	v.SetDefault("transcode.ffprobe_path", d.Transcode.FFprobePath)
	v.SetDefault("transcode.timeout", d.Transcode.Timeout)
}

// LoadConfig unmarshals v on top of the defaults and validates the result
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ValidateConfig validates the host configuration
func ValidateConfig(cfg *Config) error {
	switch strings.ToLower(cfg.OutputFormat) {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("unsupported output format: %q", cfg.OutputFormat)
	}

	switch strings.ToLower(cfg.Decoder) {
	case DecoderWAV, DecoderFFmpeg:
	default:
		return fmt.Errorf("unsupported decoder: %q", cfg.Decoder)
	}

	if err := cfg.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if err := transcode.NewDecoder(&cfg.Transcode).ValidateConfig(); err != nil {
		return fmt.Errorf("transcode: %w", err)
	}

	return nil
}
