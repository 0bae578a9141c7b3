package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-resonance/logging"
	"github.com/RyanBlaney/sonido-resonance/resonance/config"
)

const envPrefix = "SONIDO_RESONANCE"

var (
	configFile   string
	logLevel     string
	outputFormat string
	decoderName  string
	fftSize      int
	thresholdDB  float64
	channel      int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sonido-resonance",
	Short: "Resonance extraction from recorded audio",
	Long: `Extract the resonant partials of a recording: the frequencies and
relative amplitudes of the spectral peaks of one analysis window, and the
exponential decay of those partials across a span of the recording.

Commands:
- analyze: spectral peaks of the window at a cursor
- decay:   partial decay rates and T60 between two cursors
- sample:  raw sample lookup at fractional positions`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(cmd); err != nil {
			return err
		}
		return initializeLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/sonido-resonance/resonance.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.LogLevel,
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", defaults.OutputFormat,
		"output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&decoderName, "decoder", defaults.Decoder,
		"input decoder (wav, ffmpeg)")

	rootCmd.PersistentFlags().IntVar(&fftSize, "fft-size", defaults.Analysis.TransformSize,
		"transform size, a power of two")
	rootCmd.PersistentFlags().Float64Var(&thresholdDB, "threshold", defaults.Analysis.ThresholdDB,
		"peak threshold in dB relative to the loudest bin")
	rootCmd.PersistentFlags().IntVar(&channel, "channel", defaults.Analysis.Channel,
		"channel to analyze")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("decoder", rootCmd.PersistentFlags().Lookup("decoder"))
	viper.BindPFlag("analysis.transform_size", rootCmd.PersistentFlags().Lookup("fft-size"))
	viper.BindPFlag("analysis.threshold_db", rootCmd.PersistentFlags().Lookup("threshold"))
	viper.BindPFlag("analysis.channel", rootCmd.PersistentFlags().Lookup("channel"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if configFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sonido-resonance"))
		}
		viper.SetConfigName("resonance")
		viper.SetConfigType("yaml")
	}

	// Environment variable support
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		logging.Debug("Using config file", logging.Fields{
			"file": viper.ConfigFileUsed(),
		})
	}
}

// initializeConfig initializes configuration after flags are parsed
func initializeConfig(cmd *cobra.Command) error {
	return bindFlags(cmd, viper.GetViper())
}

// bindFlags binds the command's local flags to viper and the environment.
// Persistent flags are bound to their config keys in init.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				lastErr = err
			}
		}

		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}

		if err := v.BindEnv(f.Name, envPrefix+"_"+envVarSuffix); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

// initializeLogging routes all log output to stderr so that stdout carries
// only command results.
func initializeLogging() error {
	level, err := logging.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return err
	}

	logger := logging.NewDefaultLoggerWithWriters(os.Stderr, os.Stderr)
	logger.SetLevel(level)
	logging.SetGlobalLogger(logger)
	return nil
}

// loadConfig returns the validated configuration for the current invocation
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(viper.GetViper())
}
