package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

var samplePositions []float64

var sampleCmd = &cobra.Command{
	Use:   "sample [file]",
	Short: "Read samples of the analyzed channel at fractional positions",
	Long: `Look up the sample nearest to each fractional frame position. Positions
round half up and are clamped into the recording.`,
	Args: cobra.ExactArgs(1),
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().Float64SliceVar(&samplePositions, "position", nil,
		"fractional frame position, repeatable")
	sampleCmd.MarkFlagRequired("position")
}

func runSample(cmd *cobra.Command, args []string) error {
	analyzer, cfg, err := newAnalyzer(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	values := make([]float64, len(samplePositions))
	if err := analyzer.SampleVector(samplePositions, values); err != nil {
		return err
	}

	samples := make([]SampleValue, len(values))
	for i, v := range values {
		samples[i] = SampleValue{Position: samplePositions[i], Value: v}
	}

	return writeOutput(cmd.OutOrStdout(), cfg.OutputFormat, samples, func(w io.Writer) error {
		return writeSamplesTable(w, samples)
	})
}
