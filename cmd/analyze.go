package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-resonance/resonance"
)

var analyzeCursors []int

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "List the spectral peaks of the window at one or more cursors",
	Long: `Analyze the transform-size window starting at each cursor (in frames)
and list its spectral peaks as refined frequency and amplitude relative to
the loudest bin. Cursors past the end are pulled back so the window fits.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntSliceVar(&analyzeCursors, "cursor", []int{0},
		"analysis cursor in frames, repeatable")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	analyzer, cfg, err := newAnalyzer(ctx, args[0])
	if err != nil {
		return err
	}

	var firstErr error
	results := make([]*resonance.Result, 0, len(analyzeCursors))
	for _, cursor := range analyzeCursors {
		res, err := analyzer.AnalyzeAt(ctx, cursor)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		results = append(results, res)
	}

	if err := writeOutput(cmd.OutOrStdout(), cfg.OutputFormat, results, func(w io.Writer) error {
		return writeResultsTable(w, results)
	}); err != nil {
		return err
	}

	return firstErr
}
