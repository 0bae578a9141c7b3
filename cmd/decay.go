package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

var (
	decayFrom int
	decayTo   int
)

var decayCmd = &cobra.Command{
	Use:   "decay [file]",
	Short: "Fit the decay of every partial between two cursors",
	Long: `Analyze evenly spaced windows between --from and --to (in frames),
follow the partials of the first window through the others by closest
frequency, and fit an exponential decay to each. Reports the decay rate
per second and the T60 of every decaying partial.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecay,
}

func init() {
	rootCmd.AddCommand(decayCmd)

	decayCmd.Flags().IntVar(&decayFrom, "from", 0, "first cursor in frames")
	decayCmd.Flags().IntVar(&decayTo, "to", 0, "last cursor in frames, above --from")
	decayCmd.MarkFlagRequired("to")
}

func runDecay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	analyzer, cfg, err := newAnalyzer(ctx, args[0])
	if err != nil {
		return err
	}

	res, err := analyzer.AnalyzeRange(ctx, decayFrom, decayTo)
	if res == nil {
		return err
	}

	if werr := writeOutput(cmd.OutOrStdout(), cfg.OutputFormat, res, func(w io.Writer) error {
		return writeRangeTable(w, res)
	}); werr != nil {
		return werr
	}

	return err
}
