package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-resonance/algorithms/common"
	"github.com/RyanBlaney/sonido-resonance/resonance"
	"github.com/RyanBlaney/sonido-resonance/resonance/config"
)

// SampleValue is one row of the sample command's output
type SampleValue struct {
	Position float64 `json:"position"`
	Value    float64 `json:"value"`
}

// writeOutput writes v in the requested format. table renders the table
// format.
func writeOutput(w io.Writer, format string, v any, table func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML:
		return writeYAML(w, v)
	case config.OutputTable, "":
		return table(w)
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}

// writeYAML goes through JSON first so that YAML keys follow the json tags
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("failed to re-read result: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

func writeResultsTable(w io.Writer, results []*resonance.Result) error {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := writeResultTable(w, res); err != nil {
			return err
		}
	}
	return nil
}

func writeResultTable(w io.Writer, res *resonance.Result) error {
	fmt.Fprintf(w, "Cursor %d (start %d, channel %d), N=%d, %.0f Hz, bin width %.3f Hz\n",
		res.Cursor, res.Start, res.Channel, res.TransformSize, res.SampleRate, res.BinWidth)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFREQUENCY (Hz)\tAMPLITUDE\tLEVEL (dB)\tBIN\tREFINED BIN")
	for i, p := range res.Peaks {
		fmt.Fprintf(tw, "%d\t%.3f\t%.4f\t%.1f\t%d\t%.3f\n",
			i, p.Frequency, p.Amplitude, common.AmplitudeToDB(p.Amplitude, 1), p.BinIndex, p.RefinedBin)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	writeDiagnostics(w, res.Diagnostics)
	return nil
}

func writeRangeTable(w io.Writer, res *resonance.RangeResult) error {
	fmt.Fprintf(w, "Range %d..%d, step %d frames (%.4f s), %d points\n",
		res.From, res.To, res.Step, res.SecondsPerPoint, len(res.Points))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFREQUENCY (Hz)\tAMPLITUDE\tOBSERVED\tDECAY (1/s)\tT60 (s)\tR²")
	for _, p := range res.Partials {
		decay, t60, r2 := "-", "-", "-"
		if p.Fit != nil {
			decay = fmt.Sprintf("%.3f", p.DecayPerSecond)
			r2 = fmt.Sprintf("%.4f", p.Fit.RSquared)
			if p.T60 > 0 {
				t60 = fmt.Sprintf("%.3f", p.T60)
			}
		}
		fmt.Fprintf(tw, "%d\t%.3f\t%.4f\t%d/%d\t%s\t%s\t%s\n",
			p.ID, p.Frequency, p.Amplitude, len(p.Observations), len(res.Points), decay, t60, r2)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	writeDiagnostics(w, res.Diagnostics)
	return nil
}

func writeSamplesTable(w io.Writer, samples []SampleValue) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POSITION\tVALUE")
	for _, s := range samples {
		fmt.Fprintf(tw, "%g\t%.6f\n", s.Position, s.Value)
	}
	return tw.Flush()
}

func writeDiagnostics(w io.Writer, diagnostics []resonance.Diagnostic) {
	for _, d := range diagnostics {
		keys := make([]string, 0, len(d.Fields))
		for k := range d.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var fields strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&fields, " %s=%v", k, d.Fields[k])
		}
		fmt.Fprintf(w, "! %s: %s%s\n", d.Code, d.Message, fields.String())
	}
}
