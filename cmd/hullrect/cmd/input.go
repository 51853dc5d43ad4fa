package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/hullrect/internal/config"
	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/pointset"
)

// addInputFlags registers the flags shared by commands that read one point set.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("points", "", `inline points instead of a file, e.g. "0,0 10,0 10,10 0,10"`)
	cmd.Flags().String("input-format", "", "encoding of stdin input: text, json or yaml (default text)")
	cmd.Flags().String("algorithm", "", "hull algorithm: graham or monotone (default from config)")
	cmd.Flags().Bool("flip-y", false, "treat input as screen coordinates (y grows downwards)")
}

// addOutputFlags registers --format and --output.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", "output format: text, json, yaml or csv (default from config)")
	cmd.Flags().StringP("output", "o", "", "write results to a file instead of stdout")
}

// readPointSet loads the command's point set from --points, a file argument
// or stdin ("-").
func readPointSet(cmd *cobra.Command, args []string) (*pointset.Set, string, error) {
	if cmd.Flags().Changed("points") {
		if len(args) > 0 {
			return nil, "", errors.New("use either --points or a file argument, not both")
		}
		raw, _ := cmd.Flags().GetString("points")
		pts, err := pointset.ParsePoints(raw)
		if err != nil {
			return nil, "", fmt.Errorf("invalid --points: %w", err)
		}
		if len(pts) == 0 {
			return nil, "", pointset.ErrEmpty
		}
		return &pointset.Set{Points: pts}, "inline", nil
	}

	if len(args) == 0 {
		return nil, "", errors.New("no points given: pass a file, '-' for stdin, or --points")
	}
	if args[0] == "-" {
		format, _ := cmd.Flags().GetString("input-format")
		set, err := pointset.Parse(cmd.InOrStdin(), format)
		if err != nil {
			return nil, "", fmt.Errorf("stdin: %w", err)
		}
		return set, "stdin", nil
	}

	if _, err := os.Stat(args[0]); err != nil {
		return nil, "", fmt.Errorf("cannot read point file: %w", err)
	}
	set, err := pointset.LoadFile(args[0])
	if err != nil {
		return nil, "", err
	}
	return set, args[0], nil
}

// pipelineConfig maps the loaded configuration to pipeline.Config, applying
// the --algorithm and --flip-y overrides.
func pipelineConfig(cmd *cobra.Command, cfg *config.Config) (pipeline.Config, error) {
	pc := cfg.ToPipelineConfig()
	if cmd.Flags().Changed("algorithm") {
		name, _ := cmd.Flags().GetString("algorithm")
		alg, err := geometry.ParseAlgorithm(name)
		if err != nil {
			return pipeline.Config{}, err
		}
		pc.Algorithm = alg
	}
	if cmd.Flags().Changed("flip-y") {
		pc.FlipY, _ = cmd.Flags().GetBool("flip-y")
	}
	return pc, nil
}

func buildPipeline(cmd *cobra.Command, cfg *config.Config) (*pipeline.Pipeline, error) {
	pc, err := pipelineConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}
	pl, err := pipeline.NewBuilder().WithConfig(pc).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return pl, nil
}

// orientation resolves the rectangle slope: --orientation, then the point
// file, then solver.orientation from the config.
func orientation(cmd *cobra.Command, set *pointset.Set, cfg *config.Config) float64 {
	if cmd.Flags().Changed("orientation") {
		t, _ := cmd.Flags().GetFloat64("orientation")
		return t
	}
	if set != nil && set.Orientation != nil {
		return *set.Orientation
	}
	return cfg.Solver.Orientation
}

// writeReport formats rep and writes it to --output or the command's stdout.
func writeReport(cmd *cobra.Command, cfg *config.Config, rep *pipeline.Report) error {
	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	out, err := pipeline.FormatReports([]*pipeline.Report{rep}, format)
	if err != nil {
		return err
	}

	file := cfg.Output.File
	if cmd.Flags().Changed("output") {
		file, _ = cmd.Flags().GetString("output")
	}
	if file == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(file, []byte(out+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Results written to %s\n", file)
	return nil
}
