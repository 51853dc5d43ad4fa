package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
)

var hullCmd = &cobra.Command{
	Use:   "hull [file|-]",
	Short: "Compute the convex hull of a point set",
	Long: `Compute the convex hull of a point set. The hull starts at the point with
the largest y (smallest x on ties) and runs clockwise.

Point files may be plain text ("x y" per line), JSON or YAML; the encoding
is picked from the file extension.

Examples:
  hullrect hull points.txt
  hullrect hull --points "0,0 10,0 10,10 0,10 4,6"
  hullrect hull points.json --steps --format json
  cat points.txt | hullrect hull -`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runHull,
}

func init() {
	rootCmd.AddCommand(hullCmd)
	addInputFlags(hullCmd)
	addOutputFlags(hullCmd)
	hullCmd.Flags().Bool("steps", false, "show the scan stack after every push (Graham scan)")
	hullCmd.Flags().Bool("bounding-box", false, "include the minimum-area bounding rectangle of the hull")
}

func runHull(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	set, source, err := readPointSet(cmd, args)
	if err != nil {
		return err
	}

	pc, err := pipelineConfig(cmd, cfg)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("bounding-box") {
		pc.BoundingBoxes, _ = cmd.Flags().GetBool("bounding-box")
	}
	pl, err := pipeline.NewBuilder().WithConfig(pc).Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	steps, _ := cmd.Flags().GetBool("steps")
	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}

	// Text output streams the stack as the scan runs; structured formats
	// carry the steps inside the report.
	if steps && (format == "" || format == pipeline.FormatText) {
		out := cmd.OutOrStdout()
		if _, err := pl.HullSteps(set.Points, func(step int, stack []geometry.Point) error {
			return writeStep(out, step, stack)
		}); err != nil {
			return fmt.Errorf("hull: %w", err)
		}
		steps = false
	}

	rep, err := pl.Process(cmd.Context(), pipeline.Request{
		Source: source,
		Points: set.Points,
		Steps:  steps,
	})
	if err != nil {
		return err
	}
	return writeReport(cmd, cfg, rep)
}

func writeStep(w io.Writer, step int, stack []geometry.Point) error {
	parts := make([]string, len(stack))
	for i, p := range stack {
		parts[i] = p.String()
	}
	_, err := fmt.Fprintf(w, "step %d: %s\n", step, strings.Join(parts, " "))
	return err
}
