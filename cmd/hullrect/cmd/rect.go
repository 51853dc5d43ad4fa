package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/hullrect/internal/pipeline"
)

var rectCmd = &cobra.Command{
	Use:     "rect [file|-]",
	Aliases: []string{"rectangle"},
	Short:   "Find the largest inscribed rectangle with a given orientation",
	Long: `Find the maximum-area rectangle inside the convex hull of a point set.
The first rectangle edge has slope t (--orientation); the second edge is
perpendicular to it. t = 0 gives an axis-aligned rectangle.

The orientation is taken from --orientation, then from the point file,
then from solver.orientation in the configuration.

Examples:
  hullrect rect points.txt
  hullrect rect points.txt --orientation 0.5 --format json
  hullrect rect --points "0,0 10,0 10,10 0,10"`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runRect,
}

func init() {
	rootCmd.AddCommand(rectCmd)
	addInputFlags(rectCmd)
	addOutputFlags(rectCmd)
	rectCmd.Flags().Float64P("orientation", "t", 0, "slope of the first rectangle edge")
	rectCmd.Flags().Int("timeout-ms", 0, "wall-clock budget for the solver in milliseconds (0 = unbounded)")
}

func runRect(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	set, source, err := readPointSet(cmd, args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("timeout-ms") {
		cfg.Solver.TimeoutMS, _ = cmd.Flags().GetInt("timeout-ms")
	}

	pl, err := buildPipeline(cmd, cfg)
	if err != nil {
		return err
	}
	rep, err := pl.Process(cmd.Context(), pipeline.Request{
		Source:      source,
		Points:      set.Points,
		Queries:     set.Queries,
		Orientation: pipeline.Orientation(orientation(cmd, set, cfg)),
	})
	if rep != nil {
		// A failed solve still has a hull worth printing.
		if werr := writeReport(cmd, cfg, rep); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}
