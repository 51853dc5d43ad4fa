package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/pointset"
)

var containsCmd = &cobra.Command{
	Use:   "contains [file|-]",
	Short: "Test whether query points lie inside the convex hull",
	Long: `Build the convex hull of a point set and test query points against it.
Points on the boundary count as inside.

Queries come from --query and from the "queries" list of a JSON or YAML
point file.

Examples:
  hullrect contains points.txt --query "5,5 20,5"
  hullrect contains set.yaml --format json`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runContains,
}

func init() {
	rootCmd.AddCommand(containsCmd)
	addInputFlags(containsCmd)
	addOutputFlags(containsCmd)
	containsCmd.Flags().StringP("query", "q", "", `query points, e.g. "5,5 20,5"`)
}

func runContains(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	set, source, err := readPointSet(cmd, args)
	if err != nil {
		return err
	}

	queries := set.Queries
	if raw, _ := cmd.Flags().GetString("query"); raw != "" {
		extra, err := pointset.ParsePoints(raw)
		if err != nil {
			return fmt.Errorf("invalid --query: %w", err)
		}
		queries = append(queries, extra...)
	}
	if len(queries) == 0 {
		return errors.New("no query points given: use --query or a queries list in the point file")
	}

	pl, err := buildPipeline(cmd, cfg)
	if err != nil {
		return err
	}
	rep, err := pl.Process(cmd.Context(), pipeline.Request{
		Source:  source,
		Points:  set.Points,
		Queries: queries,
	})
	if err != nil {
		return err
	}
	return writeReport(cmd, cfg, rep)
}
