package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/hullrect/internal/benchmark"
	"github.com/MeKo-Tech/hullrect/internal/geometry"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time hull construction and rectangle solving on generated inputs",
	Long: `Run a size ladder over synthetic point sets: for every generator the
point count starts at --start and grows by --factor for --steps rungs. Each
rung reports hull size, hull and solve time, fill ratio, Newton steps and
allocated memory. A failed rung is reported and the ladder continues.

Generators: random (uniform in a square), zigzag (alternating rows),
regular (points on a circle).

Examples:
  hullrect bench
  hullrect bench --generators random --start 10 --steps 4
  hullrect bench --orientation 0.5 --format json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	def := benchmark.DefaultLadderConfig()
	benchCmd.Flags().StringSlice("generators", def.Generators, "point generators to run")
	benchCmd.Flags().Int("start", def.Start, "point count of the first rung")
	benchCmd.Flags().Int("factor", def.Factor, "growth factor between rungs")
	benchCmd.Flags().Int("steps", def.Steps, "number of rungs per generator")
	benchCmd.Flags().Uint64("seed", def.Seed, "random seed")
	benchCmd.Flags().Float64P("orientation", "t", 0, "rectangle slope (default from config)")
	benchCmd.Flags().String("algorithm", "", "hull algorithm: graham or monotone (default from config)")
	benchCmd.Flags().StringP("format", "f", "text", "output format: text or json")
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	lc := benchmark.DefaultLadderConfig()
	if cmd.Flags().Changed("generators") {
		lc.Generators, _ = cmd.Flags().GetStringSlice("generators")
	}
	lc.Start, _ = cmd.Flags().GetInt("start")
	lc.Factor, _ = cmd.Flags().GetInt("factor")
	lc.Steps, _ = cmd.Flags().GetInt("steps")
	lc.Seed, _ = cmd.Flags().GetUint64("seed")
	lc.Solver = cfg.ToSolverConfig()
	lc.Orientation = cfg.Solver.Orientation
	if cmd.Flags().Changed("orientation") {
		lc.Orientation, _ = cmd.Flags().GetFloat64("orientation")
	}
	lc.Algorithm = geometry.Algorithm(cfg.Hull.Algorithm)
	if cmd.Flags().Changed("algorithm") {
		name, _ := cmd.Flags().GetString("algorithm")
		lc.Algorithm = geometry.Algorithm(name)
	}
	if err := lc.Validate(); err != nil {
		return fmt.Errorf("invalid benchmark settings: %w", err)
	}

	format, _ := cmd.Flags().GetString("format")
	switch strings.ToLower(format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}

	results, err := benchmark.RunLadder(cmd.Context(), lc, func(r benchmark.LadderResult) {
		slog.Info("Benchmark rung", "generator", r.Generator, "points", r.Points, "hull_vertices", r.HullVertices)
	})
	if err != nil {
		return err
	}

	if strings.ToLower(format) == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return benchmark.WriteLadder(cmd.OutOrStdout(), results)
}
