package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/hullrect/internal/batch"
	"github.com/MeKo-Tech/hullrect/internal/config"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
)

// batchCmd processes many point-set files in parallel.
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Process many point-set files in parallel",
	Long: `Compute the hull (and, with --orientation or a per-file orientation, the
inscribed rectangle) for many point-set files using a pool of workers.

Supported files: .txt, .json, .yaml, .yml

Examples:
  hullrect batch data/*.txt
  hullrect batch data/ --recursive --workers 8
  hullrect batch data/ --orientation 0 --format json --output results.json
  hullrect batch data/ --render-dir renders/ --stats`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

// configToBatchConfig maps centralized configuration to batch.Config.
// Flags that were set explicitly override config file values.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) (*batch.Config, error) {
	bc := batch.DefaultConfig()

	pc, err := pipelineConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}
	bc.Pipeline = pc

	if cmd.Flags().Changed("orientation") {
		t, _ := cmd.Flags().GetFloat64("orientation")
		bc.Orientation = pipeline.Orientation(t)
	}

	bc.Format = cfg.Output.Format
	if cmd.Flags().Changed("format") {
		bc.Format, _ = cmd.Flags().GetString("format")
	}

	bc.OutputFile = cfg.Output.File
	if cmd.Flags().Changed("output") {
		bc.OutputFile, _ = cmd.Flags().GetString("output")
	}

	bc.RenderDir = cfg.Batch.RenderDir
	if cmd.Flags().Changed("render-dir") {
		bc.RenderDir, _ = cmd.Flags().GetString("render-dir")
	}
	if bc.RenderDir != "" {
		ro, err := cfg.ToRenderOptions()
		if err != nil {
			return nil, err
		}
		bc.RenderOptions = ro
	}

	// Parallel processing settings
	bc.Workers = cfg.Batch.Workers
	if cmd.Flags().Changed("workers") {
		bc.Workers, _ = cmd.Flags().GetInt("workers")
	}

	bc.ContinueOnError = cfg.Batch.ContinueOnError
	if cmd.Flags().Changed("continue-on-error") {
		bc.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}

	// File discovery settings
	bc.Recursive = cfg.Batch.Recursive
	if cmd.Flags().Changed("recursive") {
		bc.Recursive, _ = cmd.Flags().GetBool("recursive")
	}
	if len(cfg.Batch.Include) > 0 {
		bc.IncludePatterns = cfg.Batch.Include
	}
	if cmd.Flags().Changed("include") {
		bc.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	}
	bc.ExcludePatterns = cfg.Batch.Exclude
	if cmd.Flags().Changed("exclude") {
		bc.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	}

	// Progress settings are CLI-only
	bc.ShowProgress, _ = cmd.Flags().GetBool("progress")
	bc.Quiet, _ = cmd.Flags().GetBool("quiet")
	bc.ShowStats, _ = cmd.Flags().GetBool("stats")
	bc.ProgressInterval, _ = cmd.Flags().GetDuration("progress-interval")

	return bc, nil
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	bc, err := configToBatchConfig(cfg, cmd)
	if err != nil {
		return err
	}

	result, err := batch.ProcessBatch(cmd.Context(), args, bc)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	if err := result.SaveResults(cmd.OutOrStdout(), bc.Format, bc.OutputFile, bc.Quiet); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	if bc.ShowStats {
		result.PrintStats(cmd.ErrOrStderr(), bc.Quiet)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Geometry flags
	batchCmd.Flags().String("algorithm", "", "hull algorithm: graham or monotone (default from config)")
	batchCmd.Flags().Bool("flip-y", false, "treat input as screen coordinates (y grows downwards)")
	batchCmd.Flags().Float64P("orientation", "t", 0, "solve rectangles with this slope for files without their own orientation")

	// Output flags
	batchCmd.Flags().StringP("format", "f", "", "output format: text, json, yaml or csv (default from config)")
	batchCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	batchCmd.Flags().String("render-dir", "", "directory to write one PNG per file")

	// Parallel processing flags
	batchCmd.Flags().IntP("workers", "w", 0, fmt.Sprintf("number of parallel workers (default from config, %d CPUs available)", runtime.NumCPU()))
	batchCmd.Flags().Bool("continue-on-error", false, "keep going when a file fails")

	// File discovery flags
	batchCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	batchCmd.Flags().StringSlice("include", nil, "file patterns to include (default from config)")
	batchCmd.Flags().StringSlice("exclude", nil, "file patterns to exclude")

	// Progress and monitoring flags
	batchCmd.Flags().Bool("progress", false, "show progress bar")
	batchCmd.Flags().Bool("quiet", false, "suppress progress output")
	batchCmd.Flags().Bool("stats", false, "show processing statistics")
	batchCmd.Flags().Duration("progress-interval", 100*time.Millisecond, "progress update interval")
}
