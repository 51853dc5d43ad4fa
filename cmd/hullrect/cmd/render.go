package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/hullrect/internal/config"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/pointset"
	"github.com/MeKo-Tech/hullrect/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Draw the points, hull and inscribed rectangle to an image",
	Long: `Render a point set together with its convex hull, the inscribed rectangle
and any containment queries. The output format is picked from the file
extension: .png, .jpg/.jpeg or .pdf.

Examples:
  hullrect render points.txt --output scene.png
  hullrect render points.json --orientation 1 --output scene.pdf
  hullrect render points.txt --no-rectangle --width 400 --height 300 -o hull.jpg`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addInputFlags(renderCmd)
	renderCmd.Flags().StringP("output", "o", "", "image file to write (.png, .jpg or .pdf)")
	renderCmd.Flags().Float64P("orientation", "t", 0, "slope of the first rectangle edge")
	renderCmd.Flags().Bool("no-rectangle", false, "draw only the points and the hull")
	renderCmd.Flags().String("query", "", `query points to mark, e.g. "5,5 20,5"`)
	renderCmd.Flags().Int("width", 0, "canvas width in pixels (default from config)")
	renderCmd.Flags().Int("height", 0, "canvas height in pixels (default from config)")
	renderCmd.Flags().Bool("grid", true, "draw a coordinate grid")
	renderCmd.Flags().Bool("labels", true, "print area and fill ratio")
	_ = renderCmd.MarkFlagRequired("output")
}

// renderOptions maps the render section of the config plus flag overrides.
func renderOptions(cmd *cobra.Command, cfg *config.Config) (render.Options, error) {
	o, err := cfg.ToRenderOptions()
	if err != nil {
		return render.Options{}, err
	}
	if cmd.Flags().Changed("width") {
		o.Width, _ = cmd.Flags().GetInt("width")
	}
	if cmd.Flags().Changed("height") {
		o.Height, _ = cmd.Flags().GetInt("height")
	}
	if cmd.Flags().Changed("grid") {
		o.Grid, _ = cmd.Flags().GetBool("grid")
	}
	if cmd.Flags().Changed("labels") {
		o.Labels, _ = cmd.Flags().GetBool("labels")
	}
	if cmd.Flags().Changed("flip-y") {
		o.ScreenFrame, _ = cmd.Flags().GetBool("flip-y")
	}
	if err := o.Validate(); err != nil {
		return render.Options{}, fmt.Errorf("invalid render options: %w", err)
	}
	return o, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	outPath, _ := cmd.Flags().GetString("output")
	if _, err := render.FormatFromPath(outPath); err != nil {
		return err
	}
	opts, err := renderOptions(cmd, cfg)
	if err != nil {
		return err
	}

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

	pl, err := buildPipeline(cmd, cfg)
	if err != nil {
		return err
	}
	req := pipeline.Request{Source: source, Points: set.Points, Queries: queries}
	if skip, _ := cmd.Flags().GetBool("no-rectangle"); !skip {
		req.Orientation = pipeline.Orientation(orientation(cmd, set, cfg))
	}

	rep, solveErr := pl.Process(cmd.Context(), req)
	if rep == nil {
		return solveErr
	}
	if solveErr != nil {
		// Draw the hull anyway and report the failed solve afterwards.
		slog.Warn("Rectangle solve failed, rendering hull only", "source", source, "error", solveErr)
	}

	img, err := render.Render(render.SceneFromReport(set.Points, rep), opts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := render.Save(img, outPath); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Image written to %s\n", outPath)

	if solveErr != nil {
		return errors.Join(errors.New("image written without rectangle"), solveErr)
	}
	return nil
}
