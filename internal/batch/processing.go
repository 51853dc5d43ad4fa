package batch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/pointset"
	"github.com/MeKo-Tech/hullrect/internal/render"
)

// buildRequest turns a point-set file into a pipeline request. An orientation
// stored in the file wins over the batch-wide one.
func buildRequest(path string, set *pointset.Set, orientation *float64) pipeline.Request {
	req := pipeline.Request{
		Source:      path,
		Points:      set.Points,
		Queries:     set.Queries,
		Orientation: orientation,
	}
	if set.Orientation != nil {
		req.Orientation = set.Orientation
	}
	return req
}

// loadRequest reads one point-set file. A failed load still names the file.
func loadRequest(path string, config *Config) (pipeline.Request, error) {
	set, err := pointset.LoadFile(path)
	if err != nil {
		return pipeline.Request{Source: path}, err
	}
	return buildRequest(path, set, config.Orientation), nil
}

// renderOutputPath maps input.txt to <dir>/input.png.
func renderOutputPath(dir, input string) string {
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".png")
}

func renderReport(points []geometry.Point, rep *pipeline.Report, config *Config) error {
	if err := ensureDir(config.RenderDir); err != nil {
		return err
	}
	o := config.RenderOptions
	o.ScreenFrame = config.Pipeline.FlipY
	img, err := render.Render(render.SceneFromReport(points, rep), o)
	if err != nil {
		return err
	}
	return render.Save(img, renderOutputPath(config.RenderDir, rep.Source))
}

// processFilesParallel loads and runs every file through the pipeline's
// worker pool. Without ContinueOnError the first failure cancels the
// remaining files and is returned; with it, failures are recorded on the
// reports.
func processFilesParallel(ctx context.Context, pl *pipeline.Pipeline, files []string, config *Config,
	progress pipeline.ProgressCallback) ([]*pipeline.Report, error) {
	pc := pipeline.ParallelConfig{
		MaxWorkers:       config.Workers,
		ProgressCallback: progress,
		StopOnError:      !config.ContinueOnError,
	}
	if config.RenderDir != "" {
		pc.OnReport = func(_ int, req pipeline.Request, rep *pipeline.Report) {
			if err := renderReport(req.Points, rep, config); err != nil {
				slog.Warn("Render failed", "file", req.Source, "error", err)
			}
		}
	}

	reports, err := pl.ProcessLoaded(ctx, len(files), func(_ context.Context, i int) (pipeline.Request, error) {
		return loadRequest(files[i], config)
	}, pc)
	if reports == nil {
		return nil, err
	}
	if err != nil {
		slog.Debug("Batch finished with failures", "first_error", err)
	}
	return reports, nil
}
