package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ParallelConfig holds configuration for parallel processing.
type ParallelConfig struct {
	MaxWorkers       int                       // Number of parallel workers (0 = runtime.NumCPU())
	ProgressCallback ProgressCallback          // Optional progress reporting
	ErrorHandler     func(int, Request, error) // Optional per-request error handler
	StopOnError      bool                      // First failure cancels the remaining requests

	// OnReport runs in the worker after every request that produced a
	// report, including reports of a failed rectangle solve.
	OnReport func(index int, req Request, rep *Report)
}

// DefaultParallelConfig returns sensible defaults for parallel processing.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		MaxWorkers: runtime.NumCPU(),
	}
}

// Loader produces request index on demand. A failed load may still name the
// request's Source so the failure can be reported against it.
type Loader func(ctx context.Context, index int) (Request, error)

// ProcessParallel processes requests with a worker pool using the pipeline's
// parallel configuration. Reports come back in input order; a failed request
// yields a report carrying its source and error text. The first failure is
// returned alongside the reports.
func (p *Pipeline) ProcessParallel(ctx context.Context, reqs []Request) ([]*Report, error) {
	return p.ProcessParallelWith(ctx, reqs, p.cfg.Parallel)
}

// ProcessParallelWith is ProcessParallel with an explicit configuration.
func (p *Pipeline) ProcessParallelWith(ctx context.Context, reqs []Request, config ParallelConfig) ([]*Report, error) {
	return p.ProcessLoaded(ctx, len(reqs), func(_ context.Context, i int) (Request, error) {
		return reqs[i], nil
	}, config)
}

// ProcessLoaded runs n requests produced by load on a bounded errgroup.
// Loading happens inside the workers, so slow sources such as files are
// read concurrently too. With StopOnError the first failure cancels the rest
// and is returned without reports; a cancelled ctx behaves the same way.
func (p *Pipeline) ProcessLoaded(ctx context.Context, n int, load Loader, config ParallelConfig) ([]*Report, error) {
	if n == 0 {
		return nil, errors.New("no point sets provided")
	}
	if p == nil || p.Solver == nil {
		return nil, errors.New("pipeline not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}

	if config.ProgressCallback != nil {
		config.ProgressCallback.OnStart(n)
		defer config.ProgressCallback.OnComplete()
	}

	reqs := make([]Request, n)
	reports := make([]*Report, n)
	errs := make([]error, n)
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(config.MaxWorkers, n))
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reqs[i], reports[i], errs[i] = p.processOne(gctx, i, load, config.OnReport)
			if config.ProgressCallback != nil {
				if errs[i] != nil {
					config.ProgressCallback.OnError(i, errs[i])
				}
				config.ProgressCallback.OnProgress(int(processed.Add(1)), n)
			}
			if errs[i] != nil && config.StopOnError {
				return errs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var firstErr error
	for i, err := range errs {
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		if config.ErrorHandler != nil {
			config.ErrorHandler(i, reqs[i], err)
		}
		if reports[i] == nil {
			reports[i] = &Report{Source: reqs[i].Source}
		}
		reports[i].Error = err.Error()
	}
	return reports, firstErr
}

func (p *Pipeline) processOne(ctx context.Context, i int, load Loader, onReport func(int, Request, *Report)) (Request, *Report, error) {
	req, err := load(ctx, i)
	if err != nil {
		return req, nil, requestError(i, req, err)
	}
	rep, err := p.Process(ctx, req)
	if rep != nil && onReport != nil {
		onReport(i, req, rep)
	}
	if err != nil {
		return req, rep, requestError(i, req, err)
	}
	return req, rep, nil
}

// requestError names the failed request by source, or by index without one.
func requestError(i int, req Request, err error) error {
	if req.Source != "" {
		return fmt.Errorf("%s: %w", req.Source, err)
	}
	return fmt.Errorf("point set %d: %w", i, err)
}

// ParallelStats summarizes a parallel run.
type ParallelStats struct {
	Total            int           `json:"total" yaml:"total"`
	Succeeded        int           `json:"succeeded" yaml:"succeeded"`
	Failed           int           `json:"failed" yaml:"failed"`
	WorkerCount      int           `json:"worker_count" yaml:"worker_count"`
	TotalDuration    time.Duration `json:"total_duration_ns" yaml:"total_duration_ns"`
	AveragePerSet    time.Duration `json:"average_per_set_ns" yaml:"average_per_set_ns"`
	ThroughputPerSec float64       `json:"throughput_per_sec" yaml:"throughput_per_sec"`
}

// CalculateParallelStats derives throughput figures from a finished run.
func CalculateParallelStats(reports []*Report, duration time.Duration, workerCount int) ParallelStats {
	stats := ParallelStats{Total: len(reports), WorkerCount: workerCount, TotalDuration: duration}
	for _, rep := range reports {
		if rep != nil && rep.Error == "" {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	if stats.Succeeded > 0 && duration > 0 {
		stats.AveragePerSet = duration / time.Duration(stats.Succeeded)
		stats.ThroughputPerSec = float64(stats.Succeeded) / duration.Seconds()
	}
	return stats
}
