package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/testutil"
)

func writeBatchDir(t *testing.T) string {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	testutil.WritePointFile(t, dir, "square.txt", testutil.Square())
	testutil.WritePointFile(t, dir, "triangle.json", testutil.Triangle())
	testutil.WritePointFile(t, dir, "nested/diamond.yaml", testutil.Diamond())
	testutil.WriteFile(t, dir, "README.md", "ignored")
	return dir
}

func TestProcessBatch(t *testing.T) {
	dir := writeBatchDir(t)
	cfg := DefaultConfig()
	cfg.Orientation = pipeline.Orientation(0)

	res, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, res.Files, 2, "non-recursive skips nested/")
	assert.Equal(t, 4, res.WorkerCount)
	assert.Positive(t, res.Duration)

	for _, rep := range res.Reports {
		require.NotNil(t, rep.Rectangle, rep.Source)
	}
	stats := res.Stats()
	assert.Equal(t, 2, stats.Succeeded)
	assert.Zero(t, stats.Failed)
}

func TestProcessBatch_Recursive(t *testing.T) {
	dir := writeBatchDir(t)
	cfg := DefaultConfig()
	cfg.Recursive = true

	res, err := ProcessBatch(context.Background(), []string{dir}, cfg)
	require.NoError(t, err)
	assert.Len(t, res.Files, 3)
	for _, rep := range res.Reports {
		assert.Nil(t, rep.Rectangle, "no orientation means hull only")
	}
}

func TestProcessBatch_Errors(t *testing.T) {
	_, err := ProcessBatch(context.Background(), []string{t.TempDir()}, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no point files found")

	cfg := DefaultConfig()
	cfg.Workers = -1
	_, err = ProcessBatch(context.Background(), []string{t.TempDir()}, cfg)
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.Pipeline.Algorithm = "quickhull"
	dir := writeBatchDir(t)
	_, err = ProcessBatch(context.Background(), []string{dir}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build pipeline")
}

func TestResultSaveResults(t *testing.T) {
	dir := writeBatchDir(t)
	res, err := ProcessBatch(context.Background(), []string{dir}, DefaultConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.SaveResults(&buf, pipeline.FormatText, "", false))
	assert.Contains(t, buf.String(), "square.txt")
	assert.Contains(t, buf.String(), "Hull (graham)")

	out := filepath.Join(t.TempDir(), "out.csv")
	buf.Reset()
	require.NoError(t, res.SaveResults(&buf, pipeline.FormatCSV, out, false))
	assert.Contains(t, buf.String(), "Results written to")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "source,kind,index,x,y,inside"))

	buf.Reset()
	require.NoError(t, res.SaveResults(&buf, pipeline.FormatJSON, out, true))
	assert.Empty(t, buf.String())

	assert.Error(t, res.SaveResults(&buf, "xml", "", false))
}

func TestResultPrintStats(t *testing.T) {
	res := &Result{
		Reports:     []*pipeline.Report{{Source: "a"}, {Source: "b", Error: "boom"}},
		Files:       []string{"a", "b"},
		Duration:    time.Second,
		WorkerCount: 2,
	}
	var buf bytes.Buffer
	res.PrintStats(&buf, false)
	out := buf.String()
	assert.Contains(t, out, "Total files: 2")
	assert.Contains(t, out, "Processed: 1")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Throughput: 1.0 files/sec")

	buf.Reset()
	res.PrintStats(&buf, true)
	assert.Empty(t, buf.String())
}
