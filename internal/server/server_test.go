package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/hullrect/internal/config"
	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/pointset"
	"github.com/MeKo-Tech/hullrect/internal/render"
)

func testConfig() Config {
	ro := render.DefaultOptions()
	ro.Width, ro.Height = 200, 150
	return Config{
		Host:            "127.0.0.1",
		Port:            8080,
		CORSOrigin:      "*",
		MaxPoints:       100,
		MaxBodyMB:       1,
		TimeoutSec:      5,
		ShutdownTimeout: 1,
		PipelineConfig:  pipeline.DefaultConfig(),
		RenderOptions:   ro,
	}
}

// newTestServer builds a server from testConfig after applying mutate.
func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s
}

// pointBody encodes a JSON point-set request body.
func pointBody(t *testing.T, points, queries []geometry.Point, orientation *float64) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(pointset.Set{Points: points, Queries: queries, Orientation: orientation})
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t, nil)
	assert.NotNil(t, s.pipeline)
	assert.Equal(t, int64(1024*1024), s.maxBodyBytes)
	assert.Equal(t, 5*time.Second, s.timeout)
	assert.Nil(t, s.rateLimiter)

	s = newTestServer(t, func(c *Config) {
		c.RateLimit = &RateLimitConfig{RequestsPerMinute: 2}
	})
	assert.NotNil(t, s.rateLimiter)
}

func TestNewServer_ErrorCases(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"max points", func(c *Config) { c.MaxPoints = 0 }, "invalid max points"},
		{"body size", func(c *Config) { c.MaxBodyMB = 0 }, "invalid max body size"},
		{"timeout", func(c *Config) { c.TimeoutSec = 0 }, "invalid timeout"},
		{"render", func(c *Config) { c.RenderOptions.Width = 0 }, "invalid render options"},
		{"pipeline", func(c *Config) { c.PipelineConfig.Algorithm = "quickhull" }, "failed to build pipeline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := NewServer(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfigFromSettings(t *testing.T) {
	settings := config.DefaultConfig()
	settings.Server.Port = 9191
	settings.Hull.FlipY = true
	settings.Server.RateLimit.Enabled = true
	settings.Server.RateLimit.MaxDataPerDayMB = 2

	cfg, err := ConfigFromSettings(&settings)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9191", cfg.Address())
	assert.True(t, cfg.PipelineConfig.FlipY)
	assert.True(t, cfg.RenderOptions.ScreenFrame)
	require.NotNil(t, cfg.RateLimit)
	assert.Equal(t, int64(2*1024*1024), cfg.RateLimit.MaxDataPerDay)
	assert.Equal(t, settings.Server.RateLimit.RequestsPerMinute, cfg.RateLimit.RequestsPerMinute)

	settings.Server.RateLimit.Enabled = false
	cfg, err = ConfigFromSettings(&settings)
	require.NoError(t, err)
	assert.Nil(t, cfg.RateLimit)

	_, err = NewServer(cfg)
	assert.NoError(t, err)
}

func TestServer_SetupRoutes(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil).Handler())
	defer ts.Close()

	for _, path := range []string{"/health", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, err := http.Get(ts.URL + "/hull")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_Run(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	s := newTestServer(t, func(c *Config) {
		c.RateLimit = &RateLimitConfig{RequestsPerMinute: 100}
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, addr, time.Second) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
