package support

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastStdout   string
	LastStderr   string
	LastOutput   string // stdout followed by stderr
	LastError    error
	LastExitCode int
	LastDuration time.Duration

	// Test environment
	TempDir     string
	originalDir string
	originalEnv map[string]*string

	// Server management
	HTTPServer *httptest.Server

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string
	LastWSMessages     []map[string]interface{}
}

// NewTestContext creates a scenario context working inside a fresh temporary
// directory with HOME pointed at it, so no user configuration leaks in.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "hullrect-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	ctx := &TestContext{
		TempDir:     tempDir,
		originalDir: wd,
		originalEnv: map[string]*string{},
	}
	if err := os.Chdir(tempDir); err != nil {
		return nil, fmt.Errorf("failed to enter temp directory: %w", err)
	}
	ctx.setEnv("HOME", tempDir)
	ctx.setEnv("XDG_CONFIG_HOME", filepath.Join(tempDir, ".config"))
	return ctx, nil
}

// setEnv sets an environment variable for the scenario and remembers the
// previous value for Cleanup.
func (testCtx *TestContext) setEnv(name, value string) {
	if _, seen := testCtx.originalEnv[name]; !seen {
		if old, ok := os.LookupEnv(name); ok {
			testCtx.originalEnv[name] = &old
		} else {
			testCtx.originalEnv[name] = nil
		}
	}
	_ = os.Setenv(name, value)
}

// Cleanup stops the server, restores the process state and removes the
// temporary directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	testCtx.stopServer()

	if err := os.Chdir(testCtx.originalDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore working directory: %w", err))
	}
	for name, value := range testCtx.originalEnv {
		if value == nil {
			_ = os.Unsetenv(name)
		} else {
			_ = os.Setenv(name, *value)
		}
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// path resolves a scenario-relative file name.
func (testCtx *TestContext) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}
