package support

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // decoders for rendered images
	_ "image/png"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/hullrect/cmd/hullrect/cmd"
)

// RegisterCommonSteps registers command execution and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^I run "([^"]*)" with input:$`, testCtx.iRunCommandWithInput)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON should contain "([^"]*)"$`, testCtx.theJSONShouldContain)
	sc.Step(`^the JSON "([^"]*)" should have (\d+) items$`, testCtx.theJSONShouldHaveItems)
	sc.Step(`^the JSON "([^"]*)" should be approximately ([-0-9.e]+)$`, testCtx.theJSONShouldBeApproximately)
	sc.Step(`^the JSON "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONShouldBe)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the image "([^"]*)" should be (\d+) by (\d+) pixels$`, testCtx.theImageShouldBe)
}

// splitArgs splits a command line on spaces, keeping single-quoted parts
// together.
func splitArgs(command string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inQuote, hasToken := false, false
	for _, r := range command {
		switch {
		case r == '\'':
			inQuote = !inQuote
			hasToken = true
		case r == ' ' && !inQuote:
			if hasToken {
				args = append(args, cur.String())
				cur.Reset()
				hasToken = false
			}
		default:
			cur.WriteRune(r)
			hasToken = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", command)
	}
	if hasToken {
		args = append(args, cur.String())
	}
	return args, nil
}

// iRunCommand runs the hullrect CLI in-process.
func (testCtx *TestContext) iRunCommand(command string) error {
	return testCtx.run(command, "")
}

func (testCtx *TestContext) iRunCommandWithInput(command string, input *godog.DocString) error {
	return testCtx.run(command, input.Content)
}

func (testCtx *TestContext) run(command, stdin string) error {
	args, err := splitArgs(command)
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] != "hullrect" {
		return fmt.Errorf("commands must start with hullrect: %q", command)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	start := time.Now()
	err = cmd.Run(ctx, args[1:], strings.NewReader(stdin), &stdout, &stderr)

	testCtx.LastCommand = command
	testCtx.LastDuration = time.Since(start)
	testCtx.LastStdout = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastOutput = testCtx.LastStdout + testCtx.LastStderr
	testCtx.LastError = err
	testCtx.LastExitCode = 0
	if err != nil {
		testCtx.LastExitCode = 1
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed: %w\nOutput: %s", testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// lastJSON decodes the command's stdout.
func (testCtx *TestContext) lastJSON() (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(testCtx.LastStdout)), &v); err != nil {
		return nil, fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastStdout)
	}
	return v, nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	_, err := testCtx.lastJSON()
	return err
}

func (testCtx *TestContext) theJSONShouldContain(field string) error {
	v, err := testCtx.lastJSON()
	if err != nil {
		return err
	}
	_, err = lookupJSON(v, field)
	return err
}

func (testCtx *TestContext) theJSONShouldHaveItems(field string, n int) error {
	v, err := testCtx.lastJSON()
	if err != nil {
		return err
	}
	return checkItems(v, field, n)
}

func (testCtx *TestContext) theJSONShouldBeApproximately(field string, want float64) error {
	v, err := testCtx.lastJSON()
	if err != nil {
		return err
	}
	return checkApprox(v, field, want)
}

func (testCtx *TestContext) theJSONShouldBe(field, want string) error {
	v, err := testCtx.lastJSON()
	if err != nil {
		return err
	}
	return checkEquals(v, field, want)
}

// lookupJSON follows a dotted path such as "hull.vertices.0.x"; numeric
// segments index arrays. The empty path is the document itself.
func lookupJSON(v interface{}, path string) (interface{}, error) {
	if path == "" {
		return v, nil
	}
	cur := v
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			next, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in path %q", part, path)
			}
			cur = next
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("invalid index %q in path %q (length %d)", part, path, len(node))
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q in path %q", part, path)
		}
	}
	return cur, nil
}

func checkItems(v interface{}, field string, n int) error {
	got, err := lookupJSON(v, field)
	if err != nil {
		return err
	}
	items, ok := got.([]interface{})
	if !ok {
		return fmt.Errorf("%s is not an array", field)
	}
	if len(items) != n {
		return fmt.Errorf("expected %d items in %s, got %d", n, field, len(items))
	}
	return nil
}

func checkApprox(v interface{}, field string, want float64) error {
	got, err := lookupJSON(v, field)
	if err != nil {
		return err
	}
	f, ok := got.(float64)
	if !ok {
		return fmt.Errorf("%s is not a number: %v", field, got)
	}
	if math.Abs(f-want) > 1e-3*math.Max(1, math.Abs(want)) {
		return fmt.Errorf("expected %s ≈ %g, got %g", field, want, f)
	}
	return nil
}

func checkEquals(v interface{}, field, want string) error {
	got, err := lookupJSON(v, field)
	if err != nil {
		return err
	}
	if s := fmt.Sprint(got); s != want {
		return fmt.Errorf("expected %s = %q, got %q", field, want, s)
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil {
		return errors.New("expected an error, command succeeded")
	}
	if !strings.Contains(testCtx.LastError.Error(), errorText) {
		return fmt.Errorf("error %q does not mention %q", testCtx.LastError.Error(), errorText)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(filename string) error {
	if _, err := os.Stat(testCtx.path(filename)); err != nil {
		return fmt.Errorf("file %s does not exist: %w", filename, err)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(filename, expected string) error {
	data, err := os.ReadFile(testCtx.path(filename))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if !strings.Contains(string(data), expected) {
		return fmt.Errorf("file %s does not contain %q\nContent: %s", filename, expected, data)
	}
	return nil
}

func (testCtx *TestContext) theImageShouldBe(filename string, width, height int) error {
	f, err := os.Open(testCtx.path(filename))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	if cfg.Width != width || cfg.Height != height {
		return fmt.Errorf("expected %dx%d image, got %dx%d", width, height, cfg.Width, cfg.Height)
	}
	return nil
}
