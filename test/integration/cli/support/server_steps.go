package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/hullrect/internal/config"
	"github.com/MeKo-Tech/hullrect/internal/server"
)

// RegisterServerSteps registers HTTP and WebSocket steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a running hullrect server$`, testCtx.aRunningServer)
	sc.Step(`^a running hullrect server limited to (\d+) requests per minute$`, testCtx.aRunningServerWithRateLimit)
	sc.Step(`^a running hullrect server with max points (\d+)$`, testCtx.aRunningServerWithMaxPoints)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I POST "([^"]*)" with body:$`, testCtx.iPOSTWithBody)
	sc.Step(`^I POST "([^"]*)" with "([^"]*)" body:$`, testCtx.iPOSTWithTypedBody)
	sc.Step(`^I POST the file "([^"]*)" to "([^"]*)"$`, testCtx.iPOSTTheFile)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response JSON "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONShouldBe)
	sc.Step(`^the response JSON "([^"]*)" should be approximately ([-0-9.e]+)$`, testCtx.theResponseJSONShouldBeApproximately)
	sc.Step(`^the response JSON "([^"]*)" should have (\d+) items$`, testCtx.theResponseJSONShouldHaveItems)
	sc.Step(`^I send over the websocket:$`, testCtx.iSendOverTheWebsocket)
	sc.Step(`^the websocket messages should start with "([^"]*)" and end with "([^"]*)"$`, testCtx.theWebsocketMessagesShouldStartAndEndWith)
	sc.Step(`^the last websocket message "([^"]*)" should be approximately ([-0-9.e]+)$`, testCtx.theLastWebsocketMessageShouldBeApproximately)
}

// startServer builds a server from the default settings plus mutate and
// serves it with httptest.
func (testCtx *TestContext) startServer(mutate func(*config.Config)) error {
	settings := config.DefaultConfig()
	settings.Render.Width, settings.Render.Height = 320, 240
	if mutate != nil {
		mutate(&settings)
	}
	cfg, err := server.ConfigFromSettings(&settings)
	if err != nil {
		return err
	}
	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	testCtx.stopServer()
	testCtx.HTTPServer = httptest.NewServer(srv.Handler())
	return nil
}

func (testCtx *TestContext) stopServer() {
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}
}

func (testCtx *TestContext) aRunningServer() error {
	return testCtx.startServer(nil)
}

func (testCtx *TestContext) aRunningServerWithRateLimit(perMinute int) error {
	return testCtx.startServer(func(c *config.Config) {
		c.Server.RateLimit.Enabled = true
		c.Server.RateLimit.RequestsPerMinute = perMinute
	})
}

func (testCtx *TestContext) aRunningServerWithMaxPoints(n int) error {
	return testCtx.startServer(func(c *config.Config) {
		c.Server.MaxPoints = n
	})
}

func (testCtx *TestContext) serverURL(path string) (string, error) {
	if testCtx.HTTPServer == nil {
		return "", errors.New("server is not running")
	}
	return testCtx.HTTPServer.URL + path, nil
}

func (testCtx *TestContext) do(method, path, contentType string, body io.Reader) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	testCtx.LastHTTPHeaders = make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

func (testCtx *TestContext) iGET(path string) error {
	return testCtx.do(http.MethodGet, path, "", nil)
}

func (testCtx *TestContext) iPOSTWithBody(path string, body *godog.DocString) error {
	return testCtx.do(http.MethodPost, path, "application/json", strings.NewReader(body.Content))
}

func (testCtx *TestContext) iPOSTWithTypedBody(path, contentType string, body *godog.DocString) error {
	return testCtx.do(http.MethodPost, path, contentType, strings.NewReader(body.Content))
}

func (testCtx *TestContext) iPOSTTheFile(file, path string) error {
	data, err := os.ReadFile(testCtx.path(file))
	if err != nil {
		return err
	}
	contentType := "text/plain"
	switch {
	case strings.HasSuffix(file, ".json"):
		contentType = "application/json"
	case strings.HasSuffix(file, ".yaml"), strings.HasSuffix(file, ".yml"):
		contentType = "application/yaml"
	}
	return testCtx.do(http.MethodPost, path, contentType, bytes.NewReader(data))
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("expected status %d, got %d\nBody: %s", status, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain %q\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, want string) error {
	if got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]; got != want {
		return fmt.Errorf("expected header %s = %q, got %q", name, want, got)
	}
	return nil
}

func (testCtx *TestContext) responseJSON() (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &v); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w\nBody: %s", err, testCtx.LastHTTPResponse)
	}
	return v, nil
}

func (testCtx *TestContext) theResponseJSONShouldBe(field, want string) error {
	v, err := testCtx.responseJSON()
	if err != nil {
		return err
	}
	return checkEquals(v, field, want)
}

func (testCtx *TestContext) theResponseJSONShouldBeApproximately(field string, want float64) error {
	v, err := testCtx.responseJSON()
	if err != nil {
		return err
	}
	return checkApprox(v, field, want)
}

func (testCtx *TestContext) theResponseJSONShouldHaveItems(field string, n int) error {
	v, err := testCtx.responseJSON()
	if err != nil {
		return err
	}
	return checkItems(v, field, n)
}

// iSendOverTheWebsocket sends one request and collects messages until a
// final rectangle, contains, completed hull or error message arrives.
func (testCtx *TestContext) iSendOverTheWebsocket(body *godog.DocString) error {
	url, err := testCtx.serverURL("/ws")
	if err != nil {
		return err
	}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(body.Content)); err != nil {
		return err
	}
	if err := conn.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}

	testCtx.LastWSMessages = nil
	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("websocket read failed after %d messages: %w", len(testCtx.LastWSMessages), err)
		}
		testCtx.LastWSMessages = append(testCtx.LastWSMessages, msg)
		if isFinalMessage(msg) {
			return nil
		}
	}
}

func isFinalMessage(msg map[string]interface{}) bool {
	switch msg["type"] {
	case "rectangle", "contains", "error":
		return true
	case "hull":
		return msg["status"] == "completed"
	}
	return false
}

func (testCtx *TestContext) theWebsocketMessagesShouldStartAndEndWith(first, last string) error {
	msgs := testCtx.LastWSMessages
	if len(msgs) == 0 {
		return errors.New("no websocket messages received")
	}
	if got := fmt.Sprint(msgs[0]["type"]); got != first {
		return fmt.Errorf("first message type %q, want %q", got, first)
	}
	if got := fmt.Sprint(msgs[len(msgs)-1]["type"]); got != last {
		return fmt.Errorf("last message type %q, want %q (%s messages)", got, last, strconv.Itoa(len(msgs)))
	}
	return nil
}

func (testCtx *TestContext) theLastWebsocketMessageShouldBeApproximately(field string, want float64) error {
	if len(testCtx.LastWSMessages) == 0 {
		return errors.New("no websocket messages received")
	}
	return checkApprox(testCtx.LastWSMessages[len(testCtx.LastWSMessages)-1], field, want)
}
