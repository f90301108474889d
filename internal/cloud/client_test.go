// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-assist/internal/config"
	"github.com/jeranaias/rigrun-assist/internal/model"
)

const okBody = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-3-haiku-20240307",
	"content": [{"type": "text", "text": "hello from the model"}],
	"stop_reason": "end_turn",
	"stop_sequence": null,
	"usage": {"input_tokens": 3, "output_tokens": 5}
}`

// fakeAPI is a Messages API stand-in recording every request body.
type fakeAPI struct {
	server   *httptest.Server
	requests atomic.Int32

	mu     sync.Mutex
	bodies []map[string]any
	header http.Header
}

func newFakeAPI(t *testing.T, status int, body string) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)

		raw, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = json.Unmarshal(raw, &decoded)

		f.mu.Lock()
		f.bodies = append(f.bodies, decoded)
		f.header = r.Header.Clone()
		f.mu.Unlock()

		if r.URL.Path != "/v1/messages" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) lastBody() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bodies) == 0 {
		return nil
	}
	return f.bodies[len(f.bodies)-1]
}

func testConfig(baseURL, key string) *config.Config {
	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.Credential = key
	cfg.TimeoutSecs = 5
	cfg.MaxTokens = 256
	return cfg
}

func errorBody(typ, msg string) string {
	return `{"type":"error","error":{"type":"` + typ + `","message":"` + msg + `"}}`
}

func userTurn(text string) []model.Turn {
	return []model.Turn{model.NewUserTurn(model.TextBlock(text))}
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSend_NotConfiguredMakesNoRequest(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, okBody)
	client := NewClient(testConfig(api.server.URL, ""))

	_, err := client.Send(context.Background(), userTurn("hi"), "")
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, KindConfiguration, Classify(err))
	assert.Zero(t, api.requests.Load(), "no network call before credential check")
}

func TestSend_Success(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, okBody)
	client := NewClient(testConfig(api.server.URL, "sk-ant-test"))

	text, err := client.Send(context.Background(), userTurn("hi"), "")
	require.NoError(t, err)
	assert.Equal(t, "hello from the model", text)
	assert.Equal(t, int32(1), api.requests.Load())

	body := api.lastBody()
	assert.Equal(t, config.DefaultModelID, body["model"])
	assert.EqualValues(t, 256, body["max_tokens"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "sk-ant-test", api.header.Get("X-Api-Key"))
	assert.NotEmpty(t, api.header.Get("Anthropic-Version"))
}

func TestSend_ExplicitModelAndImages(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, okBody)
	client := NewClient(testConfig(api.server.URL, "sk-ant-test"))

	turns := []model.Turn{model.NewUserTurn(
		model.TextBlock("what is this"),
		model.ImageBlock("image/png", "iVBORw0KGgo="),
	)}
	_, err := client.Send(context.Background(), turns, "claude-3-opus-20240229")
	require.NoError(t, err)

	body := api.lastBody()
	assert.Equal(t, "claude-3-opus-20240229", body["model"])

	msgs := body["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "text", content[0].(map[string]any)["type"])
	img := content[1].(map[string]any)
	assert.Equal(t, "image", img["type"])
	source := img["source"].(map[string]any)
	assert.Equal(t, "base64", source["type"])
	assert.Equal(t, "image/png", source["media_type"])
	assert.Equal(t, "iVBORw0KGgo=", source["data"])
}

func TestSend_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		kind     ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, errorBody("authentication_error", "invalid x-api-key"), ErrAuthFailed, KindAuth},
		{"rate limited", http.StatusTooManyRequests, errorBody("rate_limit_error", "slow down"), ErrRateLimited, KindThrottled},
		{"forbidden", http.StatusForbidden, errorBody("permission_error", "model not in plan"), ErrPlanRequired, KindPlanRequired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := newFakeAPI(t, tc.status, tc.body)
			client := NewClient(testConfig(api.server.URL, "sk-ant-test"))

			_, err := client.Send(context.Background(), userTurn("hi"), "")
			require.ErrorIs(t, err, tc.sentinel)
			assert.Equal(t, tc.kind, Classify(err))
			assert.Equal(t, int32(1), api.requests.Load(), "no retries")
		})
	}
}

func TestSend_ServerErrorIsTransport(t *testing.T) {
	api := newFakeAPI(t, http.StatusInternalServerError, errorBody("api_error", "overloaded backend"))
	client := NewClient(testConfig(api.server.URL, "sk-ant-test"))

	_, err := client.Send(context.Background(), userTurn("hi"), "")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.Status)
	assert.Contains(t, te.Message, "overloaded backend")
	assert.Equal(t, KindTransport, Classify(err))
	assert.Equal(t, int32(1), api.requests.Load(), "no retries")
}

func TestSend_ConnectionFailureIsTransport(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, okBody)
	url := api.server.URL
	api.server.Close()

	client := NewClient(testConfig(url, "sk-ant-test"))
	_, err := client.Send(context.Background(), userTurn("hi"), "")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.Status)
	assert.NotEmpty(t, te.Message)
}

func TestSend_EmptyContent(t *testing.T) {
	body := strings.Replace(okBody, `[{"type": "text", "text": "hello from the model"}]`, `[]`, 1)
	api := newFakeAPI(t, http.StatusOK, body)
	client := NewClient(testConfig(api.server.URL, "sk-ant-test"))

	_, err := client.Send(context.Background(), userTurn("hi"), "")
	var te *TransportError
	require.ErrorAs(t, err, &te)
}

// =============================================================================
// PROBE TESTS
// =============================================================================

func TestProbeCapability(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
	}{
		{"success unlocks catalog", http.StatusOK, okBody, 9},
		{"auth failure gives free tier", http.StatusUnauthorized, errorBody("authentication_error", "bad key"), 2},
		{"server failure gives free tier", http.StatusInternalServerError, errorBody("api_error", "boom"), 2},
		{"throttled gives free tier", http.StatusTooManyRequests, errorBody("rate_limit_error", "later"), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := newFakeAPI(t, tc.status, tc.body)
			client := NewClient(testConfig(api.server.URL, "sk-ant-test"))

			got := client.ProbeCapability(context.Background())
			assert.Len(t, got, tc.want)
			if tc.want == 2 {
				for _, d := range got {
					assert.True(t, d.IsFree())
				}
			}

			body := api.lastBody()
			assert.Equal(t, model.ProbeModelID, body["model"])
			assert.EqualValues(t, 1, body["max_tokens"])
		})
	}
}

func TestProbe_AuthResult(t *testing.T) {
	api := newFakeAPI(t, http.StatusUnauthorized, errorBody("authentication_error", "bad key"))
	client := NewClient(testConfig(api.server.URL, "sk-ant-test"))
	assert.Equal(t, model.ProbeAuthFailed, client.Probe(context.Background()))
}

func TestProbeCapability_NoKey(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, okBody)
	client := NewClient(testConfig(api.server.URL, ""))

	got := client.ProbeCapability(context.Background())
	assert.Len(t, got, 2)
	assert.Zero(t, api.requests.Load())
}

// =============================================================================
// CONFIG RELOAD TESTS
// =============================================================================

func TestReloadConfig(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, okBody)
	client := NewClient(testConfig(api.server.URL, ""))
	assert.False(t, client.IsConfigured())

	cfg := testConfig(api.server.URL, "sk-ant-new")
	cfg.ModelID = "claude-3-5-haiku-20241022"
	cfg.MaxTokens = 99
	client.ReloadConfig(cfg)

	assert.True(t, client.IsConfigured())
	assert.Equal(t, "claude-3-5-haiku-20241022", client.Model())
	assert.Equal(t, 99, client.MaxTokens())

	_, err := client.Send(context.Background(), userTurn("hi"), "")
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-20241022", api.lastBody()["model"])
}

// TestReloadConfig_Concurrent verifies reloads race safely with sends.
// Run with: go test -race ./internal/cloud/
func TestReloadConfig_Concurrent(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, okBody)
	client := NewClient(testConfig(api.server.URL, "sk-ant-a"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := client.Send(ctx, userTurn("x"), ""); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			client.ReloadConfig(testConfig(api.server.URL, "sk-ant-b"))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent send failed: %v", err)
	}
}

// =============================================================================
// KEY DISPLAY TESTS
// =============================================================================

func TestAPIKeyMasked(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1", ""))
	assert.Equal(t, "[not set]", client.APIKeyMasked())
	assert.Equal(t, "none", client.KeyFingerprint())

	client.ReloadConfig(testConfig("http://127.0.0.1:1", "sk-ant-secret-material"))
	masked := client.APIKeyMasked()
	assert.NotContains(t, masked, "secret")
	assert.Contains(t, masked, client.KeyFingerprint())
	assert.Len(t, client.KeyFingerprint(), 8)
}

// =============================================================================
// CLASSIFY TESTS
// =============================================================================

func TestClassify(t *testing.T) {
	assert.Equal(t, KindNone, Classify(nil))
	assert.Equal(t, KindCanceled, Classify(context.Canceled))
	assert.Equal(t, KindTransport, Classify(errors.New("other")))
	assert.NotEmpty(t, Hint(KindAuth))
	assert.Empty(t, Hint(KindNone))
}

func TestExtractErrorMessage(t *testing.T) {
	s := `POST "http://x/v1/messages": 401 Unauthorized ` + errorBody("authentication_error", "invalid x-api-key")
	assert.Equal(t, "invalid x-api-key", extractErrorMessage(s))
	assert.Empty(t, extractErrorMessage("no json here"))
}
