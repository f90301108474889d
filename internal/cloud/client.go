// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jeranaias/rigrun-assist/internal/config"
	"github.com/jeranaias/rigrun-assist/internal/model"
)

// Configuration constants for the Messages API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 120 * time.Second

	// probeMaxTokens keeps capability probes as cheap as possible.
	probeMaxTokens = 1

	// probePrompt is the minimal prompt sent by capability probes.
	probePrompt = "ping"

	userAgent = "rigrun-assist/0.1.0"
)

// =============================================================================
// CLIENT
// =============================================================================

// settings is the hot-reloadable part of the client.
type settings struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	timeout   time.Duration
}

// Client is a Messages API client. It holds no session state besides the
// current settings, which ReloadConfig may swap at any time.
type Client struct {
	mu  sync.RWMutex
	cur settings
	sdk anthropic.Client
}

// NewClient creates a client from configuration. A nil cfg uses defaults.
// If the credential is empty the client is still created, but Send fails
// with ErrNotConfigured.
func NewClient(cfg *config.Config) *Client {
	c := &Client{}
	c.ReloadConfig(cfg)
	return c
}

// ReloadConfig swaps the credential, default model, token budget, base URL
// and timeout. In-flight requests keep the settings they started with.
func (c *Client) ReloadConfig(cfg *config.Config) {
	if cfg == nil {
		cfg = config.Default()
	}
	next := settings{
		apiKey:    strings.TrimSpace(cfg.Credential),
		model:     cfg.ModelID,
		maxTokens: cfg.MaxTokens,
		baseURL:   cfg.BaseURL,
		timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
	}
	if next.model == "" {
		next.model = config.DefaultModelID
	}
	if next.maxTokens <= 0 {
		next.maxTokens = config.DefaultMaxTokens
	}
	if next.baseURL == "" {
		next.baseURL = config.DefaultBaseURL
	}
	if next.timeout <= 0 {
		next.timeout = DefaultTimeout
	}

	sdk := newSDKClient(next)

	c.mu.Lock()
	c.cur = next
	c.sdk = sdk
	c.mu.Unlock()

	log.Printf("API client configured: model=%s max_tokens=%d key=%s", next.model, next.maxTokens, fingerprint(next.apiKey))
}

// newSDKClient builds the SDK client. SDK retries are disabled: every
// failure surfaces to the caller immediately.
func newSDKClient(s settings) anthropic.Client {
	base := s.baseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return anthropic.NewClient(
		option.WithAPIKey(s.apiKey),
		option.WithBaseURL(base),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: s.timeout}),
		option.WithHeader("User-Agent", userAgent),
	)
}

// snapshot returns the settings and SDK client for one request.
func (c *Client) snapshot() (settings, anthropic.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur, c.sdk
}

// Model returns the default model ID.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur.model
}

// MaxTokens returns the configured token budget.
func (c *Client) MaxTokens() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur.maxTokens
}

// IsConfigured returns true if a credential is set.
func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur.apiKey != ""
}

// =============================================================================
// SEND
// =============================================================================

// Send issues one request carrying turns and returns the first text segment
// of the first content block. An empty modelID uses the default model.
// No retries are attempted.
func (c *Client) Send(ctx context.Context, turns []model.Turn, modelID string) (string, error) {
	cur, sdk := c.snapshot()
	if cur.apiKey == "" {
		return "", ErrNotConfigured
	}
	if modelID == "" {
		modelID = cur.model
	}
	if len(turns) == 0 {
		return "", &TransportError{Message: "no turns to send"}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: int64(cur.maxTokens),
		Messages:  toMessageParams(turns),
	}

	log.Printf("API Request: model=%s turns=%d max_tokens=%d", modelID, len(turns), cur.maxTokens)
	start := time.Now()
	msg, err := sdk.Messages.New(ctx, params)
	duration := time.Since(start)
	if err != nil {
		mapped := mapError(err)
		log.Printf("API Response: error kind=%s (%v)", Classify(mapped), duration)
		return "", mapped
	}
	log.Printf("API Response: ok model=%s blocks=%d (%v)", msg.Model, len(msg.Content), duration)

	if len(msg.Content) == 0 {
		return "", &TransportError{Message: "response contained no content"}
	}
	return msg.Content[0].Text, nil
}

// toMessageParams converts turns into SDK message params.
func toMessageParams(turns []model.Turn) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(t.Blocks))
		for _, b := range t.Blocks {
			switch b.Kind {
			case model.BlockText:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case model.BlockImage:
				blocks = append(blocks, anthropic.NewImageBlockBase64(b.MIMEType, b.Data))
			}
		}
		if t.Role == model.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

// =============================================================================
// CAPABILITY PROBE
// =============================================================================

// Probe sends a minimal request with the probe model and reports the outcome.
func (c *Client) Probe(ctx context.Context) model.ProbeResult {
	cur, sdk := c.snapshot()
	if cur.apiKey == "" {
		return model.ProbeFailed
	}

	start := time.Now()
	_, err := sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model.ProbeModelID),
		MaxTokens: probeMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(probePrompt)),
		},
	})
	if err == nil {
		log.Printf("Capability probe: ok (%v)", time.Since(start))
		return model.ProbeOK
	}

	kind := Classify(mapError(err))
	log.Printf("Capability probe: %s (%v)", kind, time.Since(start))
	if kind == KindAuth {
		return model.ProbeAuthFailed
	}
	return model.ProbeFailed
}

// ProbeCapability returns the catalog entries the credential can use.
// It never fails: any failure degrades to the free tier.
func (c *Client) ProbeCapability(ctx context.Context) []model.Descriptor {
	return model.ClassifyAccess(model.Catalog(), c.Probe(ctx))
}

// =============================================================================
// KEY DISPLAY
// =============================================================================

// APIKeyMasked returns a display form of the key that exposes no fragment.
func (c *Client) APIKeyMasked() string {
	c.mu.RLock()
	key := c.cur.apiKey
	c.mu.RUnlock()
	if key == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(key), fingerprint(key))
}

// KeyFingerprint returns a short SHA-256 prefix of the key for logging.
func (c *Client) KeyFingerprint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fingerprint(c.cur.apiKey)
}

// fingerprint returns the first 8 hex chars of the key's SHA-256.
func fingerprint(key string) string {
	if key == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}
