// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-assist/internal/attach"
	"github.com/jeranaias/rigrun-assist/internal/cloud"
	"github.com/jeranaias/rigrun-assist/internal/config"
	"github.com/jeranaias/rigrun-assist/internal/model"
)

// fakeSender records every request and answers with reply or err.
type fakeSender struct {
	mu    sync.Mutex
	calls [][]model.Turn
	ids   []string
	reply string
	err   error
	panic any
}

func (f *fakeSender) Send(_ context.Context, turns []model.Turn, modelID string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, turns)
	f.ids = append(f.ids, modelID)
	f.mu.Unlock()
	if f.panic != nil {
		panic(f.panic)
	}
	return f.reply, f.err
}

func (f *fakeSender) lastTurns() []model.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// =============================================================================
// COMPOSE TESTS
// =============================================================================

func TestComposeMessage_IdentityWithoutAttachments(t *testing.T) {
	for _, text := range []string{"", "explain", "multi\nline\n\n```go\nx\n```", "  padded  "} {
		turn := ComposeMessage(text, nil, nil)
		assert.True(t, turn.IsPlainText())
		assert.Equal(t, text, turn.Text())
		assert.Equal(t, model.RoleUser, turn.Role)
	}
}

func TestComposeMessage_FileBlock(t *testing.T) {
	files := []attach.File{{Name: "a.py", Content: "print(1)", Language: "python", OriginPath: "/w/a.py"}}

	turn := ComposeMessage("explain", files, nil)
	require.True(t, turn.IsPlainText())

	text := turn.Text()
	assert.True(t, strings.HasPrefix(text, "explain\n\n"))
	assert.True(t, strings.HasSuffix(text, "### a.py\n```python\nprint(1)\n```"), "got %q", text)
}

func TestComposeMessage_ImagesAreSeparateBlocks(t *testing.T) {
	for n := 1; n <= 4; n++ {
		t.Run(fmt.Sprintf("%d images", n), func(t *testing.T) {
			var images []attach.Image
			for i := 0; i < n; i++ {
				images = append(images, attach.Image{
					Name: fmt.Sprintf("i%d.png", i), Data: fmt.Sprintf("DATA%d", i), MIMEType: "image/png",
				})
			}
			files := []attach.File{{Name: "b.go", Content: "package b\n", Language: "go"}}

			turn := ComposeMessage("look", files, images)
			require.Len(t, turn.Blocks, n+1)
			assert.Equal(t, model.BlockText, turn.Blocks[0].Kind)
			assert.Contains(t, turn.Blocks[0].Text, "### b.go\n```go\npackage b\n```")
			assert.NotContains(t, turn.Blocks[0].Text, "DATA")
			for i := 0; i < n; i++ {
				b := turn.Blocks[i+1]
				assert.Equal(t, model.BlockImage, b.Kind)
				assert.Equal(t, fmt.Sprintf("DATA%d", i), b.Data)
				assert.Equal(t, "image/png", b.MIMEType)
			}
		})
	}
}

func TestComposeMessage_FenceOutgrowsContent(t *testing.T) {
	files := []attach.File{{Name: "README.md", Content: "```sh\nmake\n```\n", Language: "markdown"}}
	text := ComposeMessage("", files, nil).Text()
	assert.Contains(t, text, "````markdown\n```sh\nmake\n```\n````")
}

// =============================================================================
// SESSION TESTS
// =============================================================================

func TestSession_CloseDiscardsState(t *testing.T) {
	sess := New(0)
	assert.NotEmpty(t, sess.ID())
	require.NoError(t, sess.Store().AttachFile("/w/a.go", "a", ""))
	sess.Transcript().Append(model.NewAssistantTurn("hi"), "", nil)

	sess.Close()
	sess.Close()

	assert.True(t, sess.Closed())
	assert.True(t, sess.Store().Snapshot().Empty())
	assert.Zero(t, sess.Transcript().Len())
	assert.NotEqual(t, sess.ID(), New(0).ID())
}

// =============================================================================
// ORCHESTRATOR TESTS
// =============================================================================

func TestSubmit_SingleTurnWithCurrentAttachments(t *testing.T) {
	sender := &fakeSender{reply: "it prints 1"}
	sess := New(0)
	orch := NewOrchestrator(sender, sess, nil)
	require.NoError(t, sess.Store().AttachFile("/w/a.py", "print(1)", ""))

	reply, err := orch.Submit(context.Background(), "explain", "claude-3-opus-20240229")
	require.NoError(t, err)
	assert.Equal(t, "it prints 1", reply)

	turns := sender.lastTurns()
	require.Len(t, turns, 1)
	assert.Contains(t, turns[0].Text(), "```python\nprint(1)\n```")
	assert.Equal(t, "claude-3-opus-20240229", sender.ids[0])

	// Second submit is again a single fresh turn.
	_, err = orch.Submit(context.Background(), "again", "")
	require.NoError(t, err)
	assert.Len(t, sender.lastTurns(), 1)

	entries := sess.Transcript().Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, model.RoleUser, entries[0].Turn.Role)
	assert.Equal(t, "it prints 1", entries[1].Turn.Text())
}

func TestPrepare_SnapshotTakenAtCallTime(t *testing.T) {
	sender := &fakeSender{reply: "ok"}
	sess := New(0)
	orch := NewOrchestrator(sender, sess, nil)
	require.NoError(t, sess.Store().AttachFile("/w/first.go", "package first", ""))

	turn := orch.Prepare("review")
	require.NoError(t, sess.Store().AttachFile("/w/late.go", "package late", ""))
	sess.Store().Remove("/w/first.go")

	_, err := orch.SubmitTurn(context.Background(), turn, "")
	require.NoError(t, err)

	sent := sender.lastTurns()[0].Text()
	assert.Contains(t, sent, "package first")
	assert.NotContains(t, sent, "package late")
}

func TestSubmit_ErrorsBecomeSubmitErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind cloud.ErrorKind
	}{
		{"not configured", cloud.ErrNotConfigured, cloud.KindConfiguration},
		{"auth", fmt.Errorf("%w: bad key", cloud.ErrAuthFailed), cloud.KindAuth},
		{"throttled", fmt.Errorf("%w: slow down", cloud.ErrRateLimited), cloud.KindThrottled},
		{"plan", fmt.Errorf("%w: opus", cloud.ErrPlanRequired), cloud.KindPlanRequired},
		{"transport", &cloud.TransportError{Status: 500, Message: "boom"}, cloud.KindTransport},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sess := New(0)
			orch := NewOrchestrator(&fakeSender{err: tc.err}, sess, nil)

			_, err := orch.Submit(context.Background(), "hi", "")
			var se *SubmitError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.kind, se.Kind)
			assert.ErrorIs(t, err, tc.err)
			assert.Contains(t, se.Display(), cloud.Hint(tc.kind))

			entries := sess.Transcript().Entries()
			require.Len(t, entries, 2)
			assert.Error(t, entries[1].Err)
		})
	}
}

func TestSubmit_RecoversSenderPanic(t *testing.T) {
	orch := NewOrchestrator(&fakeSender{panic: "nil map"}, New(0), nil)

	var err error
	assert.NotPanics(t, func() {
		_, err = orch.Submit(context.Background(), "hi", "")
	})
	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, cloud.KindTransport, se.Kind)

	var te *cloud.TransportError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Message, "nil map")
}

func TestSubmit_UnconfiguredClientMakesNoNetworkCall(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.BaseURL = server.URL
	client := cloud.NewClient(cfg)

	_, err := NewOrchestrator(client, New(0), nil).Submit(context.Background(), "hi", "")
	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, cloud.KindConfiguration, se.Kind)
	assert.ErrorIs(t, err, cloud.ErrNotConfigured)
	assert.Zero(t, hits.Load())
}

// =============================================================================
// PROMPT TEMPLATE TESTS
// =============================================================================

func TestRunPromptTemplate(t *testing.T) {
	sender := &fakeSender{reply: "explained"}
	prompts := config.DefaultPrompts()
	prompts["review"] = "Review this {{.Language}}: {{.Code}}"
	orch := NewOrchestrator(sender, New(0), prompts)

	reply, err := orch.RunPromptTemplate(context.Background(), config.PurposeExplain, "x := 1", "go", "")
	require.NoError(t, err)
	assert.Equal(t, "explained", reply)
	sent := sender.lastTurns()[0].Text()
	assert.Contains(t, sent, "```go\nx := 1\n```")

	_, err = orch.RunPromptTemplate(context.Background(), "review", "y", "rust", "")
	require.NoError(t, err)
	assert.Equal(t, "Review this rust: y", sender.lastTurns()[0].Text())
}

func TestRunPromptTemplate_Errors(t *testing.T) {
	orch := NewOrchestrator(&fakeSender{}, New(0), map[string]string{
		"explain": "{{.Code}}",
		"broken":  "{{.Nope}}",
	})

	_, err := orch.RunPromptTemplate(context.Background(), "translate", "x", "go", "")
	assert.ErrorIs(t, err, ErrUnknownPurpose)
	assert.Contains(t, err.Error(), "explain")

	_, err = orch.RunPromptTemplate(context.Background(), "explain", "   ", "go", "")
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = orch.RunPromptTemplate(context.Background(), "broken", "x", "go", "")
	assert.Error(t, err)
	var se *SubmitError
	assert.False(t, errors.As(err, &se), "template errors never reach the sender")
}

func TestOrchestrator_PurposesSorted(t *testing.T) {
	orch := NewOrchestrator(&fakeSender{}, New(0), config.DefaultPrompts())
	assert.Equal(t, []string{"comment", "debug", "explain", "optimize"}, orch.Purposes())
}
