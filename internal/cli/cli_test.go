// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigrun-assist/internal/attach"
	"github.com/jeranaias/rigrun-assist/internal/cloud"
	"github.com/jeranaias/rigrun-assist/internal/config"
	"github.com/jeranaias/rigrun-assist/internal/host"
	"github.com/jeranaias/rigrun-assist/internal/model"
	"github.com/jeranaias/rigrun-assist/internal/session"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeClient struct {
	mu      sync.Mutex
	modelID string
	reply   string
	err     error
	usable  []model.Descriptor
	sent    [][]model.Turn
	models  []string
}

func (f *fakeClient) Send(_ context.Context, turns []model.Turn, modelID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, turns)
	f.models = append(f.models, modelID)
	return f.reply, f.err
}

func (f *fakeClient) ProbeCapability(context.Context) []model.Descriptor {
	if f.usable != nil {
		return f.usable
	}
	return model.FreeTier(model.Catalog())
}

func (f *fakeClient) ReloadConfig(*config.Config) {}

func (f *fakeClient) Model() string { return f.modelID }

func (f *fakeClient) lastText(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	turns := f.sent[len(f.sent)-1]
	require.Len(t, turns, 1)
	return turns[0].Text()
}

type testEnv struct {
	*Env
	out    *bytes.Buffer
	errOut *bytes.Buffer
	client *fakeClient
	saved  []*config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Credential = "sk-ant-test"

	te := &testEnv{
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		client: &fakeClient{modelID: cfg.ModelID, reply: "It returns 42."},
	}
	te.Env = &Env{
		Stdin:  strings.NewReader(""),
		Stdout: te.out,
		Stderr: te.errOut,
		Config: cfg,
		NewClient: func(c *config.Config) session.APIClient {
			te.client.modelID = c.ModelID
			return te.client
		},
		LoadFileConfig: func() (*config.Config, error) { return config.Default(), nil },
		SaveConfig: func(c *config.Config) error {
			te.saved = append(te.saved, c.Clone())
			return nil
		},
		ReadSecret:    func(string) (string, error) { return "", nil },
		ReadClipboard: func() (string, error) { return "", host.ErrClipboardEmpty },
		Render:        func(s string) string { return s },
	}
	return te
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"ask", "why", "--file", "a.go", "-f", "b.go", "--model=m1", "--clipboard", "x.go", "--", "--literal"}, "clipboard")

	assert.Equal(t, "ask", p.Subcommand())
	assert.Equal(t, []string{"a.go"}, p.FlagValues("file"))
	assert.Equal(t, []string{"a.go", "b.go"}, p.FlagValues("file", "f"))
	assert.Equal(t, "m1", p.FirstFlag("model", "m"))
	assert.True(t, p.BoolFlag("clipboard"))
	assert.Equal(t, []string{"ask", "why", "x.go", "--literal"}, p.PositionalFrom(0))
	assert.True(t, p.HasFlag("--model"))
	assert.False(t, p.HasFlag("lines"))
}

func TestArgParser_TrailingFlagIsBool(t *testing.T) {
	p := NewArgParser([]string{"chat", "--quiet"})
	assert.True(t, p.BoolFlag("quiet"))
	assert.Equal(t, 7, p.FlagIntOrDefault("width", 7))
}

func TestParseLineRange(t *testing.T) {
	tests := []struct {
		in      string
		want    LineRange
		wantErr bool
	}{
		{"", LineRange{}, false},
		{"5", LineRange{5, 5}, false},
		{"3:9", LineRange{3, 9}, false},
		{"3:", LineRange{3, 0}, false},
		{"0:4", LineRange{}, true},
		{"9:3", LineRange{}, true},
		{"a:b", LineRange{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLineRange(tc.in)
			if tc.wantErr {
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLineRange_Apply(t *testing.T) {
	text := "one\ntwo\nthree\nfour"

	got, err := LineRange{2, 3}.Apply(text)
	require.NoError(t, err)
	assert.Equal(t, "two\nthree", got)

	got, err = LineRange{Start: 3}.Apply(text)
	require.NoError(t, err)
	assert.Equal(t, "three\nfour", got)

	got, err = LineRange{3, 99}.Apply(text)
	require.NoError(t, err)
	assert.Equal(t, "three\nfour", got)

	_, err = LineRange{9, 9}.Apply(text)
	assert.Error(t, err)
}

// =============================================================================
// COMMAND SELECTION
// =============================================================================

func TestParseArgs(t *testing.T) {
	purposes := append(DefaultPurposes(), "review")

	tests := []struct {
		name  string
		argv  []string
		check func(*testing.T, Args)
	}{
		{"default is chat", nil, func(t *testing.T, a Args) {
			assert.Equal(t, CmdChat, a.Cmd)
		}},
		{"chat watch", []string{"chat", "--watch", "src", "--theme", "light"}, func(t *testing.T, a Args) {
			assert.Equal(t, "src", a.Watch)
			assert.Equal(t, "light", a.Theme)
		}},
		{"ask", []string{"ask", "what", "is", "this", "-f", "a.go", "--image", "s.png", "-m", "m1"}, func(t *testing.T, a Args) {
			assert.Equal(t, CmdAsk, a.Cmd)
			assert.Equal(t, "what is this", a.Query)
			assert.Equal(t, []string{"a.go"}, a.Files)
			assert.Equal(t, []string{"s.png"}, a.Images)
			assert.Equal(t, "m1", a.Model)
		}},
		{"explain", []string{"explain", "main.go", "--lines", "2:4", "--show"}, func(t *testing.T, a Args) {
			assert.Equal(t, CmdPrompt, a.Cmd)
			assert.Equal(t, "explain", a.Purpose)
			assert.Equal(t, "main.go", a.Target)
			assert.Equal(t, LineRange{2, 4}, a.Lines)
			assert.True(t, a.Show)
		}},
		{"clipboard before file position", []string{"debug", "--clipboard"}, func(t *testing.T, a Args) {
			assert.True(t, a.Clipboard)
			assert.Empty(t, a.Target)
		}},
		{"configured purpose", []string{"REVIEW", "x.py"}, func(t *testing.T, a Args) {
			assert.Equal(t, CmdPrompt, a.Cmd)
			assert.Equal(t, "review", a.Purpose)
		}},
		{"config set", []string{"config", "set", "prompts.review", "Review", "{{.Code}}"}, func(t *testing.T, a Args) {
			assert.Equal(t, CmdConfig, a.Cmd)
			assert.Equal(t, "set", a.Subcommand)
			assert.Equal(t, "prompts.review", a.ConfigKey)
			assert.Equal(t, "Review {{.Code}}", a.ConfigVal)
		}},
		{"config default show", []string{"config"}, func(t *testing.T, a Args) {
			assert.Equal(t, "show", a.Subcommand)
		}},
		{"help flag", []string{"ask", "--help"}, func(t *testing.T, a Args) {
			assert.Equal(t, CmdHelp, a.Cmd)
		}},
		{"version flag", []string{"-v"}, func(t *testing.T, a Args) {
			assert.Equal(t, CmdVersion, a.Cmd)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args, err := ParseArgs(tc.argv, purposes)
			require.NoError(t, err)
			tc.check(t, args)
		})
	}
}

func TestParseArgs_Errors(t *testing.T) {
	purposes := DefaultPurposes()

	_, err := ParseArgs([]string{"ask"}, purposes)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = ParseArgs([]string{"explain", "a.go", "--clipboard"}, purposes)
	assert.ErrorAs(t, err, &verr)

	_, err = ParseArgs([]string{"explain", "--lines", "x"}, purposes)
	assert.ErrorAs(t, err, &verr)

	_, err = ParseArgs([]string{"frobnicate"}, purposes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{NewValidationError("x", "", "bad"), ExitUsageError},
		{config.ValidateErrors{{Field: "max_tokens", Message: "bad"}}, ExitConfigError},
		{&session.SubmitError{Kind: cloud.KindConfiguration, Err: cloud.ErrNotConfigured}, ExitConfigError},
		{&session.SubmitError{Kind: cloud.KindAuth, Err: fmt.Errorf("%w: nope", cloud.ErrAuthFailed)}, ExitAuthError},
		{&session.SubmitError{Kind: cloud.KindThrottled, Err: cloud.ErrRateLimited}, ExitNetworkError},
		{&cloud.TransportError{Message: "reset"}, ExitNetworkError},
		{NewCommandError("attach", "file", fmt.Errorf("%w: big", attach.ErrTooLarge)), ExitInputError},
		{session.ErrEmptySelection, ExitInputError},
		{errors.New("boom"), ExitGeneralError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ExitCodeFor(tc.err), "%v", tc.err)
	}
}

func TestDisplayError_HintForSubmitErrors(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, &session.SubmitError{Kind: cloud.KindAuth, Err: cloud.ErrAuthFailed})
	assert.Contains(t, buf.String(), "[HINT]")

	buf.Reset()
	DisplayError(&buf, errors.New("plain"))
	assert.NotContains(t, buf.String(), "[HINT]")
}

// =============================================================================
// ASK
// =============================================================================

func TestRunAsk_InlinesAttachments(t *testing.T) {
	te := newTestEnv(t)
	path := writeFile(t, "calc.go", "package calc\n\nfunc Answer() int { return 42 }\n")

	err := RunAsk(context.Background(), te.Env, Args{Query: "What does Answer return?", Files: []string{path}})
	require.NoError(t, err)

	text := te.client.lastText(t)
	assert.True(t, strings.HasPrefix(text, "What does Answer return?"))
	assert.Contains(t, text, "### calc.go")
	assert.Contains(t, text, "```go\n")
	assert.Equal(t, "It returns 42.\n", te.out.String())
	assert.Contains(t, te.errOut.String(), "calc.go")
}

func TestRunAsk_ModelOverride(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, RunAsk(context.Background(), te.Env, Args{Query: "hi", Model: "claude-3-5-haiku-20241022", Quiet: true}))
	assert.Equal(t, []string{"claude-3-5-haiku-20241022"}, te.client.models)
	assert.Empty(t, te.errOut.String())
}

func TestRunAsk_BadAttachmentStops(t *testing.T) {
	te := newTestEnv(t)
	path := writeFile(t, "photo.bmp", "BM")

	err := RunAsk(context.Background(), te.Env, Args{Query: "look", Images: []string{path}})
	assert.ErrorIs(t, err, attach.ErrUnsupportedImage)
	assert.Empty(t, te.client.sent)
}

func TestRunAsk_APIErrorIsSubmitError(t *testing.T) {
	te := newTestEnv(t)
	te.client.err = fmt.Errorf("%w: bad key", cloud.ErrAuthFailed)

	err := RunAsk(context.Background(), te.Env, Args{Query: "hi", Quiet: true})
	var serr *session.SubmitError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, cloud.KindAuth, serr.Kind)
	assert.Equal(t, ExitAuthError, ExitCodeFor(err))
}

// =============================================================================
// PURPOSE COMMANDS
// =============================================================================

func TestRunPrompt_FileWithLines(t *testing.T) {
	te := newTestEnv(t)
	path := writeFile(t, "app.py", "import os\n\ndef main():\n    print(os.getcwd())\n")

	err := RunPrompt(context.Background(), te.Env, Args{Purpose: "explain", Target: path, Lines: LineRange{3, 4}, Quiet: true})
	require.NoError(t, err)

	text := te.client.lastText(t)
	assert.Contains(t, text, "Explain what the following Python code does")
	assert.Contains(t, text, "def main():\n    print(os.getcwd())")
	assert.NotContains(t, text, "import os")
}

func TestRunPrompt_Stdin(t *testing.T) {
	te := newTestEnv(t)
	te.Stdin = strings.NewReader("SELECT * FROM users;")

	require.NoError(t, RunPrompt(context.Background(), te.Env, Args{Purpose: "optimize", Quiet: true}))
	assert.Contains(t, te.client.lastText(t), "SELECT * FROM users;")
}

func TestRunPrompt_Clipboard(t *testing.T) {
	te := newTestEnv(t)
	te.ReadClipboard = func() (string, error) { return "x := 1", nil }

	require.NoError(t, RunPrompt(context.Background(), te.Env, Args{Purpose: "debug", Clipboard: true, Quiet: true}))
	assert.Contains(t, te.client.lastText(t), "x := 1")
}

func TestRunPrompt_EmptySelection(t *testing.T) {
	te := newTestEnv(t)
	te.Stdin = strings.NewReader("   \n")

	err := RunPrompt(context.Background(), te.Env, Args{Purpose: "explain", Quiet: true})
	assert.ErrorIs(t, err, session.ErrEmptySelection)
	assert.Empty(t, te.client.sent)
}

func TestRunPrompt_ShowHighlights(t *testing.T) {
	te := newTestEnv(t)
	te.Stdin = strings.NewReader("fmt.Println(\"hi\")")

	require.NoError(t, RunPrompt(context.Background(), te.Env, Args{Purpose: "comment", Show: true, Quiet: true}))
	assert.Contains(t, te.errOut.String(), "Println")
}

// =============================================================================
// CONFIG, KEY, MODELS
// =============================================================================

func TestRunConfig_SetSavesFileConfig(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, RunConfig(te.Env, Args{Subcommand: "set", ConfigKey: "max_images", ConfigVal: "5"}))
	require.Len(t, te.saved, 1)
	assert.Equal(t, 5, te.saved[0].MaxImages)
	assert.Empty(t, te.saved[0].Credential, "environment credential is not persisted")
}

func TestRunConfig_SetPrompt(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, RunConfig(te.Env, Args{Subcommand: "set", ConfigKey: "prompts.Review", ConfigVal: "Review {{.Code}}"}))
	require.Len(t, te.saved, 1)
	assert.Equal(t, "Review {{.Code}}", te.saved[0].Prompts["review"])
}

func TestRunConfig_SetInvalidRejected(t *testing.T) {
	te := newTestEnv(t)

	err := RunConfig(te.Env, Args{Subcommand: "set", ConfigKey: "max_tokens", ConfigVal: "-1"})
	require.Error(t, err)
	assert.Empty(t, te.saved)
}

func TestRunConfig_GetRedactsCredential(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, RunConfig(te.Env, Args{Subcommand: "get", ConfigKey: "credential"}))
	assert.Equal(t, "[REDACTED]\n", te.out.String())

	te.out.Reset()
	require.NoError(t, RunConfig(te.Env, Args{Subcommand: "show"}))
	assert.NotContains(t, te.out.String(), "sk-ant-test")
}

func TestRunKey(t *testing.T) {
	te := newTestEnv(t)
	te.ReadSecret = func(string) (string, error) { return "  sk-ant-new \n", nil }

	require.NoError(t, RunKey(context.Background(), te.Env, Args{}))
	require.Len(t, te.saved, 1)
	assert.Equal(t, "sk-ant-new", te.saved[0].Credential)
	assert.Contains(t, te.out.String(), "API key saved")
}

func TestRunKey_EmptyLeavesKey(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, RunKey(context.Background(), te.Env, Args{}))
	assert.Empty(t, te.saved)
}

func TestRunModels_MarksDefault(t *testing.T) {
	te := newTestEnv(t)
	te.client.usable = model.Catalog()

	require.NoError(t, RunModels(context.Background(), te.Env, Args{Quiet: true}))
	out := te.out.String()
	assert.Contains(t, out, "* ")
	assert.Contains(t, out, "claude-opus-4-1-20250805")
	assert.NotContains(t, out, "Only free-tier")
}

// =============================================================================
// REPL
// =============================================================================

// scriptReader answers prompts from a fixed script, then reports EOF.
type scriptReader struct {
	lines   []string
	secrets []string
}

func (s *scriptReader) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptReader) PasswordPrompt(string) (string, error) {
	if len(s.secrets) == 0 {
		return "", io.EOF
	}
	v := s.secrets[0]
	s.secrets = s.secrets[1:]
	return v, nil
}

func TestREPL_AttachSendRemove(t *testing.T) {
	te := newTestEnv(t)
	path := writeFile(t, "main.go", "package main\n")

	in := &scriptReader{lines: []string{
		"/file " + path,
		"what package is this?",
		"/rm main.go",
		"/list",
		"/quit",
	}}
	require.NoError(t, runREPL(te.Env, Args{}, in))

	text := te.client.lastText(t)
	assert.Contains(t, text, "### main.go")
	out := te.out.String()
	assert.Contains(t, out, "It returns 42.")
	assert.Contains(t, out, "Attached: nothing")
}

func TestREPL_KeyChange(t *testing.T) {
	te := newTestEnv(t)
	in := &scriptReader{lines: []string{"/key"}, secrets: []string{"sk-ant-repl"}}

	require.NoError(t, runREPL(te.Env, Args{}, in))
	require.Len(t, te.saved, 1)
	assert.Equal(t, "sk-ant-repl", te.saved[0].Credential)
	assert.Contains(t, te.out.String(), "API key updated.")
}

func TestTerminalHost_FiltersPaths(t *testing.T) {
	var out bytes.Buffer
	h := NewTerminalHost(&scriptReader{lines: []string{"notes.bmp"}}, &out, nil)

	_, err := h.SelectImages()
	assert.ErrorIs(t, err, host.ErrCanceled)
	assert.Contains(t, out.String(), "not an accepted file type")

	h.Queue("a.png", "b.txt")
	paths, err := h.SelectImages()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, paths)
}
