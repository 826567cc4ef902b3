// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/cloud"
	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/gemini"
	"github.com/jeranaias/streamchat/internal/model"
	"github.com/jeranaias/streamchat/internal/session"
	"github.com/jeranaias/streamchat/internal/store"
)

// =============================================================================
// HELPERS
// =============================================================================

// recorder is a source that answers every prompt with "re: <prompt>" and
// remembers the requests it saw.
type recorder struct {
	mu   sync.Mutex
	reqs []session.Request
	err  error
	cfg  *config.Config
}

func (r *recorder) Stream(_ context.Context, req session.Request) iter.Seq2[string, error] {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()
	return session.Fragments(r.err, "re: ", req.Prompt)
}

func (r *recorder) requests() []session.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]session.Request(nil), r.reqs...)
}

func (r *recorder) factory(_ context.Context, cfg *config.Config, _ *zap.Logger) (session.Source, error) {
	r.cfg = cfg
	return r, nil
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STREAMCHAT_PROVIDER", "STREAMCHAT_MODEL", "GEMINI_API_KEY", "GOOGLE_API_KEY",
		"STREAMCHAT_OLLAMA_URL", "STREAMCHAT_CLOUD_KEY", "OPENROUTER_API_KEY", "STREAMCHAT_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

// testConfig writes a config file that logs into the test's temp dir.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[log]\nfile = " + `"` + filepath.ToSlash(filepath.Join(dir, "test.log")) + `"` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

type result struct {
	out, err string
	runErr   error
}

func run(t *testing.T, src *recorder, stdin string, args ...string) result {
	t.Helper()
	clearEnv(t)

	var out, errOut bytes.Buffer
	app := &App{
		In:        strings.NewReader(stdin),
		Out:       &out,
		Err:       &errOut,
		NewSource: src.factory,
	}
	cmd := NewRootCommand(app)
	cmd.SetArgs(append([]string{"--config", testConfig(t)}, args...))
	runErr := cmd.ExecuteContext(context.Background())
	return result{out: out.String(), err: errOut.String(), runErr: runErr}
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_StreamsPlainText(t *testing.T) {
	src := &recorder{}
	res := run(t, src, "", "ask", "what", "is", "go?")

	require.NoError(t, res.runErr)
	assert.Equal(t, "re: what is go?\n", res.out)
	require.Len(t, src.requests(), 1)
	assert.Empty(t, src.requests()[0].History)
}

func TestAsk_PromptFromStdin(t *testing.T) {
	src := &recorder{}
	res := run(t, src, "  piped prompt\n", "ask")

	require.NoError(t, res.runErr)
	assert.Equal(t, "piped prompt", src.requests()[0].Prompt)
}

func TestAsk_NoPrompt(t *testing.T) {
	res := run(t, &recorder{}, "   ", "ask")
	require.Error(t, res.runErr)
	assert.Contains(t, res.runErr.Error(), "no prompt")
}

func TestAsk_FailurePrintsApology(t *testing.T) {
	src := &recorder{err: errors.New("upstream closed")}
	res := run(t, src, "", "ask", "hi")

	require.Error(t, res.runErr)
	assert.ErrorIs(t, res.runErr, errResponse)
	assert.Contains(t, res.out, session.Apology)
	assert.NotContains(t, res.out, "upstream closed")
}

func TestFlags_OverrideConfig(t *testing.T) {
	src := &recorder{}
	res := run(t, src, "", "--provider", "OLLAMA", "--model", "qwen2.5-coder", "ask", "hi")

	require.NoError(t, res.runErr)
	require.NotNil(t, src.cfg)
	assert.Equal(t, config.ProviderOllama, src.cfg.Provider.Name)
	assert.Equal(t, "qwen2.5-coder", src.cfg.ActiveModel())
}

func TestFlags_InvalidProvider(t *testing.T) {
	res := run(t, &recorder{}, "", "--provider", "bard", "ask", "hi")
	require.Error(t, res.runErr)
	assert.Contains(t, res.runErr.Error(), "provider.name")
}

// =============================================================================
// CHAT
// =============================================================================

func TestChat_PipedConversation(t *testing.T) {
	src := &recorder{}
	res := run(t, src, "first\n\n/stats\nsecond\n/quit\nnever sent\n", "chat")

	require.NoError(t, res.runErr)
	assert.Contains(t, res.out, "re: first\n")
	assert.Contains(t, res.out, "re: second\n")
	assert.NotContains(t, res.out, "never sent")

	reqs := src.requests()
	require.Len(t, reqs, 2)
	require.Len(t, reqs[1].History, 2)
	assert.Equal(t, model.RoleUser, reqs[1].History[0].Role)
	assert.Equal(t, "re: first", reqs[1].History[1].Text)
}

func TestChat_History(t *testing.T) {
	src := &recorder{}
	long := strings.Repeat("word ", 20)
	res := run(t, src, "/history\nfirst\n"+long+"\n/history\n", "chat")

	require.NoError(t, res.runErr)
	assert.Contains(t, res.out, "No messages yet.")
	assert.Contains(t, res.out, "  1  you        first\n")
	assert.Contains(t, res.out, "  2  assistant  re: first\n")

	// Long messages are cut to one preview line.
	assert.Contains(t, res.out, "  3  you        "+strings.Repeat("word ", 11)+"wo...\n")
	assert.Len(t, src.requests(), 2, "/history is never sent")
}

func TestChat_UnknownCommand(t *testing.T) {
	res := run(t, &recorder{}, "/clear\n", "chat")
	require.NoError(t, res.runErr)
	assert.Contains(t, res.err, "unknown command /clear")
}

func TestChat_FailureReported(t *testing.T) {
	src := &recorder{err: errors.New("boom")}
	res := run(t, src, "hi\n", "chat")

	require.NoError(t, res.runErr)
	assert.Contains(t, res.out, session.Apology)
	assert.Contains(t, res.err, "response failed")
}

func TestRoot_FallsBackToLineMode(t *testing.T) {
	src := &recorder{}
	res := run(t, src, "hello\n")

	require.NoError(t, res.runErr)
	assert.Equal(t, "re: hello\n", res.out)
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigInit_RefusesExistingFile(t *testing.T) {
	res := run(t, &recorder{}, "", "config", "init")
	require.Error(t, res.runErr)
	assert.Contains(t, res.runErr.Error(), "already exists")
}

func TestConfigInit_WritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	res := run(t, &recorder{}, "", "config", "init",
		"--config", path, "--provider", "ollama", "--model", "qwen2.5-coder")

	require.NoError(t, res.runErr)
	assert.Equal(t, "Wrote "+path+"\n", res.out)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOllama, cfg.Provider.Name)
	assert.Equal(t, "qwen2.5-coder", cfg.ActiveModel())
}

func TestConfigInit_ForceOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0600))

	res := run(t, &recorder{}, "", "config", "init", "--config", path, "--force")
	require.NoError(t, res.runErr, "init must not need the old file to parse")

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Provider.Name, cfg.Provider.Name)
}

func TestConfigInit_DefaultLocation(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	var out bytes.Buffer
	app := &App{In: strings.NewReader(""), Out: &out, Err: &out}
	cmd := NewRootCommand(app)
	cmd.SetArgs([]string{"config", "init"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	path := filepath.Join(home, ".streamchat", "config.toml")
	assert.FileExists(t, path)
	assert.Contains(t, out.String(), path)
}

func TestConfigShow_RedactsKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "[log]\nfile = \"" + filepath.ToSlash(filepath.Join(dir, "test.log")) + "\"\n" +
		"[gemini]\napi_key = \"sk-very-secret\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	res := run(t, &recorder{}, "", "config", "show", "--config", path)
	require.NoError(t, res.runErr)
	assert.Contains(t, res.out, "# "+path)
	assert.Contains(t, res.out, "[REDACTED]")
	assert.NotContains(t, res.out, "sk-very-secret")
}

// =============================================================================
// PROVIDERS
// =============================================================================

func TestNewSource(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	_, err := NewSource(ctx, cfg, nil)
	assert.ErrorIs(t, err, gemini.ErrMissingAPIKey)

	cfg.Provider.Name = config.ProviderCloud
	_, err = NewSource(ctx, cfg, nil)
	assert.ErrorIs(t, err, cloud.ErrNotConfigured)

	cfg.Provider.Name = config.ProviderOllama
	cfg.Ollama.URL = "http://127.0.0.1:1"
	src, err := NewSource(ctx, cfg, nil)
	require.NoError(t, err, "an unreachable server is not fatal")
	assert.NotNil(t, src)

	cfg.Provider.Name = "bard"
	_, err = NewSource(ctx, cfg, nil)
	assert.ErrorContains(t, err, "unknown provider")
}

// =============================================================================
// PRINTER
// =============================================================================

func TestStreamPrinter_DeltasAndReplacement(t *testing.T) {
	var buf bytes.Buffer
	p := newStreamPrinter(&buf)

	msgs := func(text string, pending bool) []model.Message {
		return []model.Message{
			{ID: "u", Role: model.RoleUser, Text: "q"},
			{ID: "a", Role: model.RoleAssistant, Text: text, Pending: pending},
		}
	}

	p.Observe(store.Snapshot{Version: 1, Messages: msgs("", true)})
	p.Observe(store.Snapshot{Version: 2, Messages: msgs("Hel", false)})
	p.Observe(store.Snapshot{Version: 4, Messages: msgs("Hello", false)})
	p.Observe(store.Snapshot{Version: 3, Messages: msgs("He", false)})
	assert.Equal(t, "Hello", buf.String())

	p.Observe(store.Snapshot{Version: 5, Messages: msgs("Sorry.", false)})
	assert.Equal(t, "Hello\nSorry.", buf.String())
	assert.Equal(t, "Sorry.", p.Text())
}
