package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jkmcrg/diybot/internal/config"
	"github.com/jkmcrg/diybot/internal/llm"
	"github.com/jkmcrg/diybot/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "diybot v"+server.Version+"\n", out)
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)

	var catalog []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &catalog))
	assert.Len(t, catalog, 9)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diybot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ollama:\n  model: llama3\n"), 0o600))

	opts := &options{configPath: path, debug: true, ollamaURL: "http://ollama:11434"}
	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "llama3", cfg.Ollama.Model)
	assert.Equal(t, "http://ollama:11434", cfg.Ollama.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)

	opts = &options{ollamaURL: "not a url"}
	_, err = opts.loadConfig()
	assert.ErrorContains(t, err, "invalid config")
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(config.LoggingConfig{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	_, err = newLogger(config.LoggingConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}

type stubModel struct{}

func (stubModel) Chat(context.Context, []llm.Message) (string, error) { return "ok", nil }
func (stubModel) Complete(context.Context, string) (string, error)   { return "{}", nil }

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServeHTTP_ShutsDownOnCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Addr = freeAddr(t)
	app, cleanup, err := server.New(cfg, nil, server.WithModel(stubModel{}))
	require.NoError(t, err)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveHTTP(ctx, app, zap.NewNop()) }()

	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + cfg.Server.Addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serveHTTP did not return after cancel")
	}
}
