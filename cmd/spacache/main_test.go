package main

import (
	"bytes"
	"context"
	"io"
	"net"
	nethttp "net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/spacache/internal/config"
)

func TestParseFlags(t *testing.T) {
	path, overrides, err := parseFlags([]string{
		"--config", "/etc/spacache.yaml",
		"--root", "/srv/dist",
		"--workers", "4",
		"--log-level", "debug",
		"--shutdown-timeout", "2s",
	}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "/etc/spacache.yaml", path)
	assert.Equal(t, map[string]any{
		"root":            "/srv/dist",
		"workers":         "4",
		"log.level":       "debug",
		"shutdownTimeout": "2s",
	}, overrides)
}

func TestParseFlagsRejectsArgs(t *testing.T) {
	_, _, err := parseFlags([]string{"extra"}, io.Discard)
	require.Error(t, err)

	_, _, err = parseFlags([]string{"--no-such-flag"}, io.Discard)
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(config.LogConfig{Level: "info", Format: "xml"}, &buf)
	require.Error(t, err)
}

func TestRunMissingRoot(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CONFIG_JSON", "")

	err := run(context.Background(), []string{
		"--root", filepath.Join(t.TempDir(), "missing"),
		"--addr", "127.0.0.1:0",
	}, io.Discard, nil)
	require.Error(t, err)
}

func TestRunServesUntilCanceled(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CONFIG_JSON", "")

	dir := t.TempDir()
	index := []byte("<!doctype html><title>app</title>")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), index, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listening := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{
			"--root", dir,
			"--addr", "127.0.0.1:0",
			"--metrics-addr", "127.0.0.1:0",
			"--cache-control", "no-cache",
			"--shutdown-timeout", "2s",
		}, io.Discard, listening)
	}()

	var addr net.Addr
	select {
	case addr = <-listening:
	case err := <-done:
		t.Fatalf("run() returned early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := nethttp.Get("http://" + addr.String() + "/deep/link")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Equal(t, index, body)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
