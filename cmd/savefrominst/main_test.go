package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorobchenkoann/save-from-inst/pkg/config"
	"github.com/gorobchenkoann/save-from-inst/pkg/history"
	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
	"github.com/gorobchenkoann/save-from-inst/pkg/ui"
	"github.com/gorobchenkoann/save-from-inst/pkg/ui/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const imagePage = `<html><script>window._sharedData = {"entry_data":{"PostPage":[{"graphql":{"shortcode_media":{"__typename":"GraphImage","display_url":"https://cdn.example/1.jpg"}}}]}};</script></html>`

// stubExit replaces osExit for the duration of the test
func stubExit(t *testing.T, fn func(code int)) {
	t.Helper()
	original := osExit
	osExit = fn
	t.Cleanup(func() { osExit = original })
}

func TestExitIfFailed(t *testing.T) {
	var calls []string
	exitCode := -1
	stubExit(t, func(code int) {
		calls = append(calls, "exit")
		exitCode = code
	})

	exitIfFailed(assert.AnError,
		func() { calls = append(calls, "stop") },
		func() { calls = append(calls, "cleanup") },
	)
	assert.Equal(t, []string{"cleanup", "stop", "exit"}, calls)
	assert.Equal(t, 1, exitCode)

	calls = nil
	exitCode = -1
	exitIfFailed(nil, func() { calls = append(calls, "cleanup") })
	assert.Equal(t, []string{"cleanup"}, calls)
	assert.Equal(t, -1, exitCode)
}

func newCommandConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	cfg.Output.BaseDirectory = t.TempDir()
	cfg.Fetch.MaxAttempts = 1
	cfg.RateLimit.RequestsPerMinute = 600
	return cfg
}

func TestFailedFetchClosesHistoryBeforeExit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>login required</html>"))
	}))
	defer server.Close()

	ctx := context.Background()
	cfg := newCommandConfig(t)
	log := logger.NewNopLogger()

	s, cleanup, err := newScraper(ctx, cfg, log)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = fetchPost(ctx, ui.NewPrinter(&buf), s, log, server.URL+"/p/BqdB0YHgOri/")
	require.Error(t, err)
	assert.Contains(t, buf.String(), tui.ErrorText)

	closed := false
	exitCode := -1
	stubExit(t, func(code int) {
		assert.True(t, closed, "history must be closed before exiting")
		exitCode = code
	})
	exitIfFailed(err, func() {
		cleanup()
		closed = true
	})
	assert.Equal(t, 1, exitCode)
}

func TestFetchPostRecordsHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(imagePage))
	}))
	defer server.Close()

	ctx := context.Background()
	cfg := newCommandConfig(t)
	log := logger.NewNopLogger()

	s, cleanup, err := newScraper(ctx, cfg, log)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, fetchPost(ctx, ui.NewPrinter(&buf), s, log, server.URL+"/p/BqdB0YHgOri/"))
	assert.Contains(t, buf.String(), "https://cdn.example/1.jpg")

	stubExit(t, func(code int) { t.Fatalf("unexpected exit %d", code) })
	exitIfFailed(nil, cleanup)

	store, err := history.Open(ctx, cfg.History.Path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, server.URL+"/p/BqdB0YHgOri/", entries[0].URL)
}
