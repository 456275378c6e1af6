package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorobchenkoann/save-from-inst/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "loud"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "app.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shell.log")
	l, err := New(&config.LoggingConfig{Level: "debug", File: path})
	require.NoError(t, err)

	l.WithField("url", "https://www.instagram.com/p/abc/").Debug("fetching page")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fetching page")
	assert.Contains(t, string(data), `"app":"save-from-inst"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("visible warn")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warn")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, zerolog.DebugLevel)

	child := parent.WithField("shortcode", "BqdB0YHgOri")
	child.Info("child")
	parent.Info("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"shortcode":"BqdB0YHgOri"`)
	assert.NotContains(t, lines[1], "shortcode")
}

func TestFieldChainingAndTypes(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	l.WithField("kind", "carousel").
		WithFields(map[string]interface{}{
			"slides":   3,
			"video":    true,
			"duration": 2 * time.Second,
		}).
		InfoWithFields("classified", map[string]interface{}{"attempt": int64(1)})

	out := buf.String()
	assert.Contains(t, out, `"kind":"carousel"`)
	assert.Contains(t, out, `"slides":3`)
	assert.Contains(t, out, `"video":true`)
	assert.Contains(t, out, `"attempt":1`)
	assert.Contains(t, out, "classified")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("connection reset")).Error("fetch failed")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestGlobalLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.log")
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "debug", File: path}))
	t.Cleanup(func() { SetLogger(NewNopLogger()) })

	require.NotNil(t, GetLogger())
	WithField("key", "value").Info("with field")
	WithError(errors.New("boom")).Error("with error")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "with field")
	assert.Contains(t, string(data), "boom")
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://example.com", 200, 15*time.Millisecond)
	LogRequest(tl, "GET", "https://example.com", 404, time.Millisecond)
	LogRequest(tl, "GET", "https://example.com", 503, time.Millisecond)
	LogDownload(tl, "abc", "abc.jpg", "image", nil)
	LogDownload(tl, "abc", "abc.mp4", "video", errors.New("disk full"))

	assert.Len(t, tl.GetMessagesByLevel("DEBUG"), 1)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	assert.Len(t, tl.GetMessagesByLevel("ERROR"), 2)
	assert.True(t, tl.HasMessage("Download completed"))
}

func TestTestLoggerSharesCapture(t *testing.T) {
	tl := NewTestLogger()
	tl.WithField("a", 1).WithError(errors.New("x")).Warn("child warn")
	tl.Info("root info")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, 1, msgs[0].Fields["a"])
	assert.EqualError(t, msgs[0].Error, "x")
	assert.Nil(t, msgs[1].Fields)
	assert.False(t, tl.HasError())

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}
