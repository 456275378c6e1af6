package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorobchenkoann/save-from-inst/pkg/config"
	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
	"github.com/gorobchenkoann/save-from-inst/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockInstagram serves post pages under /p/<shortcode>/ and media files
// under /cdn/. Status codes can be injected per path.
type mockInstagram struct {
	server       *httptest.Server
	mu           sync.Mutex
	posts        map[string]string
	failures     map[string][]int
	requestCount int32
	cookies      []string
}

func newMockInstagram(t *testing.T) *mockInstagram {
	m := &mockInstagram{
		posts:    make(map[string]string),
		failures: make(map[string][]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/p/", m.handlePost)
	mux.HandleFunc("/cdn/", m.handleMedia)
	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

// failNext makes the next requests to path answer with the given statuses
func (m *mockInstagram) failNext(path string, statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = append(m.failures[path], statuses...)
}

func (m *mockInstagram) injected(w http.ResponseWriter, r *http.Request) bool {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, err := r.Cookie("sessionid"); err == nil {
		m.cookies = append(m.cookies, c.Value)
	}

	queue := m.failures[r.URL.Path]
	if len(queue) == 0 {
		return false
	}
	status := queue[0]
	m.failures[r.URL.Path] = queue[1:]
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "1")
	}
	w.WriteHeader(status)
	return true
}

func (m *mockInstagram) handlePost(w http.ResponseWriter, r *http.Request) {
	if m.injected(w, r) {
		return
	}
	shortcode := strings.Trim(strings.TrimPrefix(r.URL.Path, "/p/"), "/")

	m.mu.Lock()
	page, ok := m.posts[shortcode]
	m.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, page)
}

func (m *mockInstagram) handleMedia(w http.ResponseWriter, r *http.Request) {
	if m.injected(w, r) {
		return
	}
	// The file content is its own path so tests can check what was saved
	w.Header().Set("Content-Type", "application/octet-stream")
	fmt.Fprint(w, r.URL.Path)
}

// addCarousel registers a post whose slides point back at the server
func (m *mockInstagram) addCarousel(t *testing.T, shortcode string, kinds ...string) {
	var edges []interface{}
	for i, kind := range kinds {
		node := map[string]interface{}{
			"__typename":  "GraphImage",
			"display_url": fmt.Sprintf("%s/cdn/%s_%d.jpg", m.server.URL, shortcode, i),
		}
		if kind == "video" {
			node["__typename"] = "GraphVideo"
			node["video_url"] = fmt.Sprintf("%s/cdn/%s_%d.mp4", m.server.URL, shortcode, i)
		}
		edges = append(edges, map[string]interface{}{"node": node})
	}

	page := postPage(t, map[string]interface{}{
		"__typename":               "GraphSidecar",
		"shortcode":                shortcode,
		"edge_sidecar_to_children": map[string]interface{}{"edges": edges},
	})

	m.mu.Lock()
	m.posts[shortcode] = page
	m.mu.Unlock()
}

func (m *mockInstagram) postURL(shortcode string) string {
	return m.server.URL + "/p/" + shortcode + "/"
}

func endToEndConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = t.TempDir()
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Fetch.MaxAttempts = 3
	cfg.Fetch.BaseDelay = 10 * time.Millisecond
	cfg.Fetch.MaxDelay = 50 * time.Millisecond
	cfg.RateLimit.RequestsPerMinute = 600
	return cfg
}

func TestEndToEndLookupAndDownload(t *testing.T) {
	mock := newMockInstagram(t)
	mock.addCarousel(t, "E2E1", "image", "video", "image")

	cfg := endToEndConfig(t)
	s, err := New(cfg, logger.NewTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	record, err := s.Lookup(ctx, mock.postURL("E2E1"))
	require.NoError(t, err)
	require.Equal(t, media.KindCarousel, record.Kind)
	require.Len(t, record.Slides, 3)

	report, err := s.Download(ctx, record, nil)
	require.NoError(t, err)

	entries, err := os.ReadDir(report.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "three media files and the metadata sidecar")

	data, err := os.ReadFile(filepath.Join(report.Dir, "E2E1_02.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "/cdn/E2E1_1.mp4", string(data))

	var sidecar map[string]interface{}
	raw, err := os.ReadFile(report.MetadataPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &sidecar))
	assert.Equal(t, "E2E1", sidecar["shortcode"])
}

func TestEndToEndRetriesTransientFailures(t *testing.T) {
	mock := newMockInstagram(t)
	mock.addCarousel(t, "RETRY", "image")
	mock.failNext("/p/RETRY/", http.StatusServiceUnavailable)
	mock.failNext("/cdn/RETRY_0.jpg", http.StatusBadGateway)

	cfg := endToEndConfig(t)
	s, err := New(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	record, err := s.Lookup(context.Background(), mock.postURL("RETRY"))
	require.NoError(t, err)

	report, err := s.Download(context.Background(), record, nil)
	require.NoError(t, err)
	downloaded, _, _ := report.Counts()
	assert.Equal(t, 1, downloaded)
	assert.Equal(t, int32(4), atomic.LoadInt32(&mock.requestCount))
}

func TestEndToEndNotFoundIsNotRetried(t *testing.T) {
	mock := newMockInstagram(t)

	s, err := New(endToEndConfig(t), logger.NewNopLogger())
	require.NoError(t, err)

	_, err = s.Lookup(context.Background(), mock.postURL("GONE"))
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&mock.requestCount))
}

func TestEndToEndSendsSessionCookies(t *testing.T) {
	mock := newMockInstagram(t)
	mock.addCarousel(t, "PRIVATE", "image")

	cfg := endToEndConfig(t)
	cfg.Instagram.SessionID = "session-value"
	cfg.Instagram.CSRFToken = "csrf-value"

	s, err := New(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	_, err = s.Lookup(context.Background(), mock.postURL("PRIVATE"))
	require.NoError(t, err)

	mock.mu.Lock()
	defer mock.mu.Unlock()
	assert.Equal(t, []string{"session-value"}, mock.cookies)
}
