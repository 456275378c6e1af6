package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gorobchenkoann/save-from-inst/internal/downloader"
	"github.com/gorobchenkoann/save-from-inst/pkg/config"
	"github.com/gorobchenkoann/save-from-inst/pkg/extractor"
	"github.com/gorobchenkoann/save-from-inst/pkg/history"
	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
	"github.com/gorobchenkoann/save-from-inst/pkg/media"
	"github.com/gorobchenkoann/save-from-inst/pkg/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient serves pages and media from memory
type fakeClient struct {
	mu        sync.Mutex
	pages     map[string]string
	files     map[string][]byte
	pageErr   error
	downloads []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{pages: map[string]string{}, files: map[string][]byte{}}
}

func (f *fakeClient) FetchPage(_ context.Context, url string) (string, error) {
	if f.pageErr != nil {
		return "", f.pageErr
	}
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("no page for %s", url)
	}
	return page, nil
}

func (f *fakeClient) Download(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads = append(f.downloads, url)
	data, ok := f.files[url]
	if !ok {
		return nil, fmt.Errorf("no file at %s", url)
	}
	return data, nil
}

type fakeHistory struct {
	urls []string
	err  error
}

func (h *fakeHistory) Add(_ context.Context, url string, record *media.Record) (*history.Entry, error) {
	if h.err != nil {
		return nil, h.err
	}
	h.urls = append(h.urls, url)
	return &history.Entry{URL: url, Shortcode: record.Shortcode, Kind: record.Kind}, nil
}

type fakeNotifier struct {
	successes []string
	errors    []string
}

func (n *fakeNotifier) SendSuccess(title, message string) { n.successes = append(n.successes, message) }
func (n *fakeNotifier) SendError(title, message string)   { n.errors = append(n.errors, message) }

func postPage(t *testing.T, shortcodeMedia map[string]interface{}) string {
	t.Helper()
	payload := map[string]interface{}{
		"entry_data": map[string]interface{}{
			"PostPage": []interface{}{
				map[string]interface{}{
					"graphql": map[string]interface{}{"shortcode_media": shortcodeMedia},
				},
			},
		},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return `<html><head><meta property="og:description" content="A day at the beach"></head>` +
		`<body><script>window._sharedData = ` + string(data) + `;</script></body></html>`
}

func carouselPage(t *testing.T) string {
	return postPage(t, map[string]interface{}{
		"__typename": "GraphSidecar",
		"shortcode":  "CAROUSEL1",
		"edge_sidecar_to_children": map[string]interface{}{
			"edges": []interface{}{
				map[string]interface{}{"node": map[string]interface{}{"__typename": "GraphImage", "display_url": "https://cdn/1.jpg"}},
				map[string]interface{}{"node": map[string]interface{}{"__typename": "GraphVideo", "display_url": "https://cdn/2.jpg", "video_url": "https://cdn/2.mp4"}},
				map[string]interface{}{"node": map[string]interface{}{"__typename": "GraphImage", "display_url": "https://cdn/3.jpg"}},
			},
		},
	})
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = t.TempDir()
	return cfg
}

const postURL = "https://www.instagram.com/p/CAROUSEL1/"

func TestLookupClassifiesAndRecordsHistory(t *testing.T) {
	client := newFakeClient()
	client.pages[postURL] = carouselPage(t)
	hist := &fakeHistory{}

	s := NewWithClient(client, testConfig(t), logger.NewTestLogger(), WithHistory(hist))
	record, err := s.Lookup(context.Background(), "  "+postURL+"  ")

	require.NoError(t, err)
	assert.Equal(t, media.KindCarousel, record.Kind)
	require.Len(t, record.Slides, 3)
	assert.Equal(t, media.SlideVideo, record.Slides[1].Kind)
	assert.Equal(t, "https://cdn/2.mp4", record.Slides[1].VideoURL)
	assert.Equal(t, postURL, record.SourceURL)
	assert.Equal(t, "A day at the beach", record.Caption)
	assert.Equal(t, []string{postURL}, hist.urls)
}

func TestLookupEmptyURL(t *testing.T) {
	s := NewWithClient(newFakeClient(), testConfig(t), logger.NewNopLogger())
	_, err := s.Lookup(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestLookupFetchError(t *testing.T) {
	client := newFakeClient()
	client.pageErr = errors.New("connection refused")
	hist := &fakeHistory{}

	s := NewWithClient(client, testConfig(t), logger.NewNopLogger(), WithHistory(hist))
	_, err := s.Lookup(context.Background(), postURL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, hist.urls)
}

func TestLookupExtractionError(t *testing.T) {
	client := newFakeClient()
	client.pages[postURL] = "<html>login required</html>"

	s := NewWithClient(client, testConfig(t), logger.NewNopLogger())
	_, err := s.Lookup(context.Background(), postURL)

	var extractionErr *extractor.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, extractor.ReasonMarkerNotFound, extractionErr.Reason)
}

func TestLookupHistoryFailureIsNotFatal(t *testing.T) {
	client := newFakeClient()
	client.pages[postURL] = carouselPage(t)
	log := logger.NewTestLogger()

	s := NewWithClient(client, testConfig(t), log, WithHistory(&fakeHistory{err: errors.New("disk full")}))
	_, err := s.Lookup(context.Background(), postURL)

	require.NoError(t, err)
	assert.True(t, log.HasMessage("Failed to record lookup in history"))
}

func TestLookupHistoryDisabled(t *testing.T) {
	client := newFakeClient()
	client.pages[postURL] = carouselPage(t)
	hist := &fakeHistory{}
	cfg := testConfig(t)
	cfg.History.Enabled = false

	s := NewWithClient(client, cfg, logger.NewNopLogger(), WithHistory(hist))
	_, err := s.Lookup(context.Background(), postURL)

	require.NoError(t, err)
	assert.Empty(t, hist.urls)
}

func carouselRecord() *media.Record {
	record := media.NewCarousel([]media.Slide{
		media.ImageSlide("https://cdn/1.jpg"),
		media.VideoSlide("https://cdn/2.mp4"),
		media.ImageSlide("https://cdn/3.jpg"),
	})
	record.Shortcode = "CAROUSEL1"
	record.SourceURL = postURL
	return record
}

func serveCarouselFiles(client *fakeClient) {
	client.files["https://cdn/1.jpg"] = []byte("one")
	client.files["https://cdn/2.mp4"] = []byte("two-video")
	client.files["https://cdn/3.jpg"] = []byte("three")
}

func TestDownloadCarousel(t *testing.T) {
	client := newFakeClient()
	serveCarouselFiles(client)
	cfg := testConfig(t)
	notifier := &fakeNotifier{}
	cfg.Notifications.Enabled = true
	cfg.Notifications.OnComplete = true

	var mu sync.Mutex
	var seen int
	s := NewWithClient(client, cfg, logger.NewNopLogger(), WithNotifier(notifier))
	report, err := s.Download(context.Background(), carouselRecord(), func(downloader.Result) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	require.NoError(t, err)
	assert.Equal(t, 3, seen)
	assert.Equal(t, filepath.Join(cfg.Output.BaseDirectory, "CAROUSEL1"), report.Dir)

	downloaded, skipped, failed := report.Counts()
	assert.Equal(t, 3, downloaded)
	assert.Zero(t, skipped)
	assert.Zero(t, failed)

	for i, want := range []string{"CAROUSEL1_01.jpg", "CAROUSEL1_02.mp4", "CAROUSEL1_03.jpg"} {
		assert.Equal(t, want, report.Results[i].Job.Filename)
		assert.FileExists(t, filepath.Join(report.Dir, want))
	}
	data, err := os.ReadFile(filepath.Join(report.Dir, "CAROUSEL1_02.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "two-video", string(data))

	meta, err := metadata.Load(report.Dir, "CAROUSEL1")
	require.NoError(t, err)
	require.Len(t, meta.Items, 3)
	assert.Equal(t, "CAROUSEL1_03.jpg", meta.Items[2].File)
	assert.Equal(t, int64(5), meta.Items[2].FileSize)

	assert.Len(t, notifier.successes, 1)
	assert.Empty(t, notifier.errors)
}

func TestDownloadSkipsExisting(t *testing.T) {
	client := newFakeClient()
	serveCarouselFiles(client)
	cfg := testConfig(t)
	s := NewWithClient(client, cfg, logger.NewNopLogger())

	_, err := s.Download(context.Background(), carouselRecord(), nil)
	require.NoError(t, err)

	report, err := s.Download(context.Background(), carouselRecord(), nil)
	require.NoError(t, err)
	_, skipped, _ := report.Counts()
	assert.Equal(t, 3, skipped)
	assert.Len(t, client.downloads, 3, "second run must not download again")
}

func TestDownloadFilterVideos(t *testing.T) {
	client := newFakeClient()
	serveCarouselFiles(client)
	cfg := testConfig(t)
	cfg.Download.SkipVideos = true
	cfg.Output.CreatePostFolders = false

	s := NewWithClient(client, cfg, logger.NewNopLogger())
	report, err := s.Download(context.Background(), carouselRecord(), nil)

	require.NoError(t, err)
	assert.Equal(t, cfg.Output.BaseDirectory, report.Dir)
	assert.Equal(t, 1, report.Filtered)
	assert.Len(t, report.Results, 2)
	assert.NoFileExists(t, filepath.Join(report.Dir, "CAROUSEL1_02.mp4"))

	meta, err := metadata.Load(report.Dir, "CAROUSEL1")
	require.NoError(t, err)
	assert.True(t, meta.Items[1].Skipped)
	assert.Empty(t, meta.Items[1].File)
}

func TestDownloadPartialFailure(t *testing.T) {
	client := newFakeClient()
	serveCarouselFiles(client)
	delete(client.files, "https://cdn/3.jpg")
	cfg := testConfig(t)
	notifier := &fakeNotifier{}
	cfg.Notifications.Enabled = true
	cfg.Notifications.OnError = true

	s := NewWithClient(client, cfg, logger.NewNopLogger(), WithNotifier(notifier))
	report, err := s.Download(context.Background(), carouselRecord(), nil)

	require.Error(t, err)
	require.NotNil(t, report)
	downloaded, _, failed := report.Counts()
	assert.Equal(t, 2, downloaded)
	assert.Equal(t, 1, failed)
	assert.Len(t, notifier.errors, 1)

	meta, err := metadata.Load(report.Dir, "CAROUSEL1")
	require.NoError(t, err)
	assert.NotEmpty(t, meta.Items[2].Error)
}

func TestDownloadSingleImage(t *testing.T) {
	client := newFakeClient()
	client.files["https://cdn/photo.jpg"] = []byte("photo")
	record := media.NewImage("https://cdn/photo.jpg")
	record.Shortcode = "IMG1"

	s := NewWithClient(client, testConfig(t), logger.NewNopLogger())
	report, err := s.Download(context.Background(), record, nil)

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(report.Dir, "IMG1.jpg"))
}

func TestDownloadRejectsInvalidRecord(t *testing.T) {
	s := NewWithClient(newFakeClient(), testConfig(t), logger.NewNopLogger())

	_, err := s.Download(context.Background(), nil, nil)
	assert.Error(t, err)

	_, err = s.Download(context.Background(), &media.Record{Kind: media.KindImage}, nil)
	assert.Error(t, err)
}

func TestLookupOverHTTP(t *testing.T) {
	page := carouselPage(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p/CAROUSEL1/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(page))
	}))
	defer server.Close()

	store, err := history.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer store.Close()

	cfg := testConfig(t)
	cfg.Fetch.MaxAttempts = 1
	s, err := New(cfg, logger.NewNopLogger(), WithHistory(store))
	require.NoError(t, err)

	record, err := s.Lookup(context.Background(), server.URL+"/p/CAROUSEL1/")
	require.NoError(t, err)
	assert.Equal(t, "CAROUSEL1", record.Shortcode)

	_, err = s.Lookup(context.Background(), server.URL+"/p/missing/")
	assert.Error(t, err)

	entries, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, media.KindCarousel, entries[0].Kind)
}
