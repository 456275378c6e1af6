package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorobchenkoann/save-from-inst/internal/downloader"
	"github.com/gorobchenkoann/save-from-inst/pkg/config"
	"github.com/gorobchenkoann/save-from-inst/pkg/extractor"
	"github.com/gorobchenkoann/save-from-inst/pkg/instagram"
	"github.com/gorobchenkoann/save-from-inst/pkg/logger"
	"github.com/gorobchenkoann/save-from-inst/pkg/media"
	"github.com/gorobchenkoann/save-from-inst/pkg/metadata"
	"github.com/gorobchenkoann/save-from-inst/pkg/storage"
)

// ErrEmptyURL is returned by Lookup for a blank URL
var ErrEmptyURL = errors.New("url is empty")

// Scraper looks up Instagram posts and downloads their media
type Scraper struct {
	client   InstagramClient
	history  HistoryRecorder
	notifier Notifier
	config   *config.Config
	logger   logger.Logger
}

// Option configures optional collaborators of a Scraper
type Option func(*Scraper)

// WithHistory records every successful lookup in h
func WithHistory(h HistoryRecorder) Option {
	return func(s *Scraper) { s.history = h }
}

// WithNotifier sends a desktop notification when a download finishes
func WithNotifier(n Notifier) Option {
	return func(s *Scraper) { s.notifier = n }
}

// New creates a Scraper backed by an Instagram client built from cfg
func New(cfg *config.Config, log logger.Logger, opts ...Option) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	client, err := instagram.NewClientFromConfig(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create instagram client: %w", err)
	}

	return NewWithClient(client, cfg, log, opts...), nil
}

// NewWithClient creates a Scraper around an existing client
func NewWithClient(client InstagramClient, cfg *config.Config, log logger.Logger, opts ...Option) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	s := &Scraper{
		client: client,
		config: cfg,
		logger: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup fetches the post page at url and classifies its media.
// Fetch errors and extraction errors are both returned wrapped.
func (s *Scraper) Lookup(ctx context.Context, url string) (*media.Record, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}

	log := s.logger.WithField("url", url)
	log.Debug("Fetching post page")

	start := time.Now()
	page, err := s.client.FetchPage(ctx, url)
	if err != nil {
		log.WithError(err).Debug("Failed to fetch post page")
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	record, err := extractor.Parse(page, url)
	if err != nil {
		log.WithError(err).Debug("Failed to extract media")
		return nil, fmt.Errorf("failed to extract media from %s: %w", url, err)
	}

	log.InfoWithFields("Post classified", map[string]interface{}{
		"kind":      string(record.Kind),
		"items":     len(record.Items()),
		"shortcode": record.Shortcode,
		"duration":  time.Since(start),
	})

	if s.history != nil && s.config.History.Enabled {
		if _, err := s.history.Add(ctx, url, record); err != nil {
			log.WithError(err).Warn("Failed to record lookup in history")
		}
	}

	return record, nil
}

// Report summarizes a Download call
type Report struct {
	Dir          string
	Results      []downloader.Result
	Filtered     int
	MetadataPath string
}

// Counts returns how many jobs were saved, skipped as existing, and failed
func (r *Report) Counts() (downloaded, skipped, failed int) {
	for _, res := range r.Results {
		switch {
		case res.Skipped:
			skipped++
		case res.Success:
			downloaded++
		default:
			failed++
		}
	}
	return downloaded, skipped, failed
}

// Download saves every media item of record under the configured output
// directory. onResult, when set, is called as each file finishes. An error
// is returned alongside the report when any file failed.
func (s *Scraper) Download(ctx context.Context, record *media.Record, onResult func(downloader.Result)) (*Report, error) {
	if record == nil {
		return nil, fmt.Errorf("no media to download")
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid media record: %w", err)
	}

	name := record.Shortcode
	if name == "" {
		name = "post_" + time.Now().Format("20060102_150405")
	}

	dir := s.config.Output.BaseDirectory
	if s.config.Output.CreatePostFolders {
		dir = filepath.Join(dir, name)
	}

	store, err := storage.NewManager(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	report := &Report{Dir: store.GetOutputDir()}

	var jobs []downloader.Job
	for _, job := range downloader.Plan(record, name) {
		if s.filtered(job.Kind) {
			report.Filtered++
			continue
		}
		jobs = append(jobs, job)
	}

	log := s.logger.WithFields(map[string]interface{}{
		"shortcode": name,
		"dir":       report.Dir,
	})
	log.InfoWithFields("Starting download", map[string]interface{}{
		"jobs":     len(jobs),
		"filtered": report.Filtered,
	})

	if s.config.Download.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Download.DownloadTimeout)
		defer cancel()
	}

	report.Results = downloader.Run(ctx, jobs, s.config.Download.ConcurrentDownloads,
		s.client, store, s.config.Output.OverwriteExisting, s.logger, onResult)

	if s.config.Output.WriteMetadata {
		path, err := s.writeMetadata(record, name, report)
		if err != nil {
			log.WithError(err).Warn("Failed to write metadata")
		} else {
			report.MetadataPath = path
		}
	}

	downloaded, skipped, failed := report.Counts()
	log.InfoWithFields("Download finished", map[string]interface{}{
		"downloaded": downloaded,
		"skipped":    skipped,
		"failed":     failed,
	})
	s.notify(name, downloaded, failed)

	if failed > 0 {
		return report, fmt.Errorf("%d of %d downloads failed", failed, len(report.Results))
	}
	return report, nil
}

func (s *Scraper) filtered(kind media.SlideKind) bool {
	switch kind {
	case media.SlideVideo:
		return s.config.Download.SkipVideos
	case media.SlideImage:
		return s.config.Download.SkipImages
	}
	return false
}

// writeMetadata saves the sidecar. Items that were never downloaded, such as
// filtered videos, are marked skipped.
func (s *Scraper) writeMetadata(record *media.Record, name string, report *Report) (string, error) {
	meta := metadata.FromRecord(record)
	meta.Shortcode = name

	for i := range meta.Items {
		meta.Items[i].Skipped = true
	}
	for _, res := range report.Results {
		i := res.Job.Index - 1
		if i < 0 || i >= len(meta.Items) {
			continue
		}
		item := &meta.Items[i]
		item.File = res.Job.Filename
		item.FileSize = res.Size
		item.Skipped = res.Skipped
		if res.Error != nil {
			item.Error = res.Error.Error()
		}
	}

	return meta.Save(report.Dir)
}

func (s *Scraper) notify(name string, downloaded, failed int) {
	n := s.config.Notifications
	if s.notifier == nil || !n.Enabled {
		return
	}

	if failed > 0 {
		if n.OnError {
			s.notifier.SendError("Download failed", fmt.Sprintf("%s: %d file(s) failed", name, failed))
		}
		return
	}
	if n.OnComplete {
		s.notifier.SendSuccess("Download complete", fmt.Sprintf("%s: %d file(s) saved", name, downloaded))
	}
}
