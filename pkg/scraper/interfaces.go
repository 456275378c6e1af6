package scraper

import (
	"context"

	"github.com/gorobchenkoann/save-from-inst/pkg/history"
	"github.com/gorobchenkoann/save-from-inst/pkg/media"
)

// InstagramClient fetches post pages and the media files they reference
type InstagramClient interface {
	FetchPage(ctx context.Context, url string) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// HistoryRecorder records successful lookups
type HistoryRecorder interface {
	Add(ctx context.Context, url string, record *media.Record) (*history.Entry, error)
}

// Notifier reports finished downloads outside the terminal
type Notifier interface {
	SendSuccess(title, message string)
	SendError(title, message string)
}
