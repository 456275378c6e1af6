// Package metadata writes a JSON sidecar describing a downloaded post.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorobchenkoann/save-from-inst/pkg/media"
)

// PostMetadata describes a downloaded post and the files saved for it
type PostMetadata struct {
	Shortcode string     `json:"shortcode"`
	SourceURL string     `json:"source_url,omitempty"`
	Kind      media.Kind `json:"kind"`
	Caption   string     `json:"caption,omitempty"`

	Items []ItemMetadata `json:"items"`

	DownloadedAt time.Time `json:"downloaded_at"`
}

// ItemMetadata describes one saved media file
type ItemMetadata struct {
	Index    int             `json:"index"`
	Kind     media.SlideKind `json:"kind"`
	URL      string          `json:"url"`
	File     string          `json:"file,omitempty"`
	FileSize int64           `json:"file_size,omitempty"`
	Skipped  bool            `json:"skipped,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// FromRecord builds metadata for record with one item per media item, in order.
// File details are filled in by the caller as downloads complete.
func FromRecord(record *media.Record) *PostMetadata {
	meta := &PostMetadata{
		Shortcode:    record.Shortcode,
		SourceURL:    record.SourceURL,
		Kind:         record.Kind,
		Caption:      record.Caption,
		DownloadedAt: time.Now().UTC(),
	}

	for i, item := range record.Items() {
		meta.Items = append(meta.Items, ItemMetadata{
			Index: i + 1,
			Kind:  item.Kind,
			URL:   item.URL(),
		})
	}

	return meta
}

// FileName returns the sidecar file name for a shortcode
func FileName(shortcode string) string {
	return shortcode + ".json"
}

// Save writes the metadata as indented JSON to dir/<shortcode>.json and
// returns the path written
func (m *PostMetadata) Save(dir string) (string, error) {
	if m.Shortcode == "" {
		return "", fmt.Errorf("metadata has no shortcode")
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	path := filepath.Join(dir, FileName(m.Shortcode))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write metadata file: %w", err)
	}

	return path, nil
}

// Load reads metadata for shortcode from dir
func Load(dir, shortcode string) (*PostMetadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName(shortcode)))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta PostMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &meta, nil
}

// Exists checks if a metadata file exists for shortcode in dir
func Exists(dir, shortcode string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName(shortcode)))
	return err == nil
}

// FormattedCaption returns the caption on one line, truncated to maxLength runes
func FormattedCaption(caption string, maxLength int) string {
	caption = strings.Join(strings.Fields(caption), " ")
	if maxLength <= 3 {
		return caption
	}

	runes := []rune(caption)
	if len(runes) > maxLength {
		return string(runes[:maxLength-3]) + "..."
	}
	return caption
}
