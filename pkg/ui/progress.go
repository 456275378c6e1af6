package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	progressWidth = 20
)

// StatusTracker counts finished downloads of a single post. It is safe for
// concurrent use by download result callbacks.
type StatusTracker struct {
	mu         sync.Mutex
	total      int
	downloaded int
	skipped    int
	failed     int
	bytes      int64
	startTime  time.Time
}

// NewStatusTracker creates a tracker expecting total files
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{total: total, startTime: time.Now()}
}

// Record counts one finished file
func (st *StatusTracker) Record(success, skipped bool, size int64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	switch {
	case skipped:
		st.skipped++
	case success:
		st.downloaded++
		st.bytes += size
	default:
		st.failed++
	}
}

// Done returns the number of finished files
func (st *StatusTracker) Done() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.downloaded + st.skipped + st.failed
}

// Counts returns downloaded, skipped and failed totals
func (st *StatusTracker) Counts() (downloaded, skipped, failed int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.downloaded, st.skipped, st.failed
}

// ProgressBar renders "[████░░░░] 2/5"
func (st *StatusTracker) ProgressBar() string {
	st.mu.Lock()
	defer st.mu.Unlock()

	done := st.downloaded + st.skipped + st.failed
	filled := 0
	if st.total > 0 {
		filled = done * progressWidth / st.total
	}
	if filled > progressWidth {
		filled = progressWidth
	}

	bar := strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, progressWidth-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, done, st.total)
}

// Summary renders a one-line summary of the finished download
func (st *StatusTracker) Summary() string {
	st.mu.Lock()
	defer st.mu.Unlock()

	return fmt.Sprintf("%d downloaded, %d skipped, %d failed (%s in %s)",
		st.downloaded, st.skipped, st.failed,
		FormatBytes(st.bytes), time.Since(st.startTime).Round(time.Millisecond))
}

// FormatBytes formats bytes to human readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
