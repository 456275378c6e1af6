package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tempSuffix = ".tmp"

// Manager handles file storage operations and duplicate detection for one
// output directory
type Manager struct {
	outputDir  string
	downloaded map[string]bool
	mu         sync.RWMutex
}

// NewManager creates a new storage manager, creating outputDir if needed
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir:  outputDir,
		downloaded: make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles records media files already present in the directory.
// Leftover temp files from interrupted writes are removed.
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, tempSuffix) {
			os.Remove(filepath.Join(m.outputDir, name))
			continue
		}
		m.downloaded[name] = true
	}

	return nil
}

// IsDownloaded reports whether filename already exists in the output directory
func (m *Manager) IsDownloaded(filename string) bool {
	m.mu.RLock()
	known := m.downloaded[filename]
	m.mu.RUnlock()
	if known {
		return true
	}

	if _, err := os.Stat(m.Path(filename)); err == nil {
		m.mu.Lock()
		m.downloaded[filename] = true
		m.mu.Unlock()
		return true
	}
	return false
}

// SaveFile writes r to filename inside the output directory. The data is
// written to a temp file first and renamed into place, so readers never see
// a partial file.
func (m *Manager) SaveFile(r io.Reader, filename string) (int64, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return 0, fmt.Errorf("invalid filename %q", filename)
	}

	target := m.Path(filename)
	tempFile := target + tempSuffix

	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to save file data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.downloaded[filename] = true
	m.mu.Unlock()

	return written, nil
}

// Path returns the full path of filename inside the output directory
func (m *Manager) Path(filename string) string {
	return filepath.Join(m.outputDir, filename)
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetDownloadedCount returns the number of files known to be in the directory
func (m *Manager) GetDownloadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.downloaded)
}
