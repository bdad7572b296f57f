package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Manager handles file output for a single run. All downloads land flat in
// one directory; an identical filename overwrites the previous file.
type Manager struct {
	outputDir string
}

// NewManager creates a new storage manager, creating the output directory
// if it does not exist.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{outputDir: outputDir}, nil
}

// ModTime returns the modification time of an existing output file, and
// whether the file exists at all. Used for conditional downloads.
func (m *Manager) ModTime(filename string) (time.Time, bool) {
	info, err := os.Stat(filepath.Join(m.outputDir, filename))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Save writes a file from the given reader. The write goes through a
// temporary file and an atomic rename so a failed download never leaves a
// truncated file behind. A non-zero modTime is applied to the result so
// later runs can issue conditional requests against it.
func (m *Manager) Save(r io.Reader, filename string, modTime time.Time) error {
	path := filepath.Join(m.outputDir, filename)

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save file data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	if !modTime.IsZero() {
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			return fmt.Errorf("failed to set file times: %w", err)
		}
	}

	return nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}
