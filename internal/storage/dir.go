package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/deploymenttheory/go-covid-reports/internal/logger"
)

// Dir implements the Storage interface on a local directory
type Dir struct {
	root string
}

// New creates a new Dir rooted at root. The directory is not created
// until Ensure is called.
func New(root string) *Dir {
	return &Dir{root: root}
}

// Ensure creates the directory and its parents. It is a no-op when the
// directory already exists.
func (d *Dir) Ensure() error {
	if err := os.MkdirAll(d.root, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", d.root, err)
	}
	return nil
}

// Store writes r to root/name. The name is used as given. Existing files
// are truncated and rewritten in place, so an interrupted write leaves a
// partial file behind.
func (d *Dir) Store(name string, r io.Reader) (int64, error) {
	filePath := d.Path(name)

	file, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, r)
	closeErr := file.Close()
	if err != nil {
		return written, fmt.Errorf("failed to save file: %w", err)
	}
	if closeErr != nil {
		return written, fmt.Errorf("failed to close file: %w", closeErr)
	}

	logger.Debugf("Stored %s (%d bytes)", filePath, written)
	return written, nil
}

// List returns the names of regular files ending in ext, in lexicographic
// order. An empty ext matches every file.
func (d *Dir) List(ext string) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", d.root, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ext) {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}

// Path returns root/name
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, name)
}
