package storage

import (
	"io"
)

// Storage defines where downloaded report files are kept
type Storage interface {
	// Ensure creates the underlying directory if it is missing
	Ensure() error

	// Store writes the content of r under name, replacing any existing file
	Store(name string, r io.Reader) (int64, error)

	// List returns the stored file names ending in ext, sorted by name
	List(ext string) ([]string, error)

	// Path returns the location of name inside the storage
	Path(name string) string
}
