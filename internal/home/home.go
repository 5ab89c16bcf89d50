package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the application home directory.
	DefaultDirName = ".bookbrain"

	// BooksDirName is the subdirectory for ingested original book files.
	BooksDirName = "books"

	// CoversDirName is the subdirectory for downloaded/generated cover images.
	CoversDirName = "covers"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the application home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.bookbrain).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}
	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// BooksPath returns the path to the directory holding ingested book files.
func (d *Dir) BooksPath() string {
	return filepath.Join(d.path, BooksDirName)
}

// CoversPath returns the path to the directory holding cover images.
func (d *Dir) CoversPath() string {
	return filepath.Join(d.path, CoversDirName)
}

// BookDir returns the directory for a single book's original files.
func (d *Dir) BookDir(bookID string) string {
	return filepath.Join(d.BooksPath(), bookID)
}

// CoverPath returns the path to a single book's stored cover image.
// Covers are always normalized to PNG on save, regardless of source format.
func (d *Dir) CoverPath(bookID string) string {
	return filepath.Join(d.CoversPath(), bookID+".png")
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.BooksPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create books directory: %w", err)
	}
	if err := os.MkdirAll(d.CoversPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create covers directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
