package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	decksDir = "decks"
	cardDir  = "card"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the base directory
}

// NewFS creates a new FS provider rooted at the given base directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute base directory.
func (f *FS) Root() string {
	return f.root
}

// safeName resolves a plain file name inside dir (relative to root) and
// rejects anything that is not a single path element.
func (f *FS) safeName(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: file name is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || cleaned == ".." || cleaned == "." {
		return "", fmt.Errorf("storage: invalid file name: %s", name)
	}
	base := filepath.Join(f.root, dir)
	abs := filepath.Join(base, cleaned)
	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes %s: %s", dir, name)
	}
	return abs, nil
}

// ListDecks returns regular, non-hidden files in the decks directory in
// directory-listing order. Subdirectories are not descended into.
func (f *FS) ListDecks() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, decksDir))
	if err != nil {
		return nil, fmt.Errorf("storage: list decks: %w", err)
	}
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !e.Type().IsRegular() {
			// Follow symlinks so linked deck sources still count as files.
			info, statErr := os.Stat(filepath.Join(f.root, decksDir, e.Name()))
			if statErr != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// OpenDeck opens a deck source for reading.
func (f *FS) OpenDeck(name string) (io.ReadCloser, error) {
	abs, err := f.safeName(decksDir, name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open deck %s: %w", name, err)
	}
	return file, nil
}

// ReadCardAsset returns the raw bytes of a card asset.
func (f *FS) ReadCardAsset(name string) ([]byte, error) {
	abs, err := f.safeName(cardDir, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read card asset %s: %w", name, err)
	}
	return data, nil
}
