// Package testutil provides shared test helpers: a fake control endpoint and
// on-disk deck tree fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// DefaultCard holds the card assets written by WriteDeckTree unless overridden.
var DefaultCard = map[string]string{
	"card/front.html": "{{Question}}",
	"card/back.html":  "{{FrontSide}}<hr id=answer>{{Answer}}",
	"card/style.css":  ".card { font-family: arial; }",
}

// WriteDeckTree creates a temporary base directory with decks/, card/ and
// assets/ subdirectories, the default card assets, and files (paths relative
// to the base). It returns the base directory.
func WriteDeckTree(t *testing.T, files map[string]string) string {
	t.Helper()
	base := t.TempDir()
	for _, sub := range []string{"decks", "card", "assets"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	write := func(rel, content string) {
		p := filepath.Join(base, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	for rel, content := range DefaultCard {
		if _, override := files[rel]; !override {
			write(rel, content)
		}
	}
	for rel, content := range files {
		write(rel, content)
	}
	return base
}
