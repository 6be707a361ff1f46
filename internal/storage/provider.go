// Package storage exposes the on-disk deck tree: deck sources and card assets.
package storage

import (
	"io"
	"path/filepath"
	"strings"
)

// Card asset names read from the card directory.
const (
	FrontTemplate = "front.html"
	BackTemplate  = "back.html"
	Stylesheet    = "style.css"
)

// Provider is the interface for deck tree operations.
type Provider interface {
	// ListDecks returns the names of regular files directly under the decks directory.
	ListDecks() ([]string, error)
	// OpenDeck opens the deck source with the given file name.
	OpenDeck(name string) (io.ReadCloser, error)
	// ReadCardAsset returns one of the card presentation assets.
	ReadCardAsset(name string) ([]byte, error)
}

// DeckID returns the deck identifier for a deck source file name: its stem.
func DeckID(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
