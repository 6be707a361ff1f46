// Package assemble provisions the remote model and decks and drives a full
// assembly run: permission, model, per-deck submission, export.
package assemble

import (
	"context"

	"github.com/starford/cardsmith/internal/ankiconnect"
	"github.com/starford/cardsmith/internal/models"
)

// Remote is the subset of the control API client the pipeline uses.
type Remote interface {
	RequestPermission(ctx context.Context) (ankiconnect.Permission, error)
	Version(ctx context.Context) (int, error)
	CreateModel(ctx context.Context, m ankiconnect.Model) error
	CreateDeck(ctx context.Context, name string) (int64, error)
	AddNotes(ctx context.Context, notes []models.NotePayload) ([]*int64, error)
	ExportPackage(ctx context.Context, deck, path string, includeSched bool) (bool, error)
}

// Verify *ankiconnect.Client satisfies Remote at compile time.
var _ Remote = (*ankiconnect.Client)(nil)
