// Package transform turns deck source records into note payloads.
package transform

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/starford/cardsmith/internal/apperr"
	"github.com/starford/cardsmith/internal/deck"
	"github.com/starford/cardsmith/internal/media"
	"github.com/starford/cardsmith/internal/models"
)

// Prober checks a media URL before it is attached.
type Prober interface {
	Probe(ctx context.Context, rawURL string) media.Outcome
}

// Diagnostic describes a media value that was not attached.
type Diagnostic struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("row %d field %s: not able to download %q: %s", d.Row, d.Field, d.URL, d.Reason)
}

// Transformer converts source records for one deck configuration.
type Transformer struct {
	cfg    models.DeckConfig
	prober Prober
}

// New returns a Transformer. prober is consulted only when the URL check
// is enabled; it may be nil otherwise.
func New(cfg models.DeckConfig, prober Prober) *Transformer {
	return &Transformer{cfg: cfg, prober: prober}
}

// CheckHeader verifies that every configured field is a column of the source.
func (t *Transformer) CheckHeader(src *deck.Source) error {
	for _, f := range t.cfg.Fields {
		if !src.HasColumn(f) {
			return fmt.Errorf("%w: %q", apperr.ErrUnknownField, f)
		}
	}
	return nil
}

// Transform builds the payload for one record. row is the 1-based data row
// number used in diagnostics. Media values that fail validation are dropped
// and reported; they never fail the record.
func (t *Transformer) Transform(ctx context.Context, row int, rec models.SourceRecord, deckName string) (models.NotePayload, []Diagnostic) {
	note := models.NotePayload{
		DeckName:  deckName,
		ModelName: t.cfg.ModelName,
		Fields:    make(map[string]string, len(t.cfg.Fields)),
	}
	var diags []Diagnostic

	for _, field := range t.cfg.Fields {
		value, present := rec[field]
		if !present {
			continue
		}
		if Classify(field) == models.FieldContent {
			note.Fields[field] = value
			continue
		}
		if value == "" {
			continue
		}

		ref, diag, ok := t.resolve(ctx, field, value)
		if !ok {
			diag.Row = row
			diags = append(diags, diag)
			continue
		}
		kind, _ := KindOf(field)
		if note.Media == nil {
			note.Media = make(map[models.MediaKind][]models.MediaReference)
		}
		note.Media[kind] = append(note.Media[kind], ref)
	}

	return note, diags
}

func (t *Transformer) resolve(ctx context.Context, field, rawURL string) (models.MediaReference, Diagnostic, bool) {
	fail := func(reason string) (models.MediaReference, Diagnostic, bool) {
		return models.MediaReference{}, Diagnostic{Field: field, URL: rawURL, Reason: reason}, false
	}

	if t.cfg.URLCheck.Enabled && t.prober != nil {
		if out := t.prober.Probe(ctx, rawURL); !out.Accepted() {
			return fail(out.Reason)
		}
	}

	name, err := Filename(rawURL)
	if err != nil {
		return fail(err.Error())
	}
	return models.MediaReference{URL: rawURL, Filename: name, Field: field}, Diagnostic{}, true
}

// Filename derives the attachment file name from the last element of the
// URL's percent-decoded path. A URL whose path has no file name falls back
// to its host, with ':' replaced ("localhost:1233" -> "localhost_1233").
// Only URLs that cannot be parsed, or have neither path nor host, fail.
func Filename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid media URL: %w", err)
	}
	name := path.Base(u.Path)
	if name != "/" && name != "." && name != "" {
		return name, nil
	}
	if u.Host != "" {
		return strings.ReplaceAll(u.Host, ":", "_"), nil
	}
	return "", fmt.Errorf("media URL %q has no file name", rawURL)
}

// TransformDeck reads one deck source and transforms every record.
// Diagnostics are logged at warn level and also returned.
func (t *Transformer) TransformDeck(ctx context.Context, src *deck.Source, deckName string, logger *slog.Logger) ([]models.NotePayload, []Diagnostic, error) {
	if err := t.CheckHeader(src); err != nil {
		return nil, nil, err
	}
	notes := make([]models.NotePayload, 0, len(src.Records))
	var all []Diagnostic
	for i, rec := range src.Records {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		note, diags := t.Transform(ctx, i+1, rec, deckName)
		for _, d := range diags {
			logger.Warn("media not attached",
				slog.String("deck", deckName),
				slog.Int("row", d.Row),
				slog.String("field", d.Field),
				slog.String("url", d.URL),
				slog.String("reason", d.Reason))
		}
		logger.Debug("note built",
			slog.String("deck", deckName),
			slog.Int("row", i+1),
			slog.Int("fields", len(note.Fields)),
			slog.Int("media", note.MediaCount()),
			slog.Any("note", note))
		notes = append(notes, note)
		all = append(all, diags...)
	}
	return notes, all, nil
}
