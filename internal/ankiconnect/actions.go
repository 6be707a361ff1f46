package ankiconnect

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/starford/cardsmith/internal/models"
)

// alreadyExists is the message fragment the API uses for duplicate models.
const alreadyExists = "name already exists"

// IsAlreadyExists reports whether err is a remote "name already exists" error.
func IsAlreadyExists(err error) bool {
	var re *RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return strings.Contains(strings.ToLower(re.Message), alreadyExists)
}

// Permission is the result of requestPermission.
type Permission struct {
	Permission    string `json:"permission"`
	RequireAPIKey bool   `json:"requireApikey"`
	Version       int    `json:"version"`
}

// Granted reports whether the client may issue further calls.
func (p Permission) Granted() bool {
	return p.Permission == PermissionGranted
}

// RequestPermission asks the application whether this client may call the API.
func (c *Client) RequestPermission(ctx context.Context) (Permission, error) {
	var p Permission
	err := c.Invoke(ctx, "requestPermission", nil, &p)
	return p, err
}

// Version returns the control API version the application speaks.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	err := c.Invoke(ctx, "version", nil, &v)
	return v, err
}

// CardTemplate is one card of a model.
type CardTemplate struct {
	Name  string `json:"Name"`
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

// Model describes a note type to create.
type Model struct {
	Name      string
	Fields    []string
	CSS       string
	Templates []CardTemplate
}

type createModelParams struct {
	ModelName     string         `json:"modelName"`
	InOrderFields []string       `json:"inOrderFields"`
	CSS           string         `json:"css"`
	IsCloze       bool           `json:"isCloze"`
	CardTemplates []CardTemplate `json:"cardTemplates"`
}

// CreateModel creates a non-cloze model. Callers decide how to treat
// IsAlreadyExists errors.
func (c *Client) CreateModel(ctx context.Context, m Model) error {
	return c.Invoke(ctx, "createModel", createModelParams{
		ModelName:     m.Name,
		InOrderFields: m.Fields,
		CSS:           m.CSS,
		IsCloze:       false,
		CardTemplates: m.Templates,
	}, nil)
}

// CreateDeck creates the named deck and returns its id. The API treats an
// existing deck as success.
func (c *Client) CreateDeck(ctx context.Context, name string) (int64, error) {
	var id int64
	err := c.Invoke(ctx, "createDeck", map[string]string{"deck": name}, &id)
	return id, err
}

type mediaItem struct {
	URL      string   `json:"url"`
	Filename string   `json:"filename"`
	Fields   []string `json:"fields"`
}

// wireNote renders a payload the way addNotes expects it, with each media
// kind as its own top-level key.
func wireNote(n models.NotePayload) map[string]any {
	fields := n.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	note := map[string]any{
		"deckName":  n.DeckName,
		"modelName": n.ModelName,
		"fields":    fields,
	}
	for kind, refs := range n.Media {
		if len(refs) == 0 {
			continue
		}
		items := make([]mediaItem, 0, len(refs))
		for _, r := range refs {
			items = append(items, mediaItem{URL: r.URL, Filename: r.Filename, Fields: []string{r.Field}})
		}
		note[string(kind)] = items
	}
	return note
}

// AddNotes submits notes as a single batch. The returned slice is aligned
// with notes; a nil entry marks a note the application rejected. When the
// API also reports an error the aligned results are returned together with
// the *RemoteError if the response carried them.
func (c *Client) AddNotes(ctx context.Context, notes []models.NotePayload) ([]*int64, error) {
	wire := make([]map[string]any, 0, len(notes))
	for _, n := range notes {
		wire = append(wire, wireNote(n))
	}
	var raw []json.RawMessage
	err := c.Invoke(ctx, "addNotes", map[string]any{"notes": wire}, &raw)
	if raw == nil {
		return nil, err
	}
	ids := make([]*int64, len(raw))
	for i, r := range raw {
		var id int64
		if string(r) == "null" || json.Unmarshal(r, &id) != nil {
			continue
		}
		ids[i] = &id
	}
	return ids, err
}

type exportParams struct {
	Deck         string `json:"deck"`
	Path         string `json:"path"`
	IncludeSched bool   `json:"includeSched"`
}

// ExportPackage writes deck and its subdecks to path on the application's host.
func (c *Client) ExportPackage(ctx context.Context, deck, path string, includeSched bool) (bool, error) {
	var ok bool
	err := c.Invoke(ctx, "exportPackage", exportParams{Deck: deck, Path: path, IncludeSched: includeSched}, &ok)
	return ok, err
}
