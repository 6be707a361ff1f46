// Package models defines the domain types for cardsmith.
package models

import (
	"strings"
	"time"
)

// DeckSeparator joins the master deck and a deck id into a qualified deck name.
const DeckSeparator = "::"

// URLCheck controls whether media URLs are probed before they are attached.
type URLCheck struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	Timeout float64 `yaml:"timeout" json:"timeout"` // seconds
}

// TimeoutDuration returns the probe timeout as a time.Duration.
func (u URLCheck) TimeoutDuration() time.Duration {
	return time.Duration(u.Timeout * float64(time.Second))
}

// DeckConfig describes the note schema and deck naming for a run.
// It is loaded once and never mutated afterwards.
type DeckConfig struct {
	MasterDeckName       string   `yaml:"masterDeckName" json:"masterDeckName"`
	ModelName            string   `yaml:"modelName" json:"modelName"`
	ModelNameDescriptive string   `yaml:"modelNameDescriptive" json:"modelNameDescriptive"`
	Fields               []string `yaml:"fields" json:"fields"`
	URLCheck             URLCheck `yaml:"urlCheck" json:"urlCheck"`
}

// QualifiedDeckName returns the remote name of the deck with the given id.
func (c DeckConfig) QualifiedDeckName(id string) string {
	return c.MasterDeckName + DeckSeparator + id
}

// FieldKind is the classification of a configured field.
type FieldKind int

const (
	FieldContent FieldKind = iota
	FieldMedia
)

func (k FieldKind) String() string {
	if k == FieldMedia {
		return "media"
	}
	return "content"
}

// MediaKind is the key a media attachment is placed under in an addNotes note.
type MediaKind string

const (
	MediaPicture MediaKind = "picture"
	MediaAudio   MediaKind = "audio"
)

// SourceRecord is one parsed row of a deck source keyed by header name.
// A missing key means the row had no value for that column.
type SourceRecord map[string]string

// MediaReference is a validated media value bound to the field it fills.
type MediaReference struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Field    string `json:"field"`
}

// NotePayload is everything needed to create one note remotely.
type NotePayload struct {
	DeckName  string                         `json:"deckName"`
	ModelName string                         `json:"modelName"`
	Fields    map[string]string              `json:"fields"`
	Media     map[MediaKind][]MediaReference `json:"media,omitempty"`
}

// MediaCount returns the number of attachments across all media kinds.
func (n NotePayload) MediaCount() int {
	total := 0
	for _, refs := range n.Media {
		total += len(refs)
	}
	return total
}

// DeckUnit ties one deck source file to its remote deck and transformed notes.
type DeckUnit struct {
	Source   string        `json:"source"`
	ID       string        `json:"id"`
	DeckName string        `json:"deckName"`
	Notes    []NotePayload `json:"notes"`
}

// SubmissionOutcome is the per-deck result of a run.
type SubmissionOutcome struct {
	Deck      string `json:"deck"`
	Submitted int    `json:"submitted"`
	Failed    int    `json:"failed"`
	Err       error  `json:"-"`
}

// Succeeded reports whether every note of the deck was accepted.
func (o SubmissionOutcome) Succeeded() bool {
	return o.Err == nil && o.Failed == 0
}

// ErrorString returns the deck error text, or an empty string.
func (o SubmissionOutcome) ErrorString() string {
	if o.Err == nil {
		return ""
	}
	return strings.TrimSpace(o.Err.Error())
}
