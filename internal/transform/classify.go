package transform

import (
	"strings"

	"github.com/starford/cardsmith/internal/models"
)

// mediaTokens mark a field as holding a media reference when the field
// name contains one of them, case-insensitively.
var mediaTokens = []models.MediaKind{models.MediaPicture, models.MediaAudio}

// Classify returns the kind of field. A field is media when its name
// contains "picture" or "audio" in any case; every other field is content.
func Classify(field string) models.FieldKind {
	if _, ok := matchedToken(field); ok {
		return models.FieldMedia
	}
	return models.FieldContent
}

// KindOf returns the media kind a media field's attachments are filed
// under: the field's first underscore-delimited segment when that names a
// known kind ("picture_front" -> picture), otherwise the token the name
// contains ("FrontPicture" -> picture).
func KindOf(field string) (models.MediaKind, bool) {
	token, ok := matchedToken(field)
	if !ok {
		return "", false
	}
	first, _, _ := strings.Cut(field, "_")
	switch k := models.MediaKind(strings.ToLower(first)); k {
	case models.MediaPicture, models.MediaAudio:
		return k, true
	}
	return token, true
}

func matchedToken(field string) (models.MediaKind, bool) {
	lower := strings.ToLower(field)
	for _, tok := range mediaTokens {
		if strings.Contains(lower, string(tok)) {
			return tok, true
		}
	}
	return "", false
}
