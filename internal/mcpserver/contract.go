package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/cardsmith/internal/deck"
	"github.com/starford/cardsmith/internal/models"
	"github.com/starford/cardsmith/internal/transform"
)

// DeckFormat describes the deck source format expected for cfg, so that
// LLM consumers can write deck files that assemble cleanly.
func DeckFormat(cfg models.DeckConfig) string {
	var b strings.Builder

	b.WriteString("# Cardsmith Deck Source Format\n\n")
	fmt.Fprintf(&b, "Every file in `decks/` is one deck named `%s%s<file stem>`.\n\n",
		cfg.MasterDeckName, models.DeckSeparator)

	b.WriteString("## Structure\n\n")
	fmt.Fprintf(&b, "- Columns are separated by `%c`. The first row is the header.\n", deck.Delimiter)
	b.WriteString("- Every configured field below MUST appear in the header; other columns are ignored.\n")
	b.WriteString("- A row shorter than the header leaves its trailing fields unset.\n")
	b.WriteString("- Encoding is UTF-8; a leading byte order mark is allowed.\n\n")

	b.WriteString("## Fields\n\n")
	b.WriteString("| Field | Kind |\n|---|---|\n")
	for _, f := range cfg.Fields {
		kind := transform.Classify(f).String()
		if k, ok := transform.KindOf(f); ok {
			kind += " (" + string(k) + ")"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", f, kind)
	}

	b.WriteString("\n## Media\n\n")
	b.WriteString("- A field whose name contains `picture` or `audio` holds a media URL.\n")
	b.WriteString("- The attachment file name is the last element of the URL path, so the URL must end in a file name.\n")
	if cfg.URLCheck.Enabled {
		fmt.Fprintf(&b, "- URLs are checked with a HEAD request (timeout %gs). Only `image/*` and `audio/*` responses are attached.\n",
			cfg.URLCheck.Timeout)
	}
	b.WriteString("- A media value that cannot be attached is dropped; the rest of the note is still created.\n")

	return b.String()
}
