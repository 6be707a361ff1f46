// Package deck reads delimited deck source files into source records.
package deck

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/starford/cardsmith/internal/models"
)

// Delimiter separates columns in a deck source.
const Delimiter = ';'

const bom = "\ufeff"

// Source is a parsed deck source: its header and one record per data row.
type Source struct {
	Header  []string
	Records []models.SourceRecord
}

// HasColumn reports whether the header contains name.
func (s *Source) HasColumn(name string) bool {
	for _, h := range s.Header {
		if h == name {
			return true
		}
	}
	return false
}

// Read parses a deck source. The first row is the header; rows shorter than
// the header leave their trailing columns absent from the record, and extra
// cells beyond the header are ignored.
func Read(r io.Reader) (*Source, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("deck: source is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("deck: read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}

	src := &Source{Header: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("deck: read row %d: %w", len(src.Records)+2, err)
		}
		rec := make(models.SourceRecord, len(header))
		for i, name := range header {
			if i >= len(row) {
				break
			}
			rec[name] = row[i]
		}
		src.Records = append(src.Records, rec)
	}
	return src, nil
}
