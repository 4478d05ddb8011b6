package indexer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/geetaway-search-api/internal/models"
)

// SourceVerse is one entry of the cleaned source dataset
type SourceVerse struct {
	ID       string `json:"id"`
	Chapter  int    `json:"chapter"`
	Verse    int    `json:"verse"`
	Sanskrit string `json:"sanskrit"`
	English  string `json:"english"`
}

// ReadDataset decodes a JSON array of source verses, rejecting entries that
// could not be served later
func ReadDataset(r io.Reader) ([]SourceVerse, error) {
	var verses []SourceVerse
	if err := json.NewDecoder(r).Decode(&verses); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	seen := make(map[models.VerseRef]bool, len(verses))
	for i, v := range verses {
		ref := models.VerseRef{Chapter: v.Chapter, Verse: v.Verse}
		if ref.Chapter < 1 || ref.Verse < 1 {
			return nil, fmt.Errorf("dataset entry %d has invalid reference %d.%d", i, v.Chapter, v.Verse)
		}
		if strings.TrimSpace(v.English) == "" || strings.TrimSpace(v.Sanskrit) == "" {
			return nil, fmt.Errorf("dataset entry %s has empty text", ref.ID())
		}
		if seen[ref] {
			return nil, fmt.Errorf("dataset entry %s is duplicated", ref.ID())
		}
		seen[ref] = true
	}
	return verses, nil
}
