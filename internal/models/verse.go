package models

import "fmt"

// VerseRef identifies a verse by chapter and verse number
type VerseRef struct {
	Chapter int `json:"chapter"`
	Verse   int `json:"verse"`
}

// ID returns the "chapter.verse" form used by the index backends and the API
func (r VerseRef) ID() string {
	return fmt.Sprintf("%d.%d", r.Chapter, r.Verse)
}

// Less orders references by chapter, then verse
func (r VerseRef) Less(o VerseRef) bool {
	if r.Chapter != o.Chapter {
		return r.Chapter < o.Chapter
	}
	return r.Verse < o.Verse
}

// ParseVerseRef parses a "chapter.verse" identifier
func ParseVerseRef(id string) (VerseRef, error) {
	var ref VerseRef
	if _, err := fmt.Sscanf(id, "%d.%d", &ref.Chapter, &ref.Verse); err != nil {
		return VerseRef{}, fmt.Errorf("parse verse id %q: %w", id, err)
	}
	if ref.Chapter < 1 || ref.Verse < 1 {
		return VerseRef{}, fmt.Errorf("parse verse id %q: chapter and verse must be >= 1", id)
	}
	return ref, nil
}

// VerseRecord is a corpus entry. Records are built offline and never modified at runtime.
type VerseRecord struct {
	VerseRef
	SourceText     string   `json:"sanskrit" db:"sanskrit"`
	TranslatedText string   `json:"english" db:"english"`
	Themes         []string `json:"themes"`
	IsPractical    bool     `json:"is_practical" db:"is_practical"`
}

// ProblemCategories is the non-exclusive classification of a user query
type ProblemCategories struct {
	Emotional    bool `json:"emotional"`
	Decision     bool `json:"decision"`
	Relationship bool `json:"relationship"`
	Career       bool `json:"career"`
	Existential  bool `json:"existential"`
}

// Any reports whether at least one category matched
func (c ProblemCategories) Any() bool {
	return c.Emotional || c.Decision || c.Relationship || c.Career || c.Existential
}

// ContextFlags describe the literal framing of a verse
type ContextFlags struct {
	IsBattlefield  bool `json:"is_battlefield"`
	IsDeathFocused bool `json:"is_death_focused"`
	IsDevotional   bool `json:"is_devotional"`
	IsCosmic       bool `json:"is_cosmic"`
	IsUniversal    bool `json:"is_universal"`
}

// Warning tags a candidate whose framing mismatches the query's intent
type Warning string

const (
	WarningNone         Warning = ""
	WarningBattlefield  Warning = "battlefield"
	WarningDeathRebirth Warning = "death_rebirth"
)

// Candidate is a retrieval hit flowing through the pipeline. Stages never modify a
// Candidate they received; they return new values.
type Candidate struct {
	Record        VerseRecord
	Index         int // corpus insertion position
	RawScore      float64
	AdjustedScore float64
	Flags         ContextFlags
	Warning       Warning
}

// Ref returns the candidate's verse identity
func (c Candidate) Ref() VerseRef {
	return c.Record.VerseRef
}

// IsIdeal reports whether the candidate is practical and carries no warning
func (c Candidate) IsIdeal() bool {
	return c.Record.IsPractical && c.Warning == WarningNone
}

// RankedResult is the bounded, ordered output of the retrieval path
type RankedResult struct {
	Candidates []Candidate
}

// Len returns the number of candidates
func (r RankedResult) Len() int {
	return len(r.Candidates)
}

// Empty reports a "no match" outcome
func (r RankedResult) Empty() bool {
	return len(r.Candidates) == 0
}

// Suggestion is a candidate rescored for guidance generation
type Suggestion struct {
	Candidate
	SuitabilityScore float64
}
