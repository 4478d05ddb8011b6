// Package indexer builds the offline verse corpus: theme tagging, practicality
// classification, enriched embedding text and batched embedding.
package indexer

import (
	"fmt"
	"strings"

	"github.com/geetaway-search-api/internal/policy"
)

// Theme is an editorial tag assigned when any of its keywords occur in a verse
type Theme struct {
	Name     string
	Keywords []string
}

// DefaultThemes are the theme groups, in output order
var DefaultThemes = []Theme{
	{"overcoming fear and anxiety", []string{"fear*", "afraid", "anxiety", "anxious", "worr*", "dread", "terror"}},
	{"finding clarity in confusion", []string{"confus*", "doubt*", "uncertain*", "perplex*", "bewilder*"}},
	{"understanding duty and action", []string{"duty", "duties", "action*", "work*", "perform*", "karma", "deed*"}},
	{"mastering the mind", []string{"mind*", "thought*", "control*", "focus*", "concentrat*"}},
	{"achieving inner peace", []string{"peace*", "calm*", "tranquil*", "serene", "serenity", "equanim*"}},
	{"practicing detachment", []string{"detach*", "renounc*", "abandon*", "relinquish*", "let go"}},
	{"managing desires and attachments", []string{"desire*", "attach*", "crav*", "long for", "passion*"}},
	{"gaining wisdom and understanding", []string{"wisdom", "wise", "knowledge", "understand*", "realiz*", "enlighten*"}},
	{"building strength and courage", []string{"strength", "courage*", "brave*", "valor", "fortitude"}},
	{"navigating life's path", []string{"future", "destiny", "fate", "path*", "journey*"}},
	{"accepting impermanence", []string{"death", "die", "dies", "died", "mortal*", "impermanen*", "transitory", "temporary"}},
	{"understanding true self", []string{"self", "soul*", "atman", "true nature", "essence"}},
}

// Keywords deciding practicality. Cosmic or mythological framing disqualifies a
// verse before actionable language is considered.
var (
	DefaultCosmicKeywords = []string{
		"cosmic form", "divine form", "universes", "celestial", "thousand arms", "blazing",
		"effulgence", "deity", "deities", "creation and dissolution", "brahma", "vishnu",
	}
	DefaultPracticalKeywords = []string{
		"should", "must", "one who", "therefore", "thus", "perform*", "control*", "practic*",
		"abandon*", "cultivat*",
	}
)

const fallbackTheme = "spiritual wisdom and guidance"

type compiledTheme struct {
	name    string
	matcher *policy.Matcher
}

// Classifier tags verses with themes and a practicality flag
type Classifier struct {
	themes    []compiledTheme
	cosmic    *policy.Matcher
	practical *policy.Matcher
}

// NewClassifier compiles theme and practicality keyword sets
func NewClassifier(themes []Theme, cosmic, practical []string) (*Classifier, error) {
	c := &Classifier{themes: make([]compiledTheme, 0, len(themes))}
	for _, t := range themes {
		m, err := policy.NewMatcher(t.Keywords)
		if err != nil {
			return nil, fmt.Errorf("compile theme %q: %w", t.Name, err)
		}
		c.themes = append(c.themes, compiledTheme{name: t.Name, matcher: m})
	}

	var err error
	if c.cosmic, err = policy.NewMatcher(cosmic); err != nil {
		return nil, fmt.Errorf("compile cosmic keywords: %w", err)
	}
	if c.practical, err = policy.NewMatcher(practical); err != nil {
		return nil, fmt.Errorf("compile practical keywords: %w", err)
	}
	return c, nil
}

// DefaultClassifier returns the classifier for the built-in keyword sets
func DefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultThemes, DefaultCosmicKeywords, DefaultPracticalKeywords)
	if err != nil {
		panic(err)
	}
	return c
}

// Themes returns the themes whose keywords occur in text, in declaration order
func (c *Classifier) Themes(text string) []string {
	themes := []string{}
	for _, t := range c.themes {
		if t.matcher.Match(text) {
			themes = append(themes, t.name)
		}
	}
	return themes
}

// IsPractical reports whether text offers actionable guidance rather than
// cosmic or mythological description
func (c *Classifier) IsPractical(text string) bool {
	if c.cosmic.Match(text) {
		return false
	}
	return c.practical.Match(text)
}

// EnrichedText is the document text embedded for a verse. It front-loads the
// vocabulary users tend to ask with so queries and verses meet in the same space.
func EnrichedText(english string, themes []string, practical bool) string {
	var b strings.Builder
	if practical {
		b.WriteString("Practical life advice. Real-world application.\n")
	}
	themeText := fallbackTheme
	if len(themes) > 0 {
		themeText = strings.Join(themes, " ")
	}
	fmt.Fprintf(&b, "Life guidance about: %s.\n", themeText)
	fmt.Fprintf(&b, "Verse teaching: %s\n", english)
	b.WriteString("Keywords: confusion, fear, anxiety, clarity, action, duty, peace, strength, future, path")
	return b.String()
}
