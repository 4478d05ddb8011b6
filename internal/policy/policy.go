// Package policy holds the tunable vocabularies and multipliers of the retrieval
// pipeline. A Policy is loaded once, validated, compiled and then shared read-only.
package policy

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/geetaway-search-api/internal/models"
)

//go:embed default.yaml
var defaultPolicy []byte

// Retrieval holds result bounds and the guidance confidence gate.
type Retrieval struct {
	MaxResults    int     `yaml:"max_results"`
	FetchK        int     `yaml:"fetch_k"`
	MinConfidence float64 `yaml:"min_confidence"`
	GuidanceTopN  int     `yaml:"guidance_top_n"`
}

// Penalties are the contextual-warning multipliers of the relevance adjuster.
type Penalties struct {
	Battlefield  float64 `yaml:"battlefield"`
	DeathRebirth float64 `yaml:"death_rebirth"`
}

// Suitability are the guidance-stage multipliers.
type Suitability struct {
	GriefBoost         float64 `yaml:"grief_boost"`
	DeathPenalty       float64 `yaml:"death_penalty"`
	ConfrontationBoost float64 `yaml:"confrontation_boost"`
	BattlefieldPenalty float64 `yaml:"battlefield_penalty"`
	UniversalBoost     float64 `yaml:"universal_boost"`
}

// Category is a problem category: its keywords and the focus phrase appended to
// the enriched query when it matches.
type Category struct {
	Focus    string   `yaml:"focus"`
	Keywords []string `yaml:"keywords"`
}

// Categories lists the problem categories.
type Categories struct {
	Emotional    Category `yaml:"emotional"`
	Decision     Category `yaml:"decision"`
	Career       Category `yaml:"career"`
	Relationship Category `yaml:"relationship"`
	Existential  Category `yaml:"existential"`
}

// VerseContext lists verse-side risk and applicability vocabularies.
type VerseContext struct {
	Battlefield  []string `yaml:"battlefield"`
	DeathFocused []string `yaml:"death_focused"`
	Devotional   []string `yaml:"devotional"`
	Cosmic       []string `yaml:"cosmic"`
	Universal    []string `yaml:"universal"`
}

// QueryIntent lists query-side vocabularies used by the relevance adjuster.
type QueryIntent struct {
	SocialConcern []string `yaml:"social_concern"`
	Confrontation []string `yaml:"confrontation"`
}

// Guidance lists query-side vocabularies used by the suitability reranker.
type Guidance struct {
	Grief         []string `yaml:"grief"`
	Confrontation []string `yaml:"confrontation"`
}

// Policy is the full tunable configuration of the pipeline.
type Policy struct {
	Version          string       `yaml:"version"`
	Retrieval        Retrieval    `yaml:"retrieval"`
	QueryPrefix      string       `yaml:"query_prefix"`
	Penalties        Penalties    `yaml:"penalties"`
	Suitability      Suitability  `yaml:"suitability"`
	UniversalDefault bool         `yaml:"universal_default"`
	Categories       Categories   `yaml:"categories"`
	VerseContext     VerseContext `yaml:"verse_context"`
	QueryIntent      QueryIntent  `yaml:"query_intent"`
	Guidance         Guidance     `yaml:"guidance"`

	matchers Matchers
}

// Matchers are the compiled keyword sets of a Policy.
type Matchers struct {
	Emotional, Decision, Career, Relationship, Existential *Matcher

	Battlefield, DeathFocused, Devotional, Cosmic, Universal *Matcher

	SocialConcern, Confrontation *Matcher

	Grief, GuidanceConfrontation *Matcher
}

// Default returns the built-in policy.
func Default() (*Policy, error) {
	return Parse(defaultPolicy)
}

// MustDefault returns the built-in policy or panics.
func MustDefault() *Policy {
	p, err := Default()
	if err != nil {
		panic(err)
	}
	return p
}

// Load reads a policy file. An empty path selects the built-in policy.
func Load(path string) (*Policy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, validates and compiles a policy document.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Compile(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ApplyEnv overrides numeric retrieval knobs from the environment.
// Recognized keys: MAX_RESULTS, FETCH_K, MIN_CONFIDENCE.
func (p *Policy) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MAX_RESULTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return models.NewConfigurationError("MAX_RESULTS", "not an integer: %q", v)
		}
		p.Retrieval.MaxResults = n
	}
	if v, ok := lookup("FETCH_K"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return models.NewConfigurationError("FETCH_K", "not an integer: %q", v)
		}
		p.Retrieval.FetchK = n
	}
	if v, ok := lookup("MIN_CONFIDENCE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return models.NewConfigurationError("MIN_CONFIDENCE", "not a number: %q", v)
		}
		p.Retrieval.MinConfidence = f
	}
	return p.Validate()
}

// Validate checks bounds and that every keyword set is present.
func (p *Policy) Validate() error {
	r := p.Retrieval
	if r.MaxResults < 1 {
		return models.NewConfigurationError("retrieval.max_results", "must be >= 1, got %d", r.MaxResults)
	}
	if r.FetchK < 1 {
		return models.NewConfigurationError("retrieval.fetch_k", "must be >= 1, got %d", r.FetchK)
	}
	if r.GuidanceTopN < 1 {
		return models.NewConfigurationError("retrieval.guidance_top_n", "must be >= 1, got %d", r.GuidanceTopN)
	}
	if r.MinConfidence < 0 || r.MinConfidence >= 1 {
		return models.NewConfigurationError("retrieval.min_confidence", "must be in [0,1), got %v", r.MinConfidence)
	}

	type multiplier struct {
		name  string
		value float64
	}

	// Warning penalties must strictly lower a positive score.
	for _, m := range []multiplier{
		{"penalties.battlefield", p.Penalties.Battlefield},
		{"penalties.death_rebirth", p.Penalties.DeathRebirth},
	} {
		if !(m.value > 0 && m.value < 1) {
			return models.NewConfigurationError(m.name, "must be in (0,1), got %v", m.value)
		}
	}
	for _, m := range []multiplier{
		{"suitability.grief_boost", p.Suitability.GriefBoost},
		{"suitability.death_penalty", p.Suitability.DeathPenalty},
		{"suitability.confrontation_boost", p.Suitability.ConfrontationBoost},
		{"suitability.battlefield_penalty", p.Suitability.BattlefieldPenalty},
		{"suitability.universal_boost", p.Suitability.UniversalBoost},
	} {
		if !(m.value > 0) || math.IsInf(m.value, 0) {
			return models.NewConfigurationError(m.name, "must be a finite value > 0, got %v", m.value)
		}
	}

	sets := []struct {
		name     string
		keywords []string
	}{
		{"categories.emotional", p.Categories.Emotional.Keywords},
		{"categories.decision", p.Categories.Decision.Keywords},
		{"categories.career", p.Categories.Career.Keywords},
		{"categories.relationship", p.Categories.Relationship.Keywords},
		{"categories.existential", p.Categories.Existential.Keywords},
		{"verse_context.battlefield", p.VerseContext.Battlefield},
		{"verse_context.death_focused", p.VerseContext.DeathFocused},
		{"verse_context.devotional", p.VerseContext.Devotional},
		{"verse_context.cosmic", p.VerseContext.Cosmic},
		{"verse_context.universal", p.VerseContext.Universal},
		{"query_intent.social_concern", p.QueryIntent.SocialConcern},
		{"query_intent.confrontation", p.QueryIntent.Confrontation},
		{"guidance.grief", p.Guidance.Grief},
		{"guidance.confrontation", p.Guidance.Confrontation},
	}
	for _, s := range sets {
		if !slices.ContainsFunc(s.keywords, func(kw string) bool {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(kw), "*")) != ""
		}) {
			return models.NewConfigurationError(s.name, "keyword set is missing or empty")
		}
	}
	return nil
}

// Compile validates the policy and builds its keyword matchers.
func (p *Policy) Compile() error {
	if err := p.Validate(); err != nil {
		return err
	}

	var m Matchers
	targets := []struct {
		dst      **Matcher
		name     string
		keywords []string
	}{
		{&m.Emotional, "categories.emotional", p.Categories.Emotional.Keywords},
		{&m.Decision, "categories.decision", p.Categories.Decision.Keywords},
		{&m.Career, "categories.career", p.Categories.Career.Keywords},
		{&m.Relationship, "categories.relationship", p.Categories.Relationship.Keywords},
		{&m.Existential, "categories.existential", p.Categories.Existential.Keywords},
		{&m.Battlefield, "verse_context.battlefield", p.VerseContext.Battlefield},
		{&m.DeathFocused, "verse_context.death_focused", p.VerseContext.DeathFocused},
		{&m.Devotional, "verse_context.devotional", p.VerseContext.Devotional},
		{&m.Cosmic, "verse_context.cosmic", p.VerseContext.Cosmic},
		{&m.Universal, "verse_context.universal", p.VerseContext.Universal},
		{&m.SocialConcern, "query_intent.social_concern", p.QueryIntent.SocialConcern},
		{&m.Confrontation, "query_intent.confrontation", p.QueryIntent.Confrontation},
		{&m.Grief, "guidance.grief", p.Guidance.Grief},
		{&m.GuidanceConfrontation, "guidance.confrontation", p.Guidance.Confrontation},
	}
	for _, t := range targets {
		matcher, err := NewMatcher(t.keywords)
		if err != nil {
			return models.NewConfigurationError(t.name, "compile keywords: %v", err)
		}
		*t.dst = matcher
	}
	p.matchers = m
	return nil
}

// Matchers returns the compiled keyword sets.
func (p *Policy) Matchers() *Matchers {
	return &p.matchers
}
