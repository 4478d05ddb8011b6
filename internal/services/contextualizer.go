package services

import (
	"strings"

	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/policy"
)

// Contextualizer classifies a question into problem categories and builds the
// enriched text that is embedded for retrieval
type Contextualizer struct {
	policy *policy.Policy
}

// NewContextualizer creates a contextualizer over a compiled policy
func NewContextualizer(p *policy.Policy) *Contextualizer {
	return &Contextualizer{policy: p}
}

// Classify tests the query against each category keyword set
func (c *Contextualizer) Classify(query string) models.ProblemCategories {
	m := c.policy.Matchers()
	return models.ProblemCategories{
		Emotional:    m.Emotional.Match(query),
		Decision:     m.Decision.Match(query),
		Relationship: m.Relationship.Match(query),
		Career:       m.Career.Match(query),
		Existential:  m.Existential.Match(query),
	}
}

// Enhance returns the enriched query text for the query
func (c *Contextualizer) Enhance(query string) string {
	return c.enhance(query, c.Classify(query))
}

// enhance appends focus phrases in fixed category order: emotional, decision,
// career, relationship, existential. The embedding depends on this order.
func (c *Contextualizer) enhance(query string, cats models.ProblemCategories) string {
	cfg := c.policy.Categories
	var focus []string
	if cats.Emotional {
		focus = append(focus, cfg.Emotional.Focus)
	}
	if cats.Decision {
		focus = append(focus, cfg.Decision.Focus)
	}
	if cats.Career {
		focus = append(focus, cfg.Career.Focus)
	}
	if cats.Relationship {
		focus = append(focus, cfg.Relationship.Focus)
	}
	if cats.Existential {
		focus = append(focus, cfg.Existential.Focus)
	}

	enhanced := c.policy.QueryPrefix + query
	if cats.Any() {
		enhanced += ". Focus on: " + strings.Join(focus, ", ")
	}
	return enhanced
}
