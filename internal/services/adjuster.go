package services

import (
	"cmp"
	"math"
	"slices"

	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/policy"
)

// minPenaltyStep keeps a penalty strictly lowering a zero score
const minPenaltyStep = 1e-9

// Adjuster down-weights candidates whose literal framing (battlefield, mortality)
// does not fit the question being asked
type Adjuster struct {
	policy *policy.Policy
}

// NewAdjuster creates a relevance adjuster over a compiled policy
func NewAdjuster(p *policy.Policy) *Adjuster {
	return &Adjuster{policy: p}
}

// Flags detects the context flags of a verse translation
func (a *Adjuster) Flags(text string) models.ContextFlags {
	m := a.policy.Matchers()
	return models.ContextFlags{
		IsBattlefield:  m.Battlefield.Match(text),
		IsDeathFocused: m.DeathFocused.Match(text),
		IsDevotional:   m.Devotional.Match(text),
		IsCosmic:       m.Cosmic.Match(text),
		IsUniversal:    a.policy.UniversalDefault || m.Universal.Match(text),
	}
}

// Adjust returns new candidates carrying flags, warnings and adjusted scores,
// stably sorted by adjusted score descending. query is the original question.
func (a *Adjuster) Adjust(candidates []models.Candidate, query string) []models.Candidate {
	m := a.policy.Matchers()
	social := m.SocialConcern.Match(query)
	confrontation := m.Confrontation.Match(query)
	existential := m.Existential.Match(query)

	out := make([]models.Candidate, len(candidates))
	for i, c := range candidates {
		c.Flags = a.Flags(c.Record.TranslatedText)
		switch {
		case c.Flags.IsBattlefield && !social && !confrontation:
			c.Warning = models.WarningBattlefield
			c.AdjustedScore = penalize(c.RawScore, a.policy.Penalties.Battlefield)
		case c.Flags.IsDeathFocused && !existential:
			c.Warning = models.WarningDeathRebirth
			c.AdjustedScore = penalize(c.RawScore, a.policy.Penalties.DeathRebirth)
		default:
			c.Warning = models.WarningNone
			c.AdjustedScore = c.RawScore
		}
		out[i] = c
	}

	slices.SortStableFunc(out, func(x, y models.Candidate) int {
		return cmp.Compare(y.AdjustedScore, x.AdjustedScore)
	})
	return out
}

// penalize applies factor in (0,1) so the result is strictly below score, also
// for zero and negative similarities.
func penalize(score, factor float64) float64 {
	if score > 0 {
		return score * factor
	}
	return score - (1-factor)*math.Max(math.Abs(score), minPenaltyStep)
}
