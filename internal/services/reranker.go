package services

import (
	"cmp"
	"slices"

	"github.com/geetaway-search-api/internal/models"
	"github.com/geetaway-search-api/internal/policy"
)

// Reranker rescores selected candidates for guidance generation against grief and
// confrontation signals in the user's problem
type Reranker struct {
	policy *policy.Policy
}

// NewReranker creates a suitability reranker over a compiled policy
func NewReranker(p *policy.Policy) *Reranker {
	return &Reranker{policy: p}
}

// Rerank returns the top guidance_top_n suggestions by suitability. Only
// candidates whose raw score clears min_confidence are considered; if none do it
// returns models.ErrLowConfidence.
func (r *Reranker) Rerank(results models.RankedResult, userProblem string) ([]models.Suggestion, error) {
	minConf := r.policy.Retrieval.MinConfidence
	m := r.policy.Matchers()
	grief := m.Grief.Match(userProblem)
	confrontation := m.GuidanceConfrontation.Match(userProblem)
	s := r.policy.Suitability

	suggestions := make([]models.Suggestion, 0, results.Len())
	for _, c := range results.Candidates {
		// Written negated so NaN scores are rejected too
		if !(c.RawScore > minConf) {
			continue
		}

		score := c.AdjustedScore
		if c.Flags.IsDeathFocused {
			if grief {
				score *= s.GriefBoost
			} else {
				score *= s.DeathPenalty
			}
		}
		if c.Flags.IsBattlefield {
			if confrontation {
				score *= s.ConfrontationBoost
			} else {
				score *= s.BattlefieldPenalty
			}
		}
		if c.Flags.IsUniversal {
			score *= s.UniversalBoost
		}

		suggestions = append(suggestions, models.Suggestion{Candidate: c, SuitabilityScore: score})
	}
	if len(suggestions) == 0 {
		return nil, models.ErrLowConfidence
	}

	slices.SortStableFunc(suggestions, func(a, b models.Suggestion) int {
		if c := cmp.Compare(b.SuitabilityScore, a.SuitabilityScore); c != 0 {
			return c
		}
		return compareRanked(a.Candidate, b.Candidate)
	})

	if n := r.policy.Retrieval.GuidanceTopN; len(suggestions) > n {
		suggestions = suggestions[:n]
	}
	return suggestions, nil
}
