package services

import (
	"cmp"
	"slices"

	"github.com/geetaway-search-api/internal/models"
)

// Select bounds adjusted candidates to maxResults. With wantPractical, practical
// unwarned candidates claim places first and the rest backfill; the assembled
// set is then ordered by adjusted score, ties by chapter and verse.
func Select(candidates []models.Candidate, wantPractical bool, maxResults int) models.RankedResult {
	if len(candidates) == 0 || maxResults <= 0 {
		return models.RankedResult{Candidates: []models.Candidate{}}
	}

	var picked []models.Candidate
	if wantPractical {
		ideal := make([]models.Candidate, 0, len(candidates))
		rest := make([]models.Candidate, 0, len(candidates))
		for _, c := range candidates {
			if c.IsIdeal() {
				ideal = append(ideal, c)
			} else {
				rest = append(rest, c)
			}
		}
		picked = append(ideal, rest...)
	} else {
		picked = slices.Clone(candidates)
	}
	if len(picked) > maxResults {
		picked = picked[:maxResults]
	}

	slices.SortStableFunc(picked, compareRanked)
	return models.RankedResult{Candidates: picked}
}

func compareRanked(a, b models.Candidate) int {
	if c := cmp.Compare(b.AdjustedScore, a.AdjustedScore); c != 0 {
		return c
	}
	if a.Ref().Less(b.Ref()) {
		return -1
	}
	if b.Ref().Less(a.Ref()) {
		return 1
	}
	return 0
}
