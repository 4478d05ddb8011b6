package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geetaway-search-api/internal/models"
)

func flagged(c models.Candidate, flags models.ContextFlags) models.Candidate {
	c.Flags = flags
	return c
}

func TestReranker_ScenarioC_GriefBoost(t *testing.T) {
	c := candidate(2, 27, deathText, false, 0.625)
	c.AdjustedScore = 0.50
	c.Warning = models.WarningDeathRebirth
	c = flagged(c, models.ContextFlags{IsDeathFocused: true, IsUniversal: true})

	got, err := NewReranker(testPolicy).Rerank(
		models.RankedResult{Candidates: []models.Candidate{c}},
		"My father died last week and I don't know how to cope",
	)
	require.NoError(t, err)
	require.Len(t, got, 1)
	// 0.50 x 1.2 (grief) x 1.1 (universal)
	assert.InDelta(t, 0.66, got[0].SuitabilityScore, 1e-9)
}

func TestReranker_Multipliers(t *testing.T) {
	r := NewReranker(testPolicy)

	tests := []struct {
		name    string
		flags   models.ContextFlags
		problem string
		want    float64
	}{
		{"death without grief", models.ContextFlags{IsDeathFocused: true}, "How do I focus at work?", 0.35},
		{"battlefield with confrontation", models.ContextFlags{IsBattlefield: true}, "I need courage to confront my boss", 0.55},
		{"battlefield without confrontation", models.ContextFlags{IsBattlefield: true}, "How do I focus at work?", 0.40},
		{"universal only", models.ContextFlags{IsUniversal: true}, "How do I focus at work?", 0.55},
		{"unmatched", models.ContextFlags{IsDevotional: true}, "How do I focus at work?", 0.50},
		{
			"cumulative",
			models.ContextFlags{IsDeathFocused: true, IsBattlefield: true, IsUniversal: true},
			"My mother passed away and I must face my family",
			0.5 * 1.2 * 1.1 * 1.1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := flagged(candidate(1, 1, "text", true, 0.5), tt.flags)
			got, err := r.Rerank(models.RankedResult{Candidates: []models.Candidate{c}}, tt.problem)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got[0].SuitabilityScore, 1e-9)
		})
	}
}

func TestReranker_TopNSorted(t *testing.T) {
	// Suitability: 0.72, 0.77, 0.65, 0.66, 0.56; the last is below the gate
	in := models.RankedResult{Candidates: []models.Candidate{
		flagged(candidate(1, 1, "a", true, 0.90), models.ContextFlags{IsBattlefield: true}),
		flagged(candidate(1, 2, "b", true, 0.70), models.ContextFlags{IsUniversal: true}),
		flagged(candidate(1, 3, "c", true, 0.65), models.ContextFlags{}),
		flagged(candidate(1, 4, "d", true, 0.60), models.ContextFlags{IsUniversal: true}),
		flagged(candidate(1, 5, "e", true, 0.80), models.ContextFlags{IsDeathFocused: true}),
		flagged(candidate(1, 6, "f", true, 0.25), models.ContextFlags{IsUniversal: true}),
	}}

	got, err := NewReranker(testPolicy).Rerank(in, "How do I focus at work?")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1.2", got[0].Ref().ID())
	assert.Equal(t, "1.1", got[1].Ref().ID())
	assert.Equal(t, "1.4", got[2].Ref().ID())
}

func TestReranker_ConfidenceGate(t *testing.T) {
	in := models.RankedResult{Candidates: []models.Candidate{
		candidate(1, 1, "a", true, 0.30),
		candidate(1, 2, "b", true, 0.12),
	}}

	got, err := NewReranker(testPolicy).Rerank(in, "anything")
	assert.ErrorIs(t, err, models.ErrLowConfidence)
	assert.Empty(t, got)
}

func TestReranker_ConfidenceGateRejectsNaN(t *testing.T) {
	in := models.RankedResult{Candidates: []models.Candidate{
		candidate(1, 1, "a", true, math.NaN()),
	}}

	got, err := NewReranker(testPolicy).Rerank(in, "anything")
	assert.ErrorIs(t, err, models.ErrLowConfidence)
	assert.Empty(t, got)

	in.Candidates = append(in.Candidates, candidate(1, 2, "b", true, 0.5))
	got, err = NewReranker(testPolicy).Rerank(in, "anything")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1.2", got[0].Ref().ID())
}
