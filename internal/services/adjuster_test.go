package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geetaway-search-api/internal/models"
)

const (
	battlefieldText = "The warrior Arjuna stood on the battlefield between the two armies"
	deathText       = "Death is certain for one who is born, and rebirth is inevitable for one who dies"
	practicalText   = "One who is not disturbed by misery and does not crave happiness is called a sage of steady mind"
)

func TestAdjuster_Flags(t *testing.T) {
	a := NewAdjuster(testPolicy)

	f := a.Flags(battlefieldText)
	assert.True(t, f.IsBattlefield)
	assert.False(t, f.IsDeathFocused)
	assert.True(t, f.IsUniversal)

	f = a.Flags(deathText)
	assert.True(t, f.IsDeathFocused)
	assert.False(t, f.IsBattlefield)

	f = a.Flags("Those who worship me with devotion, absorbed in me, I carry what they lack")
	assert.True(t, f.IsDevotional)

	f = a.Flags("Behold my cosmic form, containing all the universes")
	assert.True(t, f.IsCosmic)

	// "warfare" is not "war"; "general" is not "generals"
	f = a.Flags("In general, warfare of the mind is subtle")
	assert.False(t, f.IsBattlefield)
}

func TestAdjuster_ScenarioA_PracticalVerseUnchanged(t *testing.T) {
	a := NewAdjuster(testPolicy)
	in := []models.Candidate{candidate(2, 56, practicalText, true, 0.62)}

	out := a.Adjust(in, "I feel confused and afraid about my future")
	require.Len(t, out, 1)
	assert.Equal(t, models.WarningNone, out[0].Warning)
	assert.Equal(t, 0.62, out[0].AdjustedScore)
	assert.Equal(t, 0.62, out[0].RawScore)
}

func TestAdjuster_ScenarioB_BattlefieldPenalty(t *testing.T) {
	a := NewAdjuster(testPolicy)
	in := []models.Candidate{candidate(1, 47, battlefieldText, false, 0.55)}

	out := a.Adjust(in, "How do I stay calm at my desk job?")
	require.Len(t, out, 1)
	assert.Equal(t, models.WarningBattlefield, out[0].Warning)
	assert.InDelta(t, 0.4125, out[0].AdjustedScore, 1e-9)
	assert.True(t, out[0].Flags.IsBattlefield)
}

func TestAdjuster_Branches(t *testing.T) {
	a := NewAdjuster(testPolicy)

	tests := []struct {
		name     string
		text     string
		query    string
		warning  models.Warning
		adjusted float64
	}{
		{"battlefield for social concern", battlefieldText, "I worry about my reputation at work", models.WarningNone, 0.5},
		{"battlefield for confrontation", battlefieldText, "I need to confront my manager", models.WarningNone, 0.5},
		{"death for everyday query", deathText, "How do I stay focused at work?", models.WarningDeathRebirth, 0.4},
		{"death for existential query", deathText, "What is the meaning of life?", models.WarningNone, 0.5},
		{
			"battlefield wins over death",
			battlefieldText + ". " + deathText,
			"How do I stay focused at work?",
			models.WarningBattlefield, 0.375,
		},
		{
			"death applies when battlefield is excused",
			battlefieldText + ". " + deathText,
			"How do I face my fears?",
			models.WarningDeathRebirth, 0.4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := a.Adjust([]models.Candidate{candidate(2, 27, tt.text, true, 0.5)}, tt.query)
			require.Len(t, out, 1)
			assert.Equal(t, tt.warning, out[0].Warning)
			assert.InDelta(t, tt.adjusted, out[0].AdjustedScore, 1e-9)
		})
	}
}

func TestAdjuster_ResortsStably(t *testing.T) {
	a := NewAdjuster(testPolicy)
	in := []models.Candidate{
		candidate(1, 1, battlefieldText, false, 0.60), // -> 0.45
		candidate(2, 1, practicalText, true, 0.50),
		candidate(2, 2, practicalText, true, 0.50),
	}

	out := a.Adjust(in, "How do I stay calm at my desk job?")
	require.Len(t, out, 3)
	assert.Equal(t, "2.1", out[0].Ref().ID())
	assert.Equal(t, "2.2", out[1].Ref().ID())
	assert.Equal(t, "1.1", out[2].Ref().ID())

	// Input candidates are not modified
	assert.Equal(t, 0.60, in[0].AdjustedScore)
	assert.Equal(t, models.WarningNone, in[0].Warning)
}

func TestAdjuster_WarningMonotonicity(t *testing.T) {
	a := NewAdjuster(testPolicy)
	var in []models.Candidate
	for i, raw := range []float64{0.93, 0.5, 0.01, 0, -0.2} {
		in = append(in,
			candidate(1, i+1, battlefieldText, false, raw),
			candidate(2, i+1, deathText, false, raw),
			candidate(3, i+1, practicalText, true, raw),
		)
	}

	for _, c := range a.Adjust(in, "How do I stay calm at my desk job?") {
		if c.Warning != models.WarningNone {
			assert.Less(t, c.AdjustedScore, c.RawScore, c.Ref().ID())
		} else {
			assert.Equal(t, c.RawScore, c.AdjustedScore, c.Ref().ID())
		}
	}
}
