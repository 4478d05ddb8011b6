package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geetaway-search-api/internal/models"
)

func suggestion(chapter, verse int, text string, flags models.ContextFlags, score float64, themes ...string) models.Suggestion {
	return models.Suggestion{
		Candidate: models.Candidate{
			Record: models.VerseRecord{
				VerseRef:       models.VerseRef{Chapter: chapter, Verse: verse},
				TranslatedText: text,
				Themes:         themes,
			},
			Flags: flags,
		},
		SuitabilityScore: score,
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(Request{
		Problem: "How do I stay calm before a presentation?",
		Suggestions: []models.Suggestion{
			suggestion(2, 47, "You have a right to perform your prescribed duty", models.ContextFlags{IsUniversal: true}, 0.682,
				"detachment", "duty", "action"),
			suggestion(2, 31, "Considering your duty as a warrior, you should not waver", models.ContextFlags{IsBattlefield: true}, 0.41),
		},
	})

	assert.Contains(t, prompt, `"How do I stay calm before a presentation?"`)
	assert.Contains(t, prompt, "Verse 1 (HIGHEST MATCH)")
	assert.NotContains(t, prompt, "Verse 2 (HIGHEST MATCH)")
	assert.Contains(t, prompt, "Chapter 2, Verse 47 | Suitability: 0.682")
	assert.Contains(t, prompt, "Addresses: detachment, duty [Universal wisdom]")
	assert.NotContains(t, prompt, "duty, action")
	assert.Contains(t, prompt, "[Uses battlefield metaphor]")
	assert.Equal(t, 1, strings.Count(prompt, "Translation guide:"))
}

func TestContextTags(t *testing.T) {
	assert.Empty(t, ContextTags(models.ContextFlags{}))
	assert.Equal(t,
		[]string{"Uses battlefield metaphor", "Discusses impermanence", "Devotional teaching", "Universal wisdom"},
		ContextTags(models.ContextFlags{IsBattlefield: true, IsDeathFocused: true, IsDevotional: true, IsUniversal: true, IsCosmic: true}),
	)
}

func TestTranslationGuide(t *testing.T) {
	assert.Empty(t, TranslationGuide(models.ContextFlags{IsUniversal: true, IsCosmic: true}))

	guide := TranslationGuide(models.ContextFlags{IsDeathFocused: true})
	assert.Contains(t, guide, "life transitions")
	assert.NotContains(t, guide, "Battlefield")
}
