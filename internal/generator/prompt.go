package generator

import (
	"fmt"
	"strings"

	"github.com/geetaway-search-api/internal/models"
)

// SystemPrompt sets the voice of the guidance
const SystemPrompt = `You are a compassionate life coach and spiritual guide who helps people apply timeless Bhagavad Gita wisdom to modern life challenges.

Core principles:
- Be warm, empathetic and non-judgmental
- Focus on practical, actionable guidance over philosophy
- Translate ancient metaphors to contemporary contexts
- Avoid being preachy or overly religious
- Speak in clear, accessible language
- Prioritize the verse marked HIGHEST MATCH unless it is clearly inappropriate

When handling metaphorical verses:
- Battlefield metaphors: modern challenges and difficult decisions
- Death and rebirth: life transitions, change, letting go
- Devotion and surrender: trusting the process, releasing ego
- Always ground advice in the user's real-world situation`

const taskInstructions = `Your task:

1. Select the most appropriate verse. Usually Verse 1 (HIGHEST MATCH), but use your judgment:
   - Avoid verses about death/rebirth for everyday problems (unless about grief or loss)
   - Avoid battlefield metaphors unless about confronting challenges
   - Prefer universal, practical wisdom for general life questions

2. Explain the connection (2-3 sentences):
   - Use the person's own words from their situation
   - Show specifically how this verse addresses their exact concern
   - If the verse uses metaphor, translate it to their context

3. Give actionable guidance (4-5 sentences):
   - Concrete steps they can take today
   - Specific and practical, not abstract
   - Build on the verse's wisdom in modern terms

Response format:

Selected Verse: Chapter X, Verse Y

Why This Resonates:
[Connect the verse teaching directly to their problem.]

Practical Steps:
[Specific, actionable guidance for today and this week.]

Word limit: 180 words total. Be concise, warm and specific.`

// BuildPrompt renders the user prompt for a request
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("A person is seeking guidance for their life situation:\n\n")
	fmt.Fprintf(&b, "Their situation:\n%q\n\n", req.Problem)
	b.WriteString("Top matching verses from the Bhagavad Gita:\n")
	for i, s := range req.Suggestions {
		writeVerse(&b, i+1, s)
	}
	b.WriteString("\n")
	b.WriteString(taskInstructions)
	return b.String()
}

func writeVerse(b *strings.Builder, n int, s models.Suggestion) {
	marker := ""
	if n == 1 {
		marker = " (HIGHEST MATCH)"
	}
	fmt.Fprintf(b, "\nVerse %d%s\n", n, marker)
	fmt.Fprintf(b, "Chapter %d, Verse %d | Suitability: %.3f\n", s.Record.Chapter, s.Record.Verse, s.SuitabilityScore)

	var line []string
	if themes := s.Record.Themes; len(themes) > 0 {
		if len(themes) > 2 {
			themes = themes[:2]
		}
		line = append(line, "Addresses: "+strings.Join(themes, ", "))
	}
	if tags := ContextTags(s.Flags); len(tags) > 0 {
		line = append(line, "["+strings.Join(tags, ", ")+"]")
	}
	if len(line) > 0 {
		b.WriteString(strings.Join(line, " "))
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "\n%q\n", s.Record.TranslatedText)
	if guide := TranslationGuide(s.Flags); guide != "" {
		b.WriteString(guide)
		b.WriteString("\n")
	}
}

// ContextTags describes a verse's framing for the model
func ContextTags(f models.ContextFlags) []string {
	var tags []string
	if f.IsBattlefield {
		tags = append(tags, "Uses battlefield metaphor")
	}
	if f.IsDeathFocused {
		tags = append(tags, "Discusses impermanence")
	}
	if f.IsDevotional {
		tags = append(tags, "Devotional teaching")
	}
	if f.IsUniversal {
		tags = append(tags, "Universal wisdom")
	}
	return tags
}

// TranslationGuide maps a verse's metaphors to modern terms. Empty when the verse
// has no battlefield, mortality or devotional framing.
func TranslationGuide(f models.ContextFlags) string {
	if !f.IsBattlefield && !f.IsDeathFocused && !f.IsDevotional {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nTranslation guide:")
	if f.IsBattlefield {
		b.WriteString(`
- "Battlefield" -> your current challenging situation
- "Warrior/Arjuna" -> you, facing your challenge
- "Fleeing/Retreating" -> avoiding or giving up on what matters
- "Generals/Respect" -> your self-respect and integrity
- "Fighting" -> courageously facing your responsibilities
- "Duty" -> your authentic path and responsibilities`)
	}
	if f.IsDeathFocused {
		b.WriteString(`
- "Death/Rebirth" -> life transitions and change
- "Imperishable soul" -> your core values and essence
- "Temporary body" -> external circumstances and conditions
- "Inevitable" -> acceptance of life's natural cycles`)
	}
	if f.IsDevotional {
		b.WriteString(`
- "Surrender to Me" -> let go of ego and trust the process
- "Divine" -> higher purpose or universal principles
- "Devotion" -> commitment to your values and growth`)
	}
	return b.String()
}
