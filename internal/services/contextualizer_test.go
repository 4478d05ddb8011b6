package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geetaway-search-api/internal/models"
)

func TestContextualizer_Classify(t *testing.T) {
	c := NewContextualizer(testPolicy)

	tests := []struct {
		query string
		want  models.ProblemCategories
	}{
		{
			query: "I feel confused and afraid about my future",
			want:  models.ProblemCategories{Emotional: true, Decision: true, Career: true},
		},
		{
			query: "My colleague keeps undermining me",
			want:  models.ProblemCategories{Relationship: true},
		},
		{
			query: "What is the meaning of all this?",
			want:  models.ProblemCategories{Existential: true},
		},
		{
			query: "Hello there",
			want:  models.ProblemCategories{},
		},
		{
			// "homework" must not trigger "work"
			query: "I finished my homework",
			want:  models.ProblemCategories{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.query))
		})
	}
}

func TestContextualizer_Enhance(t *testing.T) {
	c := NewContextualizer(testPolicy)

	assert.Equal(t,
		"Practical life guidance: I feel confused and afraid about my future. Focus on: managing fear and anxiety, making clear decisions, finding purpose and direction",
		c.Enhance("I feel confused and afraid about my future"),
	)
	assert.Equal(t, "Practical life guidance: Hello there", c.Enhance("Hello there"))

	// Career precedes relationship regardless of where the words appear
	assert.Equal(t,
		"Practical life guidance: My partner hates my job. Focus on: finding purpose and direction, handling interpersonal challenges",
		c.Enhance("My partner hates my job"),
	)
}

func TestContextualizer_Deterministic(t *testing.T) {
	c := NewContextualizer(testPolicy)
	q := "Should I quit my job to care for my parents?"
	assert.Equal(t, c.Enhance(q), c.Enhance(q))
}
