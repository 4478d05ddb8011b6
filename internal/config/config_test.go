package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/geetaway-search-api/internal/models"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := loadConfig(envMap(nil))

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, BackendMemory, cfg.CorpusBackend)
	assert.Equal(t, GuidanceOpenAI, cfg.GuidanceProvider)
	assert.Equal(t, 30*time.Second, cfg.GuidanceTimeout)
	assert.Empty(t, cfg.APIKeys)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg := loadConfig(envMap(map[string]string{
		"API_KEYS":             `["k1","k2"]`,
		"CORS_ORIGINS":         "https://thegeetaway.app",
		"GROQ_API_KEY":         "gsk_legacy",
		"GUIDANCE_TIMEOUT_SEC": "nope",
		"CORPUS_BACKEND":       "pgvector",
	}))

	assert.Equal(t, []string{"k1", "k2"}, cfg.APIKeys)
	assert.Equal(t, []string{"https://thegeetaway.app"}, cfg.CORSOrigins)
	assert.Equal(t, "gsk_legacy", cfg.GuidanceAPIKey)
	assert.Equal(t, 30*time.Second, cfg.GuidanceTimeout)
	assert.Equal(t, BackendPGVector, cfg.CorpusBackend)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"CORPUS_BACKEND": "faiss"}},
		{"unknown provider", map[string]string{"GUIDANCE_PROVIDER": "groq"}},
		{"vertex without endpoint", map[string]string{"CORPUS_BACKEND": "vertex"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, loadConfig(envMap(tt.env)).Validate(), models.ErrConfiguration)
		})
	}
}
