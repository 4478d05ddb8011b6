package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/geetaway-search-api/internal/models"
)

// Corpus backends
const (
	BackendMemory   = "memory"
	BackendPGVector = "pgvector"
	BackendVertex   = "vertex"
)

// Guidance providers
const (
	GuidanceVertex = "vertex"
	GuidanceOpenAI = "openai"
	GuidanceNone   = "none"
)

// Config holds all application configuration
type Config struct {
	// API Settings
	APITitle   string
	APIVersion string
	APIPrefix  string
	Port       string
	Env        string
	LogLevel   string

	// CORS
	CORSOrigins []string

	// Accepted X-API-Key values; empty disables key checks
	APIKeys []string

	// Corpus backend: "memory", "pgvector" or "vertex"
	CorpusBackend        string
	CorpusMetadataPath   string // metadata.json (memory and vertex backends)
	CorpusEmbeddingsPath string // embeddings.jsonl (memory backend)

	// Vertex AI Vector Search settings (used when CorpusBackend = "vertex")
	VertexProjectID            string
	VertexLocation             string
	VertexIndexEndpointID      string
	VertexDeployedIndexID      string
	VertexPublicEndpointDomain string
	VertexDistanceMeasure      string

	// Guidance generation
	GuidanceProvider string // "vertex", "openai" or "none"
	GuidanceModel    string
	GuidanceAPIKey   string
	GuidanceBaseURL  string
	GuidanceTimeout  time.Duration

	// Retrieval policy file; empty uses the built-in policy
	PolicyFile string
}

var (
	config *Config
	once   sync.Once
)

// GetConfig returns the singleton configuration instance
func GetConfig() *Config {
	once.Do(func() {
		config = loadConfig(os.Getenv)
	})
	return config
}

func loadConfig(getenv func(string) string) *Config {
	env := func(key, defaultValue string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return defaultValue
	}

	return &Config{
		APITitle:    env("API_TITLE", "TheGeetaWay Search API"),
		APIVersion:  env("API_VERSION", "1.0.0"),
		APIPrefix:   env("API_PREFIX", "/api/v1"),
		Port:        env("PORT", "8000"),
		Env:         env("ENV", "development"),
		LogLevel:    env("LOG_LEVEL", ""),
		CORSOrigins: parseList(env("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		APIKeys:     parseList(env("API_KEYS", "")),

		CorpusBackend:        env("CORPUS_BACKEND", BackendMemory),
		CorpusMetadataPath:   env("CORPUS_METADATA_PATH", "data/metadata.json"),
		CorpusEmbeddingsPath: env("CORPUS_EMBEDDINGS_PATH", "data/embeddings.jsonl"),

		// Vertex AI settings
		VertexProjectID:            env("VERTEX_PROJECT_ID", ""),
		VertexLocation:             env("VERTEX_LOCATION", "us-central1"),
		VertexIndexEndpointID:      env("VERTEX_INDEX_ENDPOINT_ID", ""),
		VertexDeployedIndexID:      env("VERTEX_DEPLOYED_INDEX_ID", ""),
		VertexPublicEndpointDomain: env("VERTEX_PUBLIC_ENDPOINT_DOMAIN", ""),
		VertexDistanceMeasure:      env("VERTEX_DISTANCE_MEASURE", "DOT_PRODUCT_DISTANCE"),

		GuidanceProvider: env("GUIDANCE_PROVIDER", GuidanceOpenAI),
		GuidanceModel:    env("GUIDANCE_MODEL", ""),
		GuidanceAPIKey:   env("GUIDANCE_API_KEY", getenv("GROQ_API_KEY")),
		GuidanceBaseURL:  env("GUIDANCE_BASE_URL", ""),
		GuidanceTimeout:  time.Duration(envInt(getenv, "GUIDANCE_TIMEOUT_SEC", 30)) * time.Second,

		PolicyFile: env("POLICY_FILE", ""),
	}
}

// Validate rejects unknown backends and providers
func (c *Config) Validate() error {
	switch c.CorpusBackend {
	case BackendMemory, BackendPGVector, BackendVertex:
	default:
		return models.NewConfigurationError("CORPUS_BACKEND", "unknown backend %q", c.CorpusBackend)
	}
	switch c.GuidanceProvider {
	case GuidanceVertex, GuidanceOpenAI, GuidanceNone:
	default:
		return models.NewConfigurationError("GUIDANCE_PROVIDER", "unknown provider %q", c.GuidanceProvider)
	}
	if c.CorpusBackend == BackendVertex && (c.VertexIndexEndpointID == "" || c.VertexDeployedIndexID == "") {
		return models.NewConfigurationError("VERTEX_INDEX_ENDPOINT_ID", "vertex backend needs an index endpoint and deployed index")
	}
	return nil
}

func envInt(getenv func(string) string, key string, defaultValue int) int {
	if value := getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return i
	}
	return defaultValue
}

// parseList accepts a JSON array or a comma-separated list
func parseList(value string) []string {
	var items []string
	if err := json.Unmarshal([]byte(value), &items); err == nil {
		return items
	}
	parts := strings.Split(value, ",")
	items = make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
