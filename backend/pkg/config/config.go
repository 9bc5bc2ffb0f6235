package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	apperrors "voicegraph/backend/pkg/errors"
)

// Graph backends
const (
	GraphBackendNeo4j  = "neo4j"
	GraphBackendMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string
	LogFile  string

	// Neo4j
	GraphBackend  string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Model provider (OpenAI-compatible)
	OpenAIBaseURL  string
	OpenAIAPIKey   string
	ChatModel      string
	EmbeddingModel string
	LLMTimeout     time.Duration
	LLMMaxRetries  int

	// Knowledge graph
	FactMatch string // exact or phonetic

	// Conversation history
	HistoryDB       string
	RecallCount     int
	RecallThreshold float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", ""),
		LogFile:         getEnv("LOG_FILE", ""),
		GraphBackend:    getEnv("GRAPH_BACKEND", GraphBackendNeo4j),
		Neo4jURI:        getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:   getEnv("NEO4J_DATABASE", "neo4j"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		ChatModel:       getEnv("CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
		LLMTimeout:      getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		LLMMaxRetries:   getEnvInt("LLM_MAX_RETRIES", 3),
		FactMatch:       getEnv("FACT_MATCH", "exact"),
		HistoryDB:       getEnv("HISTORY_DB", "voicegraph.db"),
		RecallCount:     getEnvInt("RECALL_COUNT", 3),
		RecallThreshold: getEnvFloat("RECALL_THRESHOLD", 0.8),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.GraphBackend {
	case GraphBackendNeo4j:
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	case GraphBackendMemory:
	default:
		return apperrors.NewConfigValidationFailed("GRAPH_BACKEND", fmt.Sprintf("unknown backend %q", c.GraphBackend))
	}
	if c.OpenAIBaseURL == "" {
		return apperrors.NewConfigMissingRequired("OPENAI_BASE_URL")
	}
	if c.ChatModel == "" {
		return apperrors.NewConfigMissingRequired("CHAT_MODEL")
	}
	if c.EmbeddingModel == "" {
		return apperrors.NewConfigMissingRequired("EMBEDDING_MODEL")
	}
	if c.LLMTimeout <= 0 {
		return apperrors.NewConfigValidationFailed("LLM_TIMEOUT", "must be positive")
	}
	if c.LLMMaxRetries < 1 {
		return apperrors.NewConfigValidationFailed("LLM_MAX_RETRIES", "must be at least 1")
	}
	if c.FactMatch != "exact" && c.FactMatch != "phonetic" {
		return apperrors.NewConfigValidationFailed("FACT_MATCH", "must be exact or phonetic")
	}
	if c.RecallThreshold < 0 || c.RecallThreshold > 1 {
		return apperrors.NewConfigValidationFailed("RECALL_THRESHOLD", "must be between 0 and 1")
	}
	// The API key is optional for local OpenAI-compatible gateways
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(value, 64); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}
