package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Port    string
	GinMode string

	ArtifactDir    string
	VectorizerFile string
	ClassifierFile string
	EncoderFile    string
	TopK           int

	LLMProvider  string
	GeminiAPIKey string
	OpenAIAPIKey string
	LLMModel     string
	LLMBaseURL   string
	LLMTimeout   time.Duration

	DatabaseURL string
	EnableDB    bool
}

// Load reads configuration from the environment, after applying an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	topK, err := getInt("TOP_K", 5)
	if err != nil {
		return nil, err
	}
	timeoutSecs, err := getInt("LLM_TIMEOUT", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "release"),
		ArtifactDir:    getEnv("ARTIFACT_DIR", "models"),
		VectorizerFile: getEnv("VECTORIZER_FILE", "vectorizer.json"),
		ClassifierFile: getEnv("CLASSIFIER_FILE", "classifier.json"),
		EncoderFile:    getEnv("ENCODER_FILE", "label_encoder.json"),
		TopK:           topK,
		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		LLMModel:       os.Getenv("LLM_MODEL"),
		LLMBaseURL:     os.Getenv("LLM_BASE_URL"),
		LLMTimeout:     time.Duration(timeoutSecs) * time.Second,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		EnableDB:       strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.EnableDB && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	switch c.LLMProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (supported: gemini, openai)", c.LLMProvider)
	}
	return nil
}

// APIKey returns the key of the selected provider. An empty key means explanations are disabled.
func (c *Config) APIKey() string {
	if c.LLMProvider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

func (c *Config) ArtifactPaths() (vectorizer, classifier, encoder string) {
	return filepath.Join(c.ArtifactDir, c.VectorizerFile),
		filepath.Join(c.ArtifactDir, c.ClassifierFile),
		filepath.Join(c.ArtifactDir, c.EncoderFile)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
