package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

const defaultTimeout = 30 * time.Second

// LLM is a text-completion service: one prompt in, free-form text out.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

type Config struct {
	Provider    Provider
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// New builds a client for cfg.Provider. It returns ErrNotConfigured when no API key is set.
func New(cfg Config) (LLM, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client := &http.Client{Timeout: cfg.Timeout}

	switch Provider(strings.ToLower(string(cfg.Provider))) {
	case ProviderGemini, "":
		return NewGemini(cfg, client), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg, client), nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrInvalidConfiguration, cfg.Provider)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
