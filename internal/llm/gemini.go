package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel    = "gemini-pro-latest"
)

type Gemini struct {
	apiKey      string
	endpoint    string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

func NewGemini(cfg Config, client *http.Client) *Gemini {
	g := &Gemini{
		apiKey:      cfg.APIKey,
		endpoint:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       strings.TrimPrefix(cfg.Model, "models/"),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      client,
	}
	if g.endpoint == "" {
		g.endpoint = defaultGeminiEndpoint
	}
	if g.model == "" {
		g.model = defaultGeminiModel
	}
	return g
}

func (g *Gemini) Name() string {
	return "gemini/" + g.model
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Generate calls models/{model}:generateContent and joins the text parts of the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
	}
	if g.temperature != 0 || g.maxTokens != 0 {
		payload.GenerationConfig = &geminiGenerationConfig{
			Temperature:     g.temperature,
			MaxOutputTokens: g.maxTokens,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	var parsed geminiResponse
	decodeErr := json.Unmarshal(respBytes, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := truncate(string(respBytes), 512)
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrRateLimited, msg)
		}
		return "", fmt.Errorf("%w: gemini status %d: %s", ErrAPICallFailed, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decode gemini response: %v", ErrAPICallFailed, decodeErr)
	}

	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrBlocked, parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
