package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAI talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAI struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

func NewOpenAI(cfg Config, client *http.Client) *OpenAI {
	o := &OpenAI{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      client,
	}
	if o.baseURL == "" {
		o.baseURL = defaultOpenAIBaseURL
	}
	if o.model == "" {
		o.model = defaultOpenAIModel
	}
	return o
}

func (o *OpenAI) Name() string {
	return "openai/" + o.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAPICallFailed, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(respBytes, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := truncate(string(respBytes), 512)
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrRateLimited, msg)
		}
		return "", fmt.Errorf("%w: openai status %d: %s", ErrAPICallFailed, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decode chat response: %v", ErrAPICallFailed, decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}
