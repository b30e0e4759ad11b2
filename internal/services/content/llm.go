package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcoot/impostor/internal/model"
)

const (
	DefaultLLMBaseURL  = "https://api.openai.com/v1"
	DefaultLLMModel    = "gpt-4o-mini"
	DefaultLLMLanguage = "English"
)

// LLMConfig configures an OpenAI-compatible chat completions endpoint
type LLMConfig struct {
	BaseURL  string
	Model    string
	APIKey   string
	Language string

	// RequestsPerMinute limits outgoing calls; zero disables limiting
	RequestsPerMinute float64
}

// LLMProvider generates round content with a chat completions API
type LLMProvider struct {
	cfg     LLMConfig
	client  *http.Client
	limiter *rate.Limiter
}

var _ Provider = (*LLMProvider)(nil)

// ErrMissingAPIKey is returned when no API key is configured
var ErrMissingAPIKey = errors.New("content API key is not configured")

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// generatedRound is the JSON object the model is asked to produce
type generatedRound struct {
	Category     string `json:"category"`
	SecretWord   string `json:"secretWord"`
	ImpostorHint string `json:"impostorHint"`
	ImposterHint string `json:"imposterHint"`
}

// NewLLMProvider creates a new LLMProvider. A nil client uses http.DefaultClient.
func NewLLMProvider(cfg LLMConfig, client *http.Client) *LLMProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultLLMBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLLMLanguage
	}
	if client == nil {
		client = http.DefaultClient
	}

	p := &LLMProvider{cfg: cfg, client: client}
	if cfg.RequestsPerMinute > 0 {
		p.limiter = rate.NewLimiter(rate.Every(time.Duration(float64(time.Minute)/cfg.RequestsPerMinute)), 1)
	}
	return p
}

func (p *LLMProvider) prompt(category string) string {
	return fmt.Sprintf(
		"Generate a single secret word in %[1]s (a noun) that fits the category '%[2]s', "+
			"and a subtle, cryptic hint in %[1]s that describes it without giving it away. "+
			"This is for a party game where an impostor receives the hint and everyone else receives the word. "+
			`Respond with a JSON object {"category": string, "secretWord": string, "impostorHint": string}, `+
			"with the category name translated to %[1]s.",
		p.cfg.Language, category,
	)
}

// Generate requests one word and hint for the category
func (p *LLMProvider) Generate(ctx context.Context, category string) (model.RoundData, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return model.RoundData{}, ErrMissingAPIKey
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return model.RoundData{}, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	payload, err := json.Marshal(chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: p.prompt(category)},
		},
		Temperature:    0.9,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return model.RoundData{}, fmt.Errorf("building request: %w", err)
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return model.RoundData{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(p.cfg.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return model.RoundData{}, fmt.Errorf("calling content API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.RoundData{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.RoundData{}, fmt.Errorf("content API returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.RoundData{}, fmt.Errorf("parsing response: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return model.RoundData{}, fmt.Errorf("content API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return model.RoundData{}, errors.New("content API returned no choices")
	}

	var round generatedRound
	if err := json.Unmarshal([]byte(stripCodeFence(parsed.Choices[0].Message.Content)), &round); err != nil {
		return model.RoundData{}, fmt.Errorf("parsing generated content: %w", err)
	}

	hint := round.ImpostorHint
	if hint == "" {
		hint = round.ImposterHint
	}
	return model.RoundData{
		Category:     round.Category,
		SecretWord:   round.SecretWord,
		ImpostorHint: hint,
	}, nil
}

// stripCodeFence removes a surrounding markdown code fence some models add
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
