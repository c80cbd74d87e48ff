package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/allerscan/backend/internal/domain"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	systemPrompt = "한국어로 JSON 배열만 반환하세요. 설명 금지."
	temperature  = 0.2
	maxTokens    = 200
)

// Config holds configuration for the chat completion client
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client asks a chat completion model for short candidate lists
type Client struct {
	client *resty.Client
	model  string
	logger *zap.Logger
}

// NewClient creates a new chat completion client
func NewClient(config Config, logger *zap.Logger) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := config.Model
	if model == "" {
		model = "gpt-4.1-mini"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(config.APIKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		client: client,
		model:  model,
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends prompt and parses the reply as a JSON array of strings.
// A reply that is not such an array yields an empty list; transport and status failures are errors.
func (c *Client) Generate(ctx context.Context, prompt string) ([]string, error) {
	req := chatRequest{
		Model:       c.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}

	var result chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAIFailure, err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Error("[OpenAI] API error",
			zap.Int("status", resp.StatusCode()),
			zap.String("body", truncate(resp.String(), 300)),
		)
		return nil, fmt.Errorf("%w: status %d", domain.ErrAIFailure, resp.StatusCode())
	}

	if len(result.Choices) == 0 {
		c.logger.Warn("[OpenAI] Empty choices")
		return []string{}, nil
	}

	candidates := ParseJSONArray(result.Choices[0].Message.Content)
	c.logger.Debug("[OpenAI] Candidates received", zap.Strings("candidates", candidates))
	return candidates, nil
}

// ParseJSONArray extracts the non-blank strings of a JSON array, tolerating a markdown code fence
// around it. Non-string elements are ignored and anything else yields an empty list.
func ParseJSONArray(content string) []string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return []string{}
	}

	out := make([]string, 0, len(raw))
	for _, element := range raw {
		var s string
		if err := json.Unmarshal(element, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
