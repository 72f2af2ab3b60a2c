// Package openai implements music.Suggester on top of the OpenAI chat
// completions endpoint. Requests are plain JSON over resty.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"Mood-Music-Go/pkg/music"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 100
)

var log = logrus.WithField("component", "openai")

// Client calls POST {BaseURL}/chat/completions. Zero fields fall back to the
// package defaults; Timeout defaults to 10 seconds.
type Client struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration

	once sync.Once
	http *resty.Client
}

var _ music.Suggester = (*Client)(nil)

// New returns a Client using the default model and endpoint.
func New(apiKey string) *Client {
	return &Client{APIKey: apiKey}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Suggest asks for an underrated song matching moodLabel.
func (c *Client) Suggest(ctx context.Context, moodLabel string) (music.Suggestion, error) {
	return c.complete(ctx, music.SuggestionPrompt(moodLabel))
}

// SuggestAlternative asks for a different song in the same vibe as primary.
func (c *Client) SuggestAlternative(ctx context.Context, moodLabel string, primary music.Suggestion) (music.Suggestion, error) {
	return c.complete(ctx, music.AlternativePrompt(moodLabel, primary))
}

func (c *Client) client() *resty.Client {
	c.once.Do(func() {
		base := c.BaseURL
		if base == "" {
			base = DefaultBaseURL
		}
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		c.http = resty.New().
			SetBaseURL(base).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json")
	})
	return c.http
}

func (c *Client) complete(ctx context.Context, prompt string) (music.Suggestion, error) {
	if c.APIKey == "" {
		return music.Suggestion{}, music.Fail(music.CredentialMissing, "openai chat", errors.New("api key not set"))
	}
	model := c.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	resp, err := c.client().R().
		SetContext(ctx).
		SetAuthToken(c.APIKey).
		SetBody(chatRequest{
			Model: model,
			Messages: []chatMessage{
				{Role: "system", Content: music.SystemPrompt},
				{Role: "user", Content: prompt},
			},
			MaxTokens: maxTokens,
		}).
		Post("/chat/completions")
	if err != nil {
		return music.Suggestion{}, music.Fail(music.NetworkError, "openai chat", err)
	}
	if !resp.IsSuccess() {
		log.WithField("status", resp.StatusCode()).Warn("chat completion rejected")
		return music.Suggestion{}, music.Fail(music.NetworkError, "openai chat", fmt.Errorf("status %s", resp.Status()))
	}
	body := resp.Body()
	if len(body) == 0 {
		return music.Suggestion{}, music.Fail(music.NetworkError, "openai chat", errors.New("empty response body"))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return music.Suggestion{}, music.Fail(music.ParseError, "openai chat", err)
	}
	if len(out.Choices) == 0 {
		return music.Suggestion{}, music.Fail(music.NoResults, "openai chat", errors.New("no choices returned"))
	}
	return music.ParseSuggestion(out.Choices[0].Message.Content)
}
