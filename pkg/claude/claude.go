// Package claude implements music.Suggester with the Anthropic Messages API.
// It is the alternate text backend selected with TEXT_PROVIDER=anthropic.
package claude

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"Mood-Music-Go/pkg/music"
)

const (
	DefaultModel     = "claude-haiku-4-5"
	DefaultMaxTokens = 100
)

// messageCreator is the subset of anthropic.MessageService used here.
type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client asks Claude for song suggestions.
type Client struct {
	model     string
	maxTokens int64
	messages  messageCreator
}

var _ music.Suggester = (*Client)(nil)

// Options configures New. Zero values use the package defaults.
type Options struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// New builds a Client. A missing API key is not an error here; every call
// then fails with music.CredentialMissing.
func New(o Options) *Client {
	c := &Client{model: o.Model, maxTokens: int64(o.MaxTokens)}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if o.APIKey == "" {
		return c
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(o.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if o.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(o.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	c.messages = &client.Messages
	return c
}

// Suggest asks for an underrated song matching moodLabel.
func (c *Client) Suggest(ctx context.Context, moodLabel string) (music.Suggestion, error) {
	return c.complete(ctx, music.SuggestionPrompt(moodLabel))
}

// SuggestAlternative asks for a different song in the same vibe as primary.
func (c *Client) SuggestAlternative(ctx context.Context, moodLabel string, primary music.Suggestion) (music.Suggestion, error) {
	return c.complete(ctx, music.AlternativePrompt(moodLabel, primary))
}

func (c *Client) complete(ctx context.Context, prompt string) (music.Suggestion, error) {
	if c.messages == nil {
		return music.Suggestion{}, music.Fail(music.CredentialMissing, "claude messages", errors.New("api key not set"))
	}
	msg, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: music.SystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return music.Suggestion{}, music.Fail(music.NetworkError, "claude messages", err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return music.ParseSuggestion(block.Text)
		}
	}
	return music.Suggestion{}, music.Fail(music.NoResults, "claude messages", errors.New("no text content returned"))
}
