package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Options selects and configures the backing model service.
type Options struct {
	Provider    string // openai | ollama | claude | gemini | groq | openai-compatible
	Model       string
	APIKey      string
	BaseURL     string // openai-compatible only
	OllamaHost  string
	Temperature float64
}

// Client adapts a langchaingo model to the ai.Provider interface.
type Client struct {
	llm      llms.Model
	callOpts []llms.CallOption
}

// New builds a client for the configured provider.
func New(ctx context.Context, opts Options) (*Client, error) {
	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}

	var model llms.Model
	var err error
	switch opts.Provider {
	case "openai":
		model, err = openai.New(openai.WithModel(opts.Model), openai.WithToken(opts.APIKey))
	case "ollama":
		host := opts.OllamaHost
		if host == "" {
			host = "http://localhost:11434"
		}
		model, err = ollama.New(ollama.WithModel(opts.Model), ollama.WithServerURL(host))
	case "claude":
		model, err = anthropic.New(anthropic.WithModel(opts.Model), anthropic.WithToken(opts.APIKey))
	case "gemini":
		model, err = googleai.New(ctx, googleai.WithDefaultModel(opts.Model), googleai.WithAPIKey(opts.APIKey))
	case "groq":
		model, err = openai.New(
			openai.WithModel(opts.Model),
			openai.WithBaseURL("https://api.groq.com/openai/v1"),
			openai.WithToken(opts.APIKey),
		)
	case "openai-compatible":
		if opts.BaseURL == "" {
			return nil, errors.New("base URL is required for the openai-compatible provider")
		}
		o := []openai.Option{openai.WithModel(opts.Model), openai.WithBaseURL(opts.BaseURL)}
		if opts.APIKey != "" {
			o = append(o, openai.WithToken(opts.APIKey))
		}
		model, err = openai.New(o...)
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", opts.Provider, err)
	}
	return &Client{llm: model, callOpts: callOpts}, nil
}

func (c *Client) Complete(ctx context.Context, model string, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, model, "", prompt)
}

func (c *Client) CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error) {
	var messages []llms.MessageContent
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	opts := c.callOpts
	if model != "" {
		opts = append(append([]llms.CallOption{}, c.callOpts...), llms.WithModel(model))
	}
	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
