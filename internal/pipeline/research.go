package pipeline

import (
	"context"
	"fmt"

	"github.com/sells-group/phone-insight/pkg/anthropic"
	"github.com/sells-group/phone-insight/pkg/perplexity"
)

// Completion is the raw text reply of a research provider plus its usage.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Researcher sends a research prompt to a generative provider and returns
// its raw reply. Implementations do not retry.
type Researcher interface {
	// Provider is the display name used in report messages, e.g. "Perplexity".
	Provider() string
	Research(ctx context.Context, prompt ResearchPrompt) (*Completion, error)
}

// EmptyCompletionError is returned when the provider answered successfully
// but with no content.
type EmptyCompletionError struct {
	Provider string
}

func (e *EmptyCompletionError) Error() string {
	return fmt.Sprintf("%s returned an empty response.", e.Provider)
}

// ResearchOptions are the generation settings shared by every provider.
type ResearchOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultResearchOptions returns low-temperature, bounded-length settings.
func DefaultResearchOptions() ResearchOptions {
	return ResearchOptions{Temperature: 0.2, MaxTokens: 2000}
}

type perplexityResearcher struct {
	client perplexity.Client
	opts   ResearchOptions
}

// NewPerplexityResearcher returns the default web-grounded Researcher.
func NewPerplexityResearcher(client perplexity.Client, opts ResearchOptions) Researcher {
	return &perplexityResearcher{client: client, opts: opts}
}

func (r *perplexityResearcher) Provider() string { return "Perplexity" }

func (r *perplexityResearcher) Research(ctx context.Context, prompt ResearchPrompt) (*Completion, error) {
	temp := r.opts.Temperature
	maxTokens := r.opts.MaxTokens

	resp, err := r.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: r.opts.Model,
		Messages: []perplexity.Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, err
	}

	text := resp.Content()
	if text == "" {
		return nil, &EmptyCompletionError{Provider: r.Provider()}
	}
	return &Completion{
		Text:         text,
		Model:        r.opts.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

type anthropicResearcher struct {
	client anthropic.Client
	opts   ResearchOptions
}

// NewAnthropicResearcher returns a Researcher backed by the Messages API.
func NewAnthropicResearcher(client anthropic.Client, opts ResearchOptions) Researcher {
	return &anthropicResearcher{client: client, opts: opts}
}

func (r *anthropicResearcher) Provider() string { return "Anthropic" }

func (r *anthropicResearcher) Research(ctx context.Context, prompt ResearchPrompt) (*Completion, error) {
	temp := r.opts.Temperature

	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       r.opts.Model,
		MaxTokens:   int64(r.opts.MaxTokens),
		System:      prompt.System,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt.User}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if text == "" {
		return nil, &EmptyCompletionError{Provider: r.Provider()}
	}
	return &Completion{
		Text:         text,
		Model:        resp.Model,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}
