// Package stylist turns retrieved catalog items into a human-readable outfit
// recommendation: an AI-generated description plus an HTML document.
package stylist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/itpurple/stylist/internal/domain"
	"github.com/itpurple/stylist/internal/schema"
)

// FallbackDescription is returned whenever the generation backend fails.
const FallbackDescription = "Не удалось сгенерировать описание для этого образа."

// ErrGenerationDisabled is returned by NoopGenerator when no backend is
// configured.
var ErrGenerationDisabled = errors.New("text generation is not configured")

// TextGenerator is a text-in/text-out capability.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIGenerator generates text through an OpenAI-compatible
// chat-completions API. Single sample, sampling on, bounded output.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// OpenAIConfig configures the generation backend.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // empty = api.openai.com
	Model       string
	MaxTokens   int
	Temperature float32
}

// NewOpenAIGenerator creates a generator for the configured backend.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.8
	}
	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Generate runs one chat completion for the prompt.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		N:           1,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// NoopGenerator always fails, forcing the fallback description. Used when no
// generation backend is configured.
type NoopGenerator struct{}

// Generate implements TextGenerator.
func (NoopGenerator) Generate(context.Context, string) (string, error) {
	return "", ErrGenerationDisabled
}

// Describer builds the generation prompt from items and answers and recovers
// any backend failure into the fixed fallback sentence.
type Describer struct {
	gen     TextGenerator
	timeout time.Duration
}

// NewDescriber wraps a generator with a bounded per-call timeout.
func NewDescriber(gen TextGenerator, timeout time.Duration) *Describer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Describer{gen: gen, timeout: timeout}
}

// Describe returns a natural-language outfit description. It never fails:
// generation errors degrade to FallbackDescription.
func (d *Describer) Describe(ctx context.Context, items []domain.CatalogItem, ans domain.Answers) string {
	prompt := BuildPrompt(items, ans)
	slog.Debug("Prompting generation backend", "prompt_len", len(prompt))

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	text, err := d.gen.Generate(ctx, prompt)
	if err != nil {
		slog.Error("Failed to generate outfit description", "error", err)
		return FallbackDescription
	}
	if strings.TrimSpace(text) == "" {
		return FallbackDescription
	}
	return text
}

// BuildPrompt deterministically assembles the generation prompt from item
// names and every collected answer.
func BuildPrompt(items []domain.CatalogItem, ans domain.Answers) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Опиши стильный образ, подходящий для %s. ", ans.String(schema.KeyOccasion))
	fmt.Fprintf(&b, "Он состоит из: %s. ", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Учитывай стиль: %s. ", strings.Join(ans.List(schema.KeyStyle), ", "))
	if size := ans.Int(schema.KeySize); size > 0 {
		fmt.Fprintf(&b, "Этот образ размера %d, цвета %s, и с составом ткани %s. ",
			size, ans.String(schema.KeyColor), ans.String(schema.KeyComposition))
	}
	if original := ans.String(schema.KeyOriginal); original != "" {
		fmt.Fprintf(&b, "Только оригинальные товары: %s. ", original)
	}
	if season := ans.String(schema.KeySeason); season != "" {
		fmt.Fprintf(&b, "Подходит для сезона: %s.", season)
	}
	return strings.TrimSpace(b.String())
}
