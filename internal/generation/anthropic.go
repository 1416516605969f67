package generation

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens int64 = 2048

// AnthropicBackend generates text via a single, non-streaming Messages.New
// call. Adapted from the richer multi-turn, tool-calling client found
// elsewhere in the pack down to what report narration actually needs: one
// system prompt, one user prompt, one text reply.
type AnthropicBackend struct {
	sdk          anthropic.Client
	defaultModel string
}

func NewAnthropicBackend(apiKey, defaultModel string) *AnthropicBackend {
	if defaultModel == "" {
		defaultModel = string(anthropic.ModelClaude3_7SonnetLatest)
	}
	return &AnthropicBackend{
		sdk:          anthropic.NewClient(option.WithAPIKey(strings.TrimSpace(apiKey))),
		defaultModel: defaultModel,
	}
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

func (b *AnthropicBackend) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = b.defaultModel
	}
	maxTokens := defaultAnthropicMaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = int64(opts.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	temp := float64(opts.Temperature)
	if opts.Temperature != 0 {
		params.Temperature = anthropic.Float(temp)
	}

	resp, err := b.sdk.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic backend: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic backend: empty response")
	}
	return sb.String(), nil
}
