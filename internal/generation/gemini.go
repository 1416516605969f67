package generation

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiBackend generates text via the Gemini API. Grounded on
// pkg/core/llm/gemini.go: client-per-call construction, JSON-mode detection
// from the prompt content, and citation extraction from grounding metadata.
type GeminiBackend struct {
	apiKey       string
	defaultModel string
}

func NewGeminiBackend(apiKey, defaultModel string) *GeminiBackend {
	if defaultModel == "" {
		defaultModel = "gemini-2.0-flash"
	}
	return &GeminiBackend{apiKey: apiKey, defaultModel: defaultModel}
}

func (b *GeminiBackend) Name() string { return "gemini" }

func (b *GeminiBackend) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	if b.apiKey == "" {
		return "", fmt.Errorf("gemini backend: no API key configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  b.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("gemini backend: new client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = b.defaultModel
	}

	temp := opts.Temperature
	if temp == 0 {
		temp = 0.1
	}
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(temp)}
	if opts.JSONMode || looksLikeJSONRequest(systemPrompt, userPrompt) {
		cfg.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(userPrompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini backend: generate content: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("gemini backend: empty response")
	}

	text := result.Text()
	candidate := result.Candidates[0]
	if candidate.GroundingMetadata != nil && len(candidate.GroundingMetadata.GroundingChunks) > 0 {
		var sources strings.Builder
		sources.WriteString("\n\n**Sources:**\n")
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil {
				continue
			}
			sources.WriteString(fmt.Sprintf("- [%s](%s)\n", chunk.Web.Title, chunk.Web.URI))
		}
		text += sources.String()
	}
	return text, nil
}

func looksLikeJSONRequest(systemPrompt, userPrompt string) bool {
	combined := strings.ToLower(systemPrompt + " " + userPrompt)
	return strings.Contains(combined, "json")
}
