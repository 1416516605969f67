package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// OllamaBackend generates text against a local Ollama server over its raw
// HTTP API, following the same resty request-builder pattern used by the
// structured data providers. Grounded on pkg/core/llm/qwen.go's
// no-SDK-available HTTP pattern, pointed at a local host instead of a
// vendor API.
type OllamaBackend struct {
	http         *resty.Client
	baseURL      string
	defaultModel string
}

func NewOllamaBackend(http *resty.Client, host, defaultModel string) *OllamaBackend {
	return &OllamaBackend{
		http:         http,
		baseURL:      strings.TrimSuffix(host, "/"),
		defaultModel: defaultModel,
	}
}

func (b *OllamaBackend) Name() string { return "ollama" }

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (b *OllamaBackend) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = b.defaultModel
	}

	req := ollamaGenerateRequest{
		Model:  model,
		System: systemPrompt,
		Prompt: userPrompt,
		Stream: false,
	}
	if opts.JSONMode {
		req.Format = "json"
	}
	if opts.Temperature != 0 {
		req.Options = map[string]any{"temperature": opts.Temperature}
	}

	var out ollamaGenerateResponse
	resp, err := b.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(b.baseURL + "/api/generate")
	if err != nil {
		return "", fmt.Errorf("ollama backend: request: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("ollama backend: status %d", resp.StatusCode())
	}
	if out.Response == "" {
		return "", fmt.Errorf("ollama backend: empty response")
	}
	return out.Response, nil
}

// GenerateStream replays the generated text word-by-word. Ollama supports
// native newline-delimited streaming, but report narration only needs an
// incremental UI feel, not token-exact timing, so a single blocking call
// followed by a synthetic split keeps the client code in one place.
func (b *OllamaBackend) GenerateStream(ctx context.Context, systemPrompt, userPrompt string, opts Options, onToken func(string)) error {
	text, err := b.Generate(ctx, systemPrompt, userPrompt, opts)
	if err != nil {
		return err
	}
	for _, word := range strings.Fields(text) {
		onToken(word + " ")
	}
	return nil
}
