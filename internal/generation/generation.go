// Package generation provides the text-generation backend used to narrate
// reports and synthesize forward-looking scenarios from ranked evidence.
// It fans out across cloud providers (Gemini, Anthropic) and a local Ollama
// fallback, bounded by a concurrency semaphore and backed by an optional
// Redis response cache. Grounded on
// original_source/core/llm/providers.py.
package generation

import "context"

// Options configures a single generation call. Temperature and JSONMode let
// callers request deterministic, structured output for scenario synthesis
// without needing a provider-specific knob.
type Options struct {
	Model       string
	Temperature float32
	JSONMode    bool
	MaxTokens   int
}

// Backend is satisfied by each concrete LLM vendor integration. It mirrors
// the narrower, extraction-oriented interface the teacher uses for
// structured JSON calls rather than its richer multi-turn chat interface,
// since report narration and scenario synthesis are single-shot calls with
// no tool use or conversation state.
type Backend interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

// StreamBackend is implemented by backends that can emit partial output as
// it is produced. Not every backend needs to support this; the client falls
// back to a single Generate call followed by a synthetic word-by-word replay
// when a backend doesn't.
type StreamBackend interface {
	GenerateStream(ctx context.Context, systemPrompt, userPrompt string, opts Options, onToken func(string)) error
}
