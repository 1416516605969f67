package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"marketintel/internal/config"
)

type stubBackend struct {
	name     string
	response string
	err      error
	calls    int
}

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	b.calls++
	if b.err != nil {
		return "", b.err
	}
	return b.response, nil
}

func TestClientGenerateReturnsBackendResponse(t *testing.T) {
	backend := &stubBackend{name: "stub", response: "hello"}
	client := NewClient(backend, &config.Settings{OllamaMaxConcurrent: 2, LLMCacheTTLSeconds: 900}, nil, zerolog.Nop())

	out, err := client.Generate(context.Background(), "sys", "user", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Fatalf("expected hello, got %q", out)
	}
	if backend.calls != 1 {
		t.Fatalf("expected 1 call, got %d", backend.calls)
	}
}

func TestClientGenerateRetriesOnError(t *testing.T) {
	backend := &stubBackend{name: "stub", err: errors.New("transient")}
	client := NewClient(backend, &config.Settings{OllamaMaxConcurrent: 1, LLMCacheTTLSeconds: 900}, nil, zerolog.Nop())

	_, err := client.Generate(context.Background(), "sys", "user", Options{})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if backend.calls != maxRetries {
		t.Fatalf("expected %d attempts, got %d", maxRetries, backend.calls)
	}
}

func TestClientGenerateStreamFallsBackToWordSplit(t *testing.T) {
	backend := &stubBackend{name: "stub", response: "one two three"}
	client := NewClient(backend, &config.Settings{OllamaMaxConcurrent: 2, LLMCacheTTLSeconds: 900}, nil, zerolog.Nop())

	var tokens []string
	err := client.GenerateStream(context.Background(), "sys", "user", Options{}, func(tok string) {
		tokens = append(tokens, tok)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d (%v)", len(tokens), tokens)
	}
}

func TestSplitWordsPreservesSpacing(t *testing.T) {
	words := splitWords("alpha beta\ngamma")
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(words))
	}
}
