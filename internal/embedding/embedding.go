// Package embedding produces fixed-dimensional vectors for text,
// preferring an Ollama embedding endpoint and falling back to a
// deterministic hash-derived vector when that endpoint is unreachable.
// Grounded on original_source/core/memory.py's _embed_with_ollama /
// _fallback_vector.
package embedding

import (
	"context"
	"crypto/sha256"

	"github.com/go-resty/resty/v2"
)

// Client embeds text via Ollama, sized to a fixed target dimension.
type Client struct {
	http       *resty.Client
	host       string
	model      string
	targetSize int
}

// New builds a Client against host/model, sizing every vector to size.
func New(http *resty.Client, host, model string, size int) *Client {
	return &Client{http: http, host: host, model: model, targetSize: size}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

type batchEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type batchEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed returns a vector for text, sized to Client.targetSize: the
// Ollama embedding truncated/zero-padded, or a deterministic
// SHA-256-derived fallback vector if Ollama is unreachable.
func (c *Client) Embed(ctx context.Context, text string) []float32 {
	raw := c.embedWithOllama(ctx, text)
	if raw != nil {
		return resize(raw, c.targetSize)
	}
	return fallbackVector(text, c.targetSize)
}

// EmbedBatch embeds many texts in one round trip via Ollama's /api/embed
// batch endpoint, falling back to one-by-one Embed calls if that
// endpoint doesn't respond with a matching number of vectors.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	if len(texts) == 0 {
		return nil
	}
	var resp batchEmbedResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBody(batchEmbedRequest{Model: c.model, Input: texts}).
		SetResult(&resp).
		Post(c.host + "/api/embed")
	if err == nil && httpResp.IsSuccess() && len(resp.Embeddings) == len(texts) {
		out := make([][]float32, len(texts))
		for i, emb := range resp.Embeddings {
			if len(emb) > 0 {
				out[i] = resize(emb, c.targetSize)
			} else {
				out[i] = fallbackVector(texts[i], c.targetSize)
			}
		}
		return out
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = c.Embed(ctx, t)
	}
	return out
}

func (c *Client) embedWithOllama(ctx context.Context, text string) []float64 {
	var resp embedResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBody(embedRequest{Model: c.model, Prompt: text}).
		SetResult(&resp).
		Post(c.host + "/api/embeddings")
	if err != nil || !httpResp.IsSuccess() || len(resp.Embedding) == 0 {
		return nil
	}
	return resp.Embedding
}

func resize(vec []float64, size int) []float32 {
	out := make([]float32, size)
	for i := 0; i < size; i++ {
		if i < len(vec) {
			out[i] = float32(vec[i])
		}
	}
	return out
}

// fallbackVector derives a deterministic pseudo-embedding from the
// SHA-256 digest of text, so identical inputs always produce the same
// vector even when no embedding service is reachable.
func fallbackVector(text string, size int) []float32 {
	digest := sha256.Sum256([]byte(text))
	out := make([]float32, size)
	for i := 0; i < size; i++ {
		b := digest[i%len(digest)]
		out[i] = (float32(b)/255.0)*2 - 1
	}
	return out
}
