package domain

import "context"

// EmbeddingResult holds the vector and provider token usage for one call.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text into a fixed-dimensionality embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// GenerationRequest is one call to the generative text service.
type GenerationRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Generator produces unstructured text from a prompt. All structure is
// extracted by the caller.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
