// Package answer serves grounded question answering over stored articles:
// embed the question, retrieve context, generate an answer constrained to
// that context.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/compliwire/compliwire/internal/domain"
	"github.com/compliwire/compliwire/internal/usecase/retrieval"
)

// Retriever ranks stored articles against a query embedding.
type Retriever interface {
	Search(ctx context.Context, vector []float32, k int, queryText string, mode retrieval.Mode) ([]domain.Hit, error)
}

// Reference points back at a retrieved article, in retrieval order.
type Reference struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Source      string     `json:"source"`
	Tag         string     `json:"tag"`
	Score       float64    `json:"score"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Response is one answered question.
type Response struct {
	Answer     string      `json:"answer"`
	References []Reference `json:"references"`
}

// Config bounds answer generation.
type Config struct {
	DefaultTopK     int
	SnippetMaxChars int
	MaxTokens       int
}

// Service answers questions grounded in retrieved articles.
type Service struct {
	embedder  domain.Embedder
	retriever Retriever
	gen       domain.Generator
	cfg       Config
	logger    *zap.Logger
}

// New creates an answer service.
func New(embedder domain.Embedder, retriever Retriever, gen domain.Generator, cfg Config, logger *zap.Logger) *Service {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 12
	}
	if cfg.SnippetMaxChars <= 0 {
		cfg.SnippetMaxChars = 1800
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	return &Service{embedder: embedder, retriever: retriever, gen: gen, cfg: cfg, logger: logger}
}

// Answer responds to one question. k <= 0 uses the configured default.
// When nothing relevant is stored, the answer states that directly and
// references are empty; the model is never asked to answer without
// context.
func (s *Service) Answer(ctx context.Context, question string, k int, mode retrieval.Mode) (Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, fmt.Errorf("question must not be empty")
	}
	if k <= 0 {
		k = s.cfg.DefaultTopK
	}

	emb, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return Response{}, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.retriever.Search(ctx, emb.Embedding, k, question, mode)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve context: %w", err)
	}
	if len(hits) == 0 {
		return Response{
			Answer:     "I don't have any stored articles relevant to that question yet.",
			References: []Reference{},
		}, nil
	}

	// Temperature 0 keeps answers deterministic and tightly grounded.
	text, err := s.gen.Generate(ctx, domain.GenerationRequest{
		System:      answerSystem,
		Prompt:      buildPrompt(question, buildContext(hits, s.cfg.SnippetMaxChars)),
		Temperature: 0,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return Response{}, fmt.Errorf("generate answer: %w", err)
	}

	refs := make([]Reference, 0, len(hits))
	for _, h := range hits {
		ref := Reference{
			Title:  h.Title,
			Link:   h.Link,
			Source: h.Source,
			Tag:    h.Tag,
			Score:  h.Score,
		}
		if !h.PublishedAt.IsZero() {
			t := h.PublishedAt
			ref.PublishedAt = &t
		}
		refs = append(refs, ref)
	}

	return Response{Answer: strings.TrimSpace(text), References: refs}, nil
}
