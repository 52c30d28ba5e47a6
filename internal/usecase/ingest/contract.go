package ingest

import (
	"context"

	"github.com/compliwire/compliwire/internal/domain"
	"github.com/compliwire/compliwire/internal/feed"
	"github.com/compliwire/compliwire/internal/usecase/synthesis"
)

// FeedFetcher retrieves and parses one feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]feed.Entry, error)
}

// PageExtractor pulls readable text from an article's source page.
// Extraction is best-effort; an empty string means nothing usable.
type PageExtractor interface {
	FetchReadable(ctx context.Context, url string) string
}

// Synthesizer turns one feed entry into a structured article draft.
type Synthesizer interface {
	Synthesize(ctx context.Context, in synthesis.Input) (synthesis.Result, error)
}

// Repository is the storage contract for ingestion and reindexing.
type Repository interface {
	Exists(ctx context.Context, externalID string) (bool, error)
	Insert(ctx context.Context, a *domain.Article) error
	All(ctx context.Context) ([]domain.Article, error)
	UpdateEmbedding(ctx context.Context, externalID string, embedding []float32) error
}
