// Package retrieval serves top-K article search: vector similarity with
// an optional lexical keyword filter, and a degraded-mode fallback when
// the engine rejects the hybrid query shape.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/compliwire/compliwire/internal/db"
	"github.com/compliwire/compliwire/internal/domain"
	"github.com/compliwire/compliwire/internal/metrics"
)

// Mode selects the retrieval strategy.
type Mode string

const (
	// ModeHybrid combines vector search with keyword post-filtering.
	ModeHybrid Mode = "hybrid"
	// ModeVector ranks by vector similarity alone.
	ModeVector Mode = "vector"
)

// ParseMode maps a request string onto a Mode, defaulting to hybrid.
func ParseMode(s string) Mode {
	if Mode(s) == ModeVector {
		return ModeVector
	}
	return ModeHybrid
}

// Repository is the storage contract for retrieval.
type Repository interface {
	SearchKNN(ctx context.Context, vector []float32, k int, keywords []string) ([]domain.Hit, error)
}

// Service ranks stored articles against a query embedding.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a retrieval service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Search returns at most k hits ordered by descending vector score. In
// hybrid mode, keywords extracted from queryText must appear in a hit's
// title, summary or content; the candidate pool is widened to absorb the
// filter. An empty keyword set degenerates to plain vector ranking.
func (s *Service) Search(
	ctx context.Context, vector []float32, k int, queryText string, mode Mode,
) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	var keywords []string
	if mode == ModeHybrid {
		keywords = ExtractKeywords(queryText)
	}

	if len(keywords) == 0 {
		hits, err := s.repo.SearchKNN(ctx, vector, k, nil)
		if err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}
		return hits, nil
	}

	hits, err := s.repo.SearchKNN(ctx, vector, max(20, k), keywords)
	if err != nil {
		if !errors.Is(err, db.ErrUnsupportedQuery) {
			return nil, fmt.Errorf("hybrid search: %w", err)
		}
		// Engine rejected the hybrid shape: degrade to a wider plain
		// vector query and filter in-process instead.
		metrics.RetrievalFallbacksTotal.Inc()
		s.logger.Warn("hybrid query unsupported, using vector-only fallback", zap.Error(err))

		hits, err = s.repo.SearchKNN(ctx, vector, max(50, k), nil)
		if err != nil {
			return nil, fmt.Errorf("fallback vector search: %w", err)
		}
	}

	return rank(filterByKeywords(hits, keywords), k), nil
}

// filterByKeywords keeps hits whose title, summary or content contains at
// least one keyword.
func filterByKeywords(hits []domain.Hit, keywords []string) []domain.Hit {
	filtered := make([]domain.Hit, 0, len(hits))
	for _, h := range hits {
		if matchesAny(h.Title+"\n"+h.Summary+"\n"+h.Content, keywords) {
			filtered = append(filtered, h)
		}
	}
	return filtered
}

// rank re-sorts by vector score (the lexical filter may have disturbed
// engine order) and truncates to k.
func rank(hits []domain.Hit, k int) []domain.Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
