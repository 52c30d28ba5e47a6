// Package ingest orchestrates the feed pipeline: fetch, dedup, synthesize,
// embed, persist. At most one run executes at a time per process.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/compliwire/compliwire/internal/domain"
	"github.com/compliwire/compliwire/internal/feed"
	"github.com/compliwire/compliwire/internal/metrics"
	"github.com/compliwire/compliwire/internal/usecase/synthesis"
)

// Feed is one configured source.
type Feed struct {
	URL  string
	Name string
}

// Counts summarizes one ingestion run.
type Counts struct {
	Ingested int `json:"ingested"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Service drives ingestion runs and reindexing.
type Service struct {
	feeds      []Feed
	fetcher    FeedFetcher
	pages      PageExtractor
	synth      Synthesizer
	embedder   domain.Embedder
	repo       Repository
	fetchPages bool
	logger     *zap.Logger

	running atomic.Bool
}

// New creates an ingestion service. pages may be nil when fetchPages is
// false.
func New(
	feeds []Feed,
	fetcher FeedFetcher,
	pages PageExtractor,
	synth Synthesizer,
	embedder domain.Embedder,
	repo Repository,
	fetchPages bool,
	logger *zap.Logger,
) *Service {
	return &Service{
		feeds:      feeds,
		fetcher:    fetcher,
		pages:      pages,
		synth:      synth,
		embedder:   embedder,
		repo:       repo,
		fetchPages: fetchPages,
		logger:     logger,
	}
}

// Run executes one full ingestion pass over all configured feeds. If a
// run (or reindex) is already in flight, it returns domain.ErrRunInProgress
// without touching any state. Feed failures are isolated: one broken
// feed never aborts the run.
func (s *Service) Run(ctx context.Context) (Counts, error) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.IngestRunsTotal.WithLabelValues("skipped").Inc()
		return Counts{}, domain.ErrRunInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	var counts Counts

	for _, f := range s.feeds {
		entries, err := s.fetcher.Fetch(ctx, f.URL)
		if err != nil {
			metrics.IngestFeedErrorsTotal.WithLabelValues(f.Name).Inc()
			s.logger.Warn("feed fetch failed",
				zap.String("feed", f.Name),
				zap.String("url", f.URL),
				zap.Error(err),
			)
			continue
		}

		for i := range entries {
			if err := ctx.Err(); err != nil {
				return counts, err
			}
			s.processEntry(ctx, f, &entries[i], &counts)
		}
	}

	metrics.IngestRunsTotal.WithLabelValues("completed").Inc()
	s.logger.Info("ingestion run finished",
		zap.Int("ingested", counts.Ingested),
		zap.Int("skipped", counts.Skipped),
		zap.Int("failed", counts.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	return counts, nil
}

// processEntry takes one feed entry through dedup, synthesis, embedding
// and persistence, updating counts. Entry failures are isolated.
func (s *Service) processEntry(ctx context.Context, f Feed, entry *feed.Entry, counts *Counts) {
	externalID := externalID(entry)
	if externalID == "" {
		s.skip(counts, "no usable external id", entry.Title)
		return
	}

	exists, err := s.repo.Exists(ctx, externalID)
	if err != nil {
		s.fail(counts, "existence check failed", entry.Title, err)
		return
	}
	if exists {
		counts.Skipped++
		metrics.IngestEntriesTotal.WithLabelValues("skipped").Inc()
		return
	}

	var sourceText string
	if s.fetchPages && s.pages != nil && entry.Link != "" {
		sourceText = s.pages.FetchReadable(ctx, entry.Link)
	}

	res, err := s.synth.Synthesize(ctx, synthesis.Input{
		Title:      entry.Title,
		Snippet:    entry.Snippet,
		SourceText: sourceText,
	})
	if err != nil {
		s.fail(counts, "synthesis failed", entry.Title, err)
		return
	}
	if !res.Complete() {
		s.skip(counts, "synthesis incomplete", entry.Title)
		return
	}

	slug := domain.Slugify(res.Title)
	if slug == "" {
		s.skip(counts, "empty slug", entry.Title)
		return
	}

	emb, err := s.embedder.Embed(ctx, res.Content)
	if err != nil {
		s.fail(counts, "embedding failed", entry.Title, err)
		return
	}

	now := time.Now().UTC()
	published := entry.Published
	if published.IsZero() {
		published = now
	}

	a := &domain.Article{
		ExternalID:    externalID,
		Slug:          slug,
		Title:         res.Title,
		Summary:       res.Summary,
		Content:       res.Content,
		Tag:           res.Tag,
		Link:          entry.Link,
		Source:        f.Name,
		RawSourceText: sourceText,
		PublishedAt:   published,
		GeneratedAt:   now,
		Embedding:     emb.Embedding,
	}

	if err := s.repo.Insert(ctx, a); err != nil {
		if errors.Is(err, domain.ErrAlreadyIngested) {
			// Lost an insert race after the existence check; a normal skip.
			counts.Skipped++
			metrics.IngestEntriesTotal.WithLabelValues("skipped").Inc()
			return
		}
		s.fail(counts, "insert failed", entry.Title, err)
		return
	}

	counts.Ingested++
	metrics.IngestEntriesTotal.WithLabelValues("ingested").Inc()
	s.logger.Info("article ingested",
		zap.String("slug", slug),
		zap.String("source", f.Name),
		zap.String("tag", string(a.Tag)),
	)
}

// Reindex re-embeds every stored article and overwrites its vector,
// for embedding model or dimensionality changes. Shares the run guard
// with ingestion so the two never write concurrently.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		return 0, domain.ErrRunInProgress
	}
	defer s.running.Store(false)

	articles, err := s.repo.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load articles: %w", err)
	}

	var updated int
	for i := range articles {
		a := &articles[i]
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		emb, err := s.embedder.Embed(ctx, a.Title+"\n\n"+a.Content)
		if err != nil {
			s.logger.Warn("reindex embedding failed",
				zap.String("external_id", a.ExternalID), zap.Error(err))
			continue
		}
		if err := s.repo.UpdateEmbedding(ctx, a.ExternalID, emb.Embedding); err != nil {
			s.logger.Warn("reindex update failed",
				zap.String("external_id", a.ExternalID), zap.Error(err))
			continue
		}
		updated++
	}

	s.logger.Info("reindex finished",
		zap.Int("updated", updated), zap.Int("total", len(articles)))
	return updated, nil
}

// Running reports whether an ingestion run or reindex is in flight.
func (s *Service) Running() bool {
	return s.running.Load()
}

// externalID picks the stable identity of an entry: guid, then link,
// then a slug derived from the title.
func externalID(e *feed.Entry) string {
	if e.GUID != "" {
		return e.GUID
	}
	if e.Link != "" {
		return e.Link
	}
	return domain.Slugify(e.Title)
}

func (s *Service) skip(counts *Counts, reason, title string) {
	counts.Skipped++
	metrics.IngestEntriesTotal.WithLabelValues("skipped").Inc()
	s.logger.Debug("entry skipped", zap.String("reason", reason), zap.String("entry_title", title))
}

func (s *Service) fail(counts *Counts, reason, title string, err error) {
	counts.Failed++
	metrics.IngestEntriesTotal.WithLabelValues("failed").Inc()
	s.logger.Warn("entry failed",
		zap.String("reason", reason), zap.String("entry_title", title), zap.Error(err))
}
