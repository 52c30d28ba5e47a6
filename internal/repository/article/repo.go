// Package article persists synthesized articles as Redis hashes under a
// single FT index with an HNSW vector field.
package article

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/compliwire/compliwire/internal/db"
	"github.com/compliwire/compliwire/internal/domain"
)

// store is the consumer interface for article persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config holds index parameters for the article store.
type Config struct {
	KeyPrefix       string
	IndexName       string
	Dimensions      int
	DistanceMetric  string // cosine, l2, ip
	HNSWM           int
	HNSWEFConstruct int
}

// Repo implements article persistence and vector search.
type Repo struct {
	store store
	cfg   Config
}

// New creates an article repository.
func New(s store, cfg Config) *Repo {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "compliwire:"
	}
	if cfg.IndexName == "" {
		cfg.IndexName = "articles"
	}
	return &Repo{store: s, cfg: cfg}
}

// EnsureIndex creates the article FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("probe index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     r.indexName(),
		Prefixes: []string{r.keyPrefix()},
		Fields: []db.IndexField{
			{Name: fieldTitle, Type: db.IndexFieldText},
			{Name: fieldSummary, Type: db.IndexFieldText},
			{Name: fieldContent, Type: db.IndexFieldText},
			{Name: fieldTag, Type: db.IndexFieldTag},
			{Name: fieldSource, Type: db.IndexFieldTag},
			{Name: fieldPublishedAt, Type: db.IndexFieldNumeric},
			{
				Name:              fieldEmbedding,
				Type:              db.IndexFieldVector,
				VectorDim:         r.cfg.Dimensions,
				VectorDistance:    distanceMetric(r.cfg.DistanceMetric),
				VectorM:           r.cfg.HNSWM,
				VectorEFConstruct: r.cfg.HNSWEFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Exists reports whether an article with the given external id is stored.
func (r *Repo) Exists(ctx context.Context, externalID string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.key(externalID))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", externalID, err)
	}
	return ok, nil
}

// Insert stores a new article. The external_id field is claimed with
// HSETNX first: losing that race (or re-inserting a known id) returns
// domain.ErrAlreadyIngested, which ingestion treats as a normal skip.
func (r *Repo) Insert(ctx context.Context, a *domain.Article) error {
	key := r.key(a.ExternalID)

	created, err := r.store.HSetNX(ctx, key, fieldExternalID, a.ExternalID)
	if err != nil {
		return fmt.Errorf("claim %s: %w", a.ExternalID, err)
	}
	if !created {
		return domain.ErrAlreadyIngested
	}

	if err := r.store.HSet(ctx, key, fieldsFromArticle(a)); err != nil {
		// Roll back the claim so a failed write never leaves a partial
		// record blocking future ingestion of the same entry.
		_ = r.store.Del(ctx, key)
		return fmt.Errorf("store %s: %w", a.ExternalID, err)
	}
	return nil
}

// Get returns a stored article by external id.
func (r *Repo) Get(ctx context.Context, externalID string) (domain.Article, error) {
	fields, err := r.store.HGetAll(ctx, r.key(externalID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Article{}, domain.ErrNotFound
		}
		return domain.Article{}, fmt.Errorf("get %s: %w", externalID, err)
	}
	return articleFromFields(fields), nil
}

// UpdateEmbedding overwrites the stored vector for an article.
func (r *Repo) UpdateEmbedding(ctx context.Context, externalID string, embedding []float32) error {
	key := r.key(externalID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("exists %s: %w", externalID, err)
	}
	if !exists {
		return domain.ErrNotFound
	}

	fields := map[string]string{fieldEmbedding: vectorToBytes(embedding)}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("update embedding %s: %w", externalID, err)
	}
	return nil
}

// All returns every stored article, for reindexing. Order is unspecified.
func (r *Repo) All(ctx context.Context) ([]domain.Article, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan articles: %w", err)
	}

	articles := make([]domain.Article, 0, len(keys))
	for _, key := range keys {
		fields, err := r.store.HGetAll(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue // deleted between SCAN and HGETALL
			}
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		articles = append(articles, articleFromFields(fields))
	}
	return articles, nil
}

// Count returns the number of indexed articles.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// SearchKNN runs a vector similarity search. A non-empty keywords slice
// adds a lexical OR pre-filter over title/summary/content; engines that
// reject that query shape surface db.ErrUnsupportedQuery for the caller's
// fallback path.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int, keywords []string) ([]domain.Hit, error) {
	q := &db.KNNQuery{
		IndexName: r.indexName(),
		Vector:    vector,
		K:         k,
		Prefilter: buildKeywordPrefilter(keywords),
		ReturnFields: []string{
			fieldTitle, fieldLink, fieldSource, fieldSummary,
			fieldContent, fieldTag, fieldPublishedAt, "__embedding_score",
		},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	hits := make([]domain.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hits = append(hits, hitFromEntry(entry))
	}
	return hits, nil
}

func (r *Repo) keyPrefix() string {
	return r.cfg.KeyPrefix + "articles:"
}

func (r *Repo) indexName() string {
	return r.cfg.KeyPrefix + r.cfg.IndexName + ":idx"
}

// key derives the hash key from the external id. External ids are guids
// or URLs, so they are hashed rather than embedded in the key verbatim.
func (r *Repo) key(externalID string) string {
	sum := sha1.Sum([]byte(externalID))
	return r.keyPrefix() + hex.EncodeToString(sum[:8])
}

func distanceMetric(s string) db.VectorDistance {
	switch s {
	case "l2":
		return db.DistanceL2
	case "ip":
		return db.DistanceIP
	default:
		return db.DistanceCosine
	}
}

// buildKeywordPrefilter renders keywords as an FT.SEARCH OR clause over
// the lexical fields.
func buildKeywordPrefilter(keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	escaped := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		escaped = append(escaped, escapeTerm(kw))
	}
	if len(escaped) == 0 {
		return ""
	}
	return fmt.Sprintf("@%s|%s|%s:(%s)",
		fieldTitle, fieldSummary, fieldContent, strings.Join(escaped, "|"))
}

func escapeTerm(s string) string {
	return termEscaper.Replace(s)
}

var termEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`,`, `\,`,
)
