package db

import (
	"context"
	"time"
)

// Store is the database facade for the article pipeline. Consumers
// depend on the narrow sub-interfaces, not on Store itself.
type Store interface {
	Pinger
	HashStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	// HSetNX sets a single hash field only if it does not exist yet.
	// Returns false when the field was already present.
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// KNNQuery describes a vector similarity search. Prefilter, when set, is
// an FT.SEARCH query clause applied before the KNN stage; engines that do
// not accept the prefiltered shape reject it with ErrUnsupportedQuery.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	Prefilter    string
	ReturnFields []string
}

// SearchEntry is one hit: the hash key, similarity score and returned fields.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult is an ordered FT.SEARCH result set.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}
