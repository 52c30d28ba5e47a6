package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// ArticleCounter reports how many articles are indexed.
type ArticleCounter interface {
	Count(ctx context.Context) (int, error)
}

// RunReporter reports whether an ingestion run is in flight.
type RunReporter interface {
	Running() bool
}
