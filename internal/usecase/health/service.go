// Package health aggregates component availability for the health
// endpoint.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results. Articles is -1 when the count
// itself failed.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Articles  int
	Ingesting bool
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	articles  ArticleCounter
	ingest    RunReporter
}

// New creates a Service. embedding, articles and ingest can be nil.
func New(db DBPinger, embedding EmbeddingChecker, articles ArticleCounter, ingest RunReporter) *Service {
	return &Service{db: db, embedding: embedding, articles: articles, ingest: ingest}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	articles := -1
	if s.articles != nil {
		if n, err := s.articles.Count(ctx); err == nil {
			articles = n
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	report := Report{Status: status, Checks: checks, Articles: articles}
	if s.ingest != nil {
		report.Ingesting = s.ingest.Running()
	}
	return report
}
