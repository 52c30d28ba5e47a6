package domain

import "errors"

var (
	// ErrNotFound signals a missing article.
	ErrNotFound = errors.New("article not found")
	// ErrAlreadyIngested signals that an external id is already stored.
	// During ingestion this is a normal outcome, not a failure.
	ErrAlreadyIngested = errors.New("article already ingested")
	// ErrRunInProgress signals that an ingestion run is already executing.
	ErrRunInProgress = errors.New("ingestion run already in progress")
	// ErrSynthesisIncomplete signals a synthesis result missing required fields.
	ErrSynthesisIncomplete = errors.New("synthesis result incomplete")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrGenerationProvider signals a generative model failure.
	ErrGenerationProvider = errors.New("generation provider error")
)
