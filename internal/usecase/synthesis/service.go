// Package synthesis turns raw feed entries into structured articles via a
// generative model under strict formatting constraints.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/compliwire/compliwire/internal/domain"
)

// Status classifies how the model output was obtained.
type Status string

const (
	// StatusOK means the model output parsed cleanly.
	StatusOK Status = "ok"
	// StatusMalformed means the output was not parseable JSON; fields
	// carry defaults (entry title, empty rest).
	StatusMalformed Status = "malformed_output"
	// StatusMissingFields means the parsed object lacked required fields.
	StatusMissingFields Status = "missing_fields"
)

// Input is one feed entry to synthesize.
type Input struct {
	Title      string
	Snippet    string
	SourceText string
}

// Result is the structured synthesis outcome. Tag is always a valid
// member of the tag set (fallback inference guarantees it), but other
// fields may be empty; callers must check Complete before persisting.
type Result struct {
	Title   string
	Summary string
	Content string
	Tag     domain.Tag
	Status  Status
}

// Complete reports whether every required field is present.
func (r *Result) Complete() bool {
	return r.Title != "" && r.Summary != "" && r.Content != "" && domain.ValidTag(string(r.Tag))
}

// Missing lists the absent required fields, for logging.
func (r *Result) Missing() []string {
	var missing []string
	if r.Title == "" {
		missing = append(missing, "title")
	}
	if r.Summary == "" {
		missing = append(missing, "summary")
	}
	if r.Content == "" {
		missing = append(missing, "content")
	}
	return missing
}

// Service drives article synthesis.
type Service struct {
	gen         domain.Generator
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// New creates a synthesis service.
func New(gen domain.Generator, maxTokens int, temperature float32, logger *zap.Logger) *Service {
	if maxTokens <= 0 {
		maxTokens = 700
	}
	return &Service{gen: gen, maxTokens: maxTokens, temperature: temperature, logger: logger}
}

// Synthesize generates a structured article for one entry. A returned
// error means the generative call itself failed; parse trouble is
// reported through Result.Status instead.
func (s *Service) Synthesize(ctx context.Context, in Input) (Result, error) {
	raw, err := s.gen.Generate(ctx, domain.GenerationRequest{
		System:      synthesisSystem,
		Prompt:      buildPrompt(in.Title, in.Snippet, in.SourceText),
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("generate article: %w", err)
	}

	res := parseOutput(raw, in.Title)
	res.Tag = validateTag(res)

	if res.Status == StatusOK && !res.Complete() {
		res.Status = StatusMissingFields
	}
	if res.Status != StatusOK {
		s.logger.Warn("synthesis output degraded",
			zap.String("status", string(res.Status)),
			zap.Strings("missing", res.Missing()),
			zap.String("entry_title", in.Title),
		)
	}

	return res, nil
}

// parseOutput extracts the JSON object between the first '{' and the last
// '}' of the raw model output. On failure it keeps defaults: the entry's
// own title and empty remaining fields.
func parseOutput(raw, entryTitle string) Result {
	res := Result{Title: entryTitle, Status: StatusMalformed}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return res
	}

	var parsed struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
		Content string `json:"content"`
		Tag     string `json:"tag"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return res
	}

	res.Status = StatusOK
	if t := strings.TrimSpace(parsed.Title); t != "" {
		res.Title = t
	}
	res.Summary = strings.TrimSpace(parsed.Summary)
	res.Content = strings.TrimSpace(parsed.Content)
	res.Tag = domain.Tag(strings.ToLower(strings.TrimSpace(parsed.Tag)))
	return res
}

// validateTag keeps a valid model-assigned tag and otherwise infers one
// from summary+content, so persisted tags are always in the closed set.
func validateTag(res Result) domain.Tag {
	if domain.ValidTag(string(res.Tag)) {
		return res.Tag
	}
	return inferTag(res.Summary + "\n" + res.Content)
}
