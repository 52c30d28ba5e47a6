// Package feed retrieves and parses RSS/Atom sources into flat entries.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is one item from a feed, reduced to the fields ingestion needs.
type Entry struct {
	GUID      string
	Link      string
	Title     string
	Snippet   string
	Published time.Time
}

// Fetcher retrieves one feed per call. A single attempt, no retries:
// the ingestion orchestrator isolates failures per feed.
type Fetcher struct {
	parser *gofeed.Parser
}

// NewFetcher creates a feed fetcher with a bounded HTTP client.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	p.UserAgent = "compliwire/1.0"
	return &Fetcher{parser: p}
}

// Fetch downloads and parses the feed at url, preserving source order.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Entry, error) {
	parsed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, fromItem(item))
	}
	return entries, nil
}

func fromItem(item *gofeed.Item) Entry {
	e := Entry{
		GUID:    item.GUID,
		Link:    item.Link,
		Title:   item.Title,
		Snippet: item.Description,
	}
	if e.Snippet == "" {
		e.Snippet = item.Content
	}
	if item.PublishedParsed != nil {
		e.Published = *item.PublishedParsed
	}
	return e
}
