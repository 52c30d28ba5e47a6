package domain

import "time"

// Hit is one retrieval result: the article fields the answering layer
// needs plus the vector similarity score, highest first.
type Hit struct {
	Title       string
	Link        string
	Source      string
	Summary     string
	Content     string
	Tag         string
	PublishedAt time.Time
	Score       float64
}
