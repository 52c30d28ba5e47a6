package domain

import (
	"strings"
	"time"
)

// Tag is the closed set of regulatory domains an article is filed under.
type Tag string

const (
	TagTax        Tag = "tax"
	TagLabor      Tag = "labor"
	TagFinance    Tag = "finance"
	TagCompliance Tag = "compliance"
	TagSchemes    Tag = "schemes"
)

// Tags lists every valid tag.
var Tags = []Tag{TagTax, TagLabor, TagFinance, TagCompliance, TagSchemes}

// ValidTag reports whether s is a member of the closed tag set.
func ValidTag(s string) bool {
	for _, t := range Tags {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Article is the unit of persistence and retrieval: one synthesized
// piece derived from a single feed entry.
type Article struct {
	ExternalID    string
	Slug          string
	Title         string
	Summary       string
	Content       string
	Tag           Tag
	Link          string
	Source        string
	RawSourceText string
	PublishedAt   time.Time
	GeneratedAt   time.Time
	Embedding     []float32
}

// Complete reports whether the article satisfies the persistence
// invariant: title, summary, content and a valid tag are all present.
func (a *Article) Complete() bool {
	return a.Title != "" &&
		a.Summary != "" &&
		a.Content != "" &&
		ValidTag(string(a.Tag))
}

// Slugify derives a URL-safe slug from a title: lowercase, alphanumerics
// kept, everything else collapsed into single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	prevHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
