// Package extract pulls readable prose out of source pages so the
// synthesizer has more than the feed snippet to work from.
package extract

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// contentSelectors are tried in order; the first container with enough
// text wins. Tuned for Indian government portals (PIB, india.gov.in).
var contentSelectors = []string{
	"#divContent",
	".innerpagecontent",
	".article",
	".content",
	".content-area",
	"article",
}

// minContentLen filters out boilerplate snippets masquerading as content.
const minContentLen = 200

var blankLines = regexp.MustCompile(`\n{3,}`)

// ReadableText extracts cleaned prose from raw HTML. Best-effort: returns
// an empty string on malformed input, never an error.
func ReadableText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, noscript, iframe, header, footer, nav").Remove()

	for _, sel := range contentSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if len(text) > minContentLen {
			return normalize(text)
		}
	}

	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}

	return normalize(strings.TrimSpace(doc.Text()))
}

func normalize(text string) string {
	return blankLines.ReplaceAllString(text, "\n\n")
}

// Fetcher retrieves a source page and extracts its readable text.
type Fetcher struct {
	client *http.Client
}

// NewFetcher wires an HTTP client; timeout bounds the whole page fetch.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// FetchReadable downloads link and returns its readable text. Any failure
// (bad URL, timeout, non-2xx, unparseable body) yields an empty string:
// source-page text is an optional enrichment, not a requirement.
func (f *Fetcher) FetchReadable(ctx context.Context, link string) string {
	if link == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "compliwire/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return ""
	}

	return ReadableText(string(body))
}
