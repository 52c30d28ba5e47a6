package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/compliwire/compliwire/internal/domain"
)

const answerSystem = `You are a careful assistant for regulatory and compliance news.
Answer using ONLY the numbered context passages provided.
If the context does not contain the answer, say so explicitly instead of guessing.
Quote numeric facts (dates, amounts, thresholds, percentages) verbatim from the context.
Keep the answer concise and factual.`

// buildContext renders hits as numbered passages, each capped at
// snippetMax bytes of content without splitting a rune.
func buildContext(hits []domain.Hit, snippetMax int) string {
	var b strings.Builder
	for i, h := range hits {
		content := capBytes(h.Content, snippetMax)
		fmt.Fprintf(&b, "[%d] %s (%s)", i+1, h.Title, h.Source)
		if !h.PublishedAt.IsZero() {
			fmt.Fprintf(&b, " %s", h.PublishedAt.Format("2006-01-02"))
		}
		if h.Link != "" {
			fmt.Fprintf(&b, " %s", h.Link)
		}
		fmt.Fprintf(&b, "\n%s\n\n", content)
	}
	return strings.TrimSpace(b.String())
}

// capBytes truncates s to at most maxBytes without splitting a rune.
func capBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func buildPrompt(question, context string) string {
	return fmt.Sprintf("Context passages:\n%s\n\nQuestion: %s", context, question)
}
