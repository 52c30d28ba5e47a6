package synthesis

import (
	"fmt"
	"strings"
)

const synthesisSystem = "You format and serialize content into strict JSON as requested."

const promptTemplate = `Write a clear, publication-ready article based on this update using only paragraphs (no lists or bullet points).
Title: %s
Content: %s

Constraints:
- Length: between 300 and 400 words in the "content" field (not fewer than 300, not more than 400).
- Summary: provide a short summary of the article of about 25-50 words (1-3 short sentences). Place it in the "summary" field.
- Tagging: assign this article to exactly one domain tag from the following list (return the tag exactly as one lowercase word): tax, labor, finance, compliance, schemes.
- Style: paragraphs only; no bullet points, no numbered lists, no headings, no markdown.
- Be factual, concise, and neutral. Do not invent details.
Return strictly valid JSON with keys: "title", "summary", "content", "tag". No surrounding text, no code fences.`

// sourceTextCap bounds how much extracted page text is appended to the
// prompt.
const sourceTextCap = 4000

func buildPrompt(title, snippet, sourceText string) string {
	body := snippet
	if sourceText != "" {
		if len(sourceText) > sourceTextCap {
			sourceText = sourceText[:sourceTextCap]
		}
		body = strings.TrimSpace(body + "\n\n" + sourceText)
	}
	return fmt.Sprintf(promptTemplate, title, body)
}
