package synthesis

import (
	"regexp"
	"strings"

	"github.com/compliwire/compliwire/internal/domain"
)

// tagRules are evaluated in order; the first match wins. Reordering
// changes which tag ambiguous text gets.
var tagRules = []struct {
	tag  domain.Tag
	expr *regexp.Regexp
}{
	{domain.TagTax, regexp.MustCompile(`\b(gst|tax|tds|income tax|taxation)\b`)},
	{domain.TagLabor, regexp.MustCompile(`\b(labou?r|wage|employee|employment|industrial relations)\b`)},
	{domain.TagFinance, regexp.MustCompile(`\b(loan|credit|interest|finance|bank|fund|investment)\b`)},
	{domain.TagSchemes, regexp.MustCompile(`\b(scheme|grant|subsidy|benefit|programme|program)\b`)},
	{domain.TagCompliance, regexp.MustCompile(`\b(license|licence|registration|regulation|compliance|act|rule|law)\b`)},
}

// inferTag deterministically assigns a tag from article text when the
// model returned an invalid or missing one. Defaults to compliance.
func inferTag(text string) domain.Tag {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return domain.TagCompliance
	}
	for _, rule := range tagRules {
		if rule.expr.MatchString(s) {
			return rule.tag
		}
	}
	return domain.TagCompliance
}
