package retrieval

import (
	"reflect"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{
			"lowercases and strips punctuation",
			"What are the new GST rates?",
			[]string{"new", "gst", "rates"},
		},
		{
			"drops stop words and short tokens",
			"what is the TDS on a loan",
			[]string{"tds", "loan"},
		},
		{
			"dedupes preserving first appearance",
			"wage wage minimum wage",
			[]string{"wage", "minimum"},
		},
		{
			"only stop words yields empty",
			"what is the",
			[]string{},
		},
		{
			"empty query",
			"",
			[]string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractKeywords(tc.query)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractKeywords(%q) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestMatchesAny(t *testing.T) {
	if !matchesAny("GST Council Meets Today", []string{"council"}) {
		t.Error("expected case-insensitive match")
	}
	if matchesAny("unrelated text", []string{"wage", "gst"}) {
		t.Error("expected no match")
	}
}
