package article

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/compliwire/compliwire/internal/db"
	"github.com/compliwire/compliwire/internal/domain"
)

// Hash field names; the lexical and vector fields also appear in the FT
// index schema.
const (
	fieldExternalID    = "external_id"
	fieldSlug          = "slug"
	fieldTitle         = "title"
	fieldSummary       = "summary"
	fieldContent       = "content"
	fieldTag           = "tag"
	fieldLink          = "link"
	fieldSource        = "source"
	fieldRawSourceText = "raw_source_text"
	fieldPublishedAt   = "published_at"
	fieldGeneratedAt   = "generated_at"
	fieldEmbedding     = "embedding"
)

func fieldsFromArticle(a *domain.Article) map[string]string {
	fields := map[string]string{
		fieldExternalID:  a.ExternalID,
		fieldSlug:        a.Slug,
		fieldTitle:       a.Title,
		fieldSummary:     a.Summary,
		fieldContent:     a.Content,
		fieldTag:         string(a.Tag),
		fieldLink:        a.Link,
		fieldSource:      a.Source,
		fieldPublishedAt: strconv.FormatInt(a.PublishedAt.UnixMilli(), 10),
		fieldGeneratedAt: strconv.FormatInt(a.GeneratedAt.UnixMilli(), 10),
		fieldEmbedding:   vectorToBytes(a.Embedding),
	}
	if a.RawSourceText != "" {
		fields[fieldRawSourceText] = a.RawSourceText
	}
	return fields
}

func articleFromFields(fields map[string]string) domain.Article {
	return domain.Article{
		ExternalID:    fields[fieldExternalID],
		Slug:          fields[fieldSlug],
		Title:         fields[fieldTitle],
		Summary:       fields[fieldSummary],
		Content:       fields[fieldContent],
		Tag:           domain.Tag(fields[fieldTag]),
		Link:          fields[fieldLink],
		Source:        fields[fieldSource],
		RawSourceText: fields[fieldRawSourceText],
		PublishedAt:   parseUnixMilli(fields[fieldPublishedAt]),
		GeneratedAt:   parseUnixMilli(fields[fieldGeneratedAt]),
		Embedding:     bytesToVector(fields[fieldEmbedding]),
	}
}

func hitFromEntry(entry db.SearchEntry) domain.Hit {
	return domain.Hit{
		Title:       entry.Fields[fieldTitle],
		Link:        entry.Fields[fieldLink],
		Source:      entry.Fields[fieldSource],
		Summary:     entry.Fields[fieldSummary],
		Content:     entry.Fields[fieldContent],
		Tag:         entry.Fields[fieldTag],
		PublishedAt: parseUnixMilli(entry.Fields[fieldPublishedAt]),
		Score:       entry.Score,
	}
}

func parseUnixMilli(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// vectorToBytes serializes a float32 vector into the little-endian binary
// form the VECTOR field expects.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
