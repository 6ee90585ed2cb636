// Package keyword provides a Retriever that ranks segments by query term
// overlap. It needs no external service and is the fallback when no
// embedding provider is configured.
package keyword

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driven"
)

// Ensure Builder and Retriever implement the interfaces.
var (
	_ driven.RetrieverBuilder = (*Builder)(nil)
	_ driven.Retriever        = (*Retriever)(nil)
)

// minTermLength drops one-letter tokens such as "a" or list markers.
const minTermLength = 2

// Builder indexes segments into term frequency tables.
type Builder struct{}

// NewBuilder creates a keyword retriever builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Name identifies the backend.
func (b *Builder) Name() string {
	return string(domain.RetrievalModeKeyword)
}

// Build tokenises every segment.
func (b *Builder) Build(ctx context.Context, segments []domain.Chunk) (driven.Retriever, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments to index", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &Retriever{
		texts: make([]string, len(segments)),
		terms: make([]map[string]int, len(segments)),
		df:    make(map[string]int),
	}
	for i, s := range segments {
		r.texts[i] = s.Text
		tf := make(map[string]int)
		for _, term := range Tokenize(s.Text) {
			tf[term]++
		}
		for term := range tf {
			r.df[term]++
		}
		r.terms[i] = tf
	}
	return r, nil
}

// Retriever scores segments with a TF-IDF sum over the query terms.
type Retriever struct {
	texts []string
	terms []map[string]int
	df    map[string]int
}

type scored struct {
	index int
	score float64
}

// Retrieve returns up to k segments, best first. Ties keep document order.
// When no segment shares a term with the query the leading segments are
// returned so the answer still has context.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTerms := unique(Tokenize(query))
	n := float64(len(r.texts))

	var hits []scored
	for i, tf := range r.terms {
		var score float64
		for _, term := range queryTerms {
			if c := tf[term]; c > 0 {
				idf := math.Log(1 + n/float64(r.df[term]))
				score += (1 + math.Log(float64(c))) * idf
			}
		}
		if score > 0 {
			hits = append(hits, scored{index: i, score: score})
		}
	}

	if len(hits) == 0 {
		return r.head(k), nil
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = r.texts[h.index]
	}
	return out, nil
}

func (r *Retriever) head(k int) []string {
	k = min(k, len(r.texts))
	out := make([]string, k)
	copy(out, r.texts[:k])
	return out
}

// Tokenize lower-cases text and splits it on anything that is not a
// letter or digit.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minTermLength {
			out = append(out, f)
		}
	}
	return out
}

func unique(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
