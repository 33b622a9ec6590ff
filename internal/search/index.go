// Package search provides a deterministic, concurrency-safe in-memory index
// over catalog items, so callers can find item ids by title or author.
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options for stop words and result caps
//   - Immutable after construction (safe for concurrent use)
//   - Deterministic scoring and ordering (ties break on item id)
//
// Scoring uses Jaccard similarity between the query token set and each
// item's token set: score = |Q ∩ D| / |Q ∪ D|. Han text has no word
// boundaries, so a run of Han characters is indexed as overlapping bigrams.
package search

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/daily-tiers/internal/domain"
)

// Hit is a matched item with its similarity score.
type Hit struct {
	Item  domain.Item `json:"item"`
	Score float64     `json:"score"`
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxHits   int
}

func defaultConfig() config {
	return config{maxHits: 50}
}

// WithStopwords drops the given words (case-insensitive) from documents and
// queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxHits caps how many hits a single Search may return.
func WithMaxHits(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxHits = n
		}
	}
}

// ----------------------------------------------------------------------------
// Index

type doc struct {
	item   domain.Item
	tokens map[string]struct{}
}

// Index is a read-only search index over catalog items.
type Index struct {
	cfg  config
	docs []doc
}

// New indexes the titles and author of every item.
func New(items []domain.Item, opts ...Option) *Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(items))
	for _, it := range items {
		toks := tokenize(it.PrimaryTitle+" "+it.SecondaryTitle+" "+it.Author, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{item: it, tokens: toks})
	}
	return &Index{cfg: cfg, docs: docs}
}

// Len returns the number of indexed items.
func (i *Index) Len() int { return len(i.docs) }

// Search returns up to k best-matching items. k <= 0 means 10; k is capped
// by WithMaxHits.
func (i *Index) Search(q string, k int) []Hit {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 10
	}
	k = min(k, i.cfg.maxHits)

	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	var hits []Hit
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := len(qTokens) + len(d.tokens) - over
		hits = append(hits, Hit{Item: d.item, Score: float64(over) / float64(union)})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Item.ID < hits[b].Item.ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// ----------------------------------------------------------------------------
// Helpers

// tokenize lower-cases and NFKC-folds s (full-width Latin becomes ASCII),
// then emits words for alphabetic or numeric runs and bigrams for Han runs.
// A lone Han character is emitted as itself.
func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = norm.NFKC.String(strings.ToLower(s))
	out := make(map[string]struct{})

	add := func(tok string) {
		if _, skip := stop[tok]; skip {
			return
		}
		out[tok] = struct{}{}
	}

	var word strings.Builder
	var han []rune
	flushWord := func() {
		if word.Len() > 0 {
			add(word.String())
			word.Reset()
		}
	}
	flushHan := func() {
		switch len(han) {
		case 0:
		case 1:
			add(string(han))
		default:
			for j := 0; j+1 < len(han); j++ {
				add(string(han[j : j+2]))
			}
		}
		han = han[:0]
	}

	for _, r := range s {
		switch {
		case unicode.Is(unicode.Han, r):
			flushWord()
			han = append(han, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushHan()
			word.WriteRune(r)
		default:
			flushWord()
			flushHan()
		}
	}
	flushWord()
	flushHan()

	if len(out) == 0 {
		return nil
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
