package keywords

import (
	"math"
	"sort"

	"github.com/bankpulse/review-insights/internal/models"
)

const maxNGram = 3

// Extractor ranks 1-3 word candidate phrases by term frequency weighted
// against how common the phrase is across the whole group.
type Extractor struct {
	topN      int
	groupTopN int
	minTokens int
}

// New creates an extractor. topN bounds per-review keywords, groupTopN
// bounds group-level passes, and reviews shorter than minTokens tokens
// yield no keywords at all.
func New(topN, groupTopN, minTokens int) *Extractor {
	return &Extractor{topN: topN, groupTopN: groupTopN, minTokens: minTokens}
}

type document struct {
	counts map[string]int
	length int
}

// GroupIndex holds candidate phrases and document frequencies for one
// group's review texts. Build once per group, then share read-only across
// workers.
type GroupIndex struct {
	docs []document
	df   map[string]int
}

// Docs returns the number of indexed reviews.
func (idx *GroupIndex) Docs() int { return len(idx.docs) }

// BuildIndex preprocesses a group's review texts into candidate phrases.
// The input order must match the record order used for Extract calls.
func (e *Extractor) BuildIndex(texts []string) *GroupIndex {
	idx := &GroupIndex{
		docs: make([]document, 0, len(texts)),
		df:   make(map[string]int),
	}
	for _, text := range texts {
		tokens := tokenize(text)
		counts := make(map[string]int)
		for _, chunk := range chunks(tokens) {
			for n := 1; n <= maxNGram; n++ {
				for start := 0; start+n <= len(chunk); start++ {
					counts[joinGram(chunk[start:start+n])]++
				}
			}
		}
		for term := range counts {
			idx.df[term]++
		}
		idx.docs = append(idx.docs, document{counts: counts, length: len(tokens)})
	}
	return idx
}

// Extract returns the top-ranked keywords for review i, descending by
// weight. Reviews below the minimum token count yield nil.
func (e *Extractor) Extract(idx *GroupIndex, i int) []models.Keyword {
	doc := idx.docs[i]
	if doc.length < e.minTokens {
		return nil
	}
	ranked := make([]models.Keyword, 0, len(doc.counts))
	for term, count := range doc.counts {
		tf := float64(count) / float64(doc.length)
		ranked = append(ranked, models.Keyword{Term: term, Score: tf * e.igf(idx, term)})
	}
	return top(ranked, e.topN)
}

// GroupPass ranks keywords over the subset of reviews selected by include,
// pooling term frequencies across the subset. Used for the all/complaint/
// praise passes.
func (e *Extractor) GroupPass(idx *GroupIndex, include func(i int) bool) []models.Keyword {
	pooled := make(map[string]int)
	totalLen := 0
	for i, doc := range idx.docs {
		if include != nil && !include(i) {
			continue
		}
		for term, count := range doc.counts {
			pooled[term] += count
		}
		totalLen += doc.length
	}
	if totalLen == 0 {
		return nil
	}
	ranked := make([]models.Keyword, 0, len(pooled))
	for term, count := range pooled {
		tf := float64(count) / float64(totalLen)
		ranked = append(ranked, models.Keyword{Term: term, Score: tf * e.igf(idx, term)})
	}
	return top(ranked, e.groupTopN)
}

// igf is the inverse group frequency of a term: rarer terms in the group
// weigh more.
func (e *Extractor) igf(idx *GroupIndex, term string) float64 {
	return math.Log(1 + float64(len(idx.docs))/float64(1+idx.df[term]))
}

// top sorts descending by score with a lexicographic tiebreak so output
// order is deterministic, then truncates to n.
func top(ranked []models.Keyword, n int) []models.Keyword {
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Term < ranked[j].Term
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func joinGram(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += " " + p
	}
	return out
}
