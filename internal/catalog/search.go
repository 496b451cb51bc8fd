package catalog

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultSearchThreshold is the maximum normalized edit distance a title
// may have from the search term and still match.
const DefaultSearchThreshold = 0.75

// Refiner filters a fetched window by approximate title match. Matching is
// case- and diacritic-insensitive; candidates are ranked by Levenshtein
// distance and ties keep their original position.
type Refiner struct {
	threshold float64
}

// NewRefiner creates a refiner with the given normalized-distance
// threshold. Values outside (0, 1] fall back to the default.
func NewRefiner(threshold float64) *Refiner {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSearchThreshold
	}
	return &Refiner{threshold: threshold}
}

type rankedDoc struct {
	doc      Document
	distance int
	index    int
}

// Refine returns the documents whose titles fuzzily match the term, best
// matches first. An empty term returns the input unchanged. A document
// without a string title never matches.
func (r *Refiner) Refine(docs []Document, term string) []Document {
	if term == "" {
		return docs
	}

	var ranked []rankedDoc
	for i, doc := range docs {
		title, ok := doc.Fields["title"].(string)
		if !ok || title == "" {
			continue
		}
		distance := fuzzy.RankMatchNormalizedFold(term, title)
		if distance < 0 {
			continue
		}
		if float64(distance)/float64(len(title)) > r.threshold {
			continue
		}
		ranked = append(ranked, rankedDoc{doc: doc, distance: distance, index: i})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].index < ranked[j].index
	})

	out := make([]Document, len(ranked))
	for i, rd := range ranked {
		out[i] = rd.doc
	}
	return out
}
