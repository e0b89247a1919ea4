// Package vectorizer converts raw text into comparable TF-IDF vectors. Fit
// learns a vocabulary and per-term IDF statistics from a corpus; Transform
// maps any text into the fitted term space as an L2-normalized sparse vector.
package vectorizer

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/simplerag/simplerag/pkg/errors"
)

// Vectorizer holds the fitted vocabulary and IDF statistics. It is built
// once per corpus by Fit and is read-only afterwards: Transform never
// inserts new terms.
type Vectorizer struct {
	vocab     map[string]int // term -> dense 0-based id, first-seen order
	idf       []float64      // term id -> inverse document frequency
	docTokens [][]string     // tokenized corpus from the fit pass
	fitted    bool
}

func New() *Vectorizer {
	return &Vectorizer{}
}

// Fit tokenizes the corpus, assigns term ids in order of first appearance,
// and computes smoothed IDF per term: idf = ln((1+N)/(1+df)) + 1. The
// smoothing keeps every idf strictly positive, including terms present in
// all documents.
//
// Documents are tokenized concurrently; vocabulary ids are then assigned in
// a single sequential pass in document order, so the assignment is
// deterministic for a given corpus.
func (v *Vectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return errors.ErrEmptyCorpus
	}

	docTokens := make([][]string, len(docs))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, doc := range docs {
		g.Go(func() error {
			docTokens[i] = Tokenize(doc)
			return nil
		})
	}
	g.Wait()

	vocab := make(map[string]int)
	df := make([]int, 0, 64)
	for _, tokens := range docTokens {
		seen := make(map[int]struct{}, len(tokens))
		for _, term := range tokens {
			termID, ok := vocab[term]
			if !ok {
				termID = len(vocab)
				vocab[term] = termID
				df = append(df, 0)
			}
			if _, counted := seen[termID]; !counted {
				df[termID]++
				seen[termID] = struct{}{}
			}
		}
	}
	if len(vocab) == 0 {
		return errors.ErrEmptyCorpus
	}

	n := float64(len(docs))
	idf := make([]float64, len(df))
	for termID, count := range df {
		idf[termID] = math.Log((1+n)/(1+float64(count))) + 1
	}

	v.vocab = vocab
	v.idf = idf
	v.docTokens = docTokens
	v.fitted = true
	return nil
}

// Transform maps text into the fitted term space. Terms the model has never
// observed contribute no weight. The result is L2-normalized unless no known
// term matched, in which case the zero vector is returned.
func (v *Vectorizer) Transform(text string) (Vector, error) {
	if !v.fitted {
		return nil, errors.ErrNotFitted
	}
	return v.transformTokens(Tokenize(text)), nil
}

// TransformCorpus vectorizes every document from the most recent Fit, reusing
// the tokenization produced by that same pass. The returned matrix is
// index-aligned with document ids.
func (v *Vectorizer) TransformCorpus() ([]Vector, error) {
	if !v.fitted {
		return nil, errors.ErrNotFitted
	}
	matrix := make([]Vector, len(v.docTokens))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, tokens := range v.docTokens {
		g.Go(func() error {
			matrix[i] = v.transformTokens(tokens)
			return nil
		})
	}
	g.Wait()
	return matrix, nil
}

// transformTokens builds a normalized tf-idf vector from pre-tokenized text:
// raw term counts weighted by idf, then scaled to unit length.
func (v *Vectorizer) transformTokens(tokens []string) Vector {
	vec := make(Vector)
	for _, term := range tokens {
		if termID, ok := v.vocab[term]; ok {
			vec[termID]++
		}
	}
	for termID, tf := range vec {
		vec[termID] = tf * v.idf[termID]
	}
	vec.normalize()
	return vec
}

// VocabularySize returns the number of distinct terms learned by Fit.
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocab)
}

// TermID returns the dense id assigned to term, if the term was observed
// during Fit.
func (v *Vectorizer) TermID(term string) (int, bool) {
	termID, ok := v.vocab[term]
	return termID, ok
}

// DocumentCount returns the number of documents in the fitted corpus.
func (v *Vectorizer) DocumentCount() int {
	return len(v.docTokens)
}
