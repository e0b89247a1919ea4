// Package ranker orders documents by cosine similarity to a query vector.
// It is a pure function of its inputs and safe to call concurrently against
// the same frozen document matrix.
package ranker

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/simplerag/simplerag/internal/vectorizer"
	"github.com/simplerag/simplerag/pkg/errors"
)

// parallelThreshold is the matrix size above which scoring fans out across
// CPUs. Small corpora are scored inline to avoid goroutine overhead.
const parallelThreshold = 512

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// Result is the total order Rank produces. Best is the arg-max, duplicated
// out of Ranked because the single best match is the primary use case.
type Result struct {
	Ranked []ScoredDoc
	Best   ScoredDoc
}

// Rank scores the query against every document vector and returns all
// documents sorted by descending score, ties broken by ascending doc id.
// Both sides are unit vectors (or zero), so cosine similarity reduces to the
// sparse dot product; a zero query scores 0.0 against everything.
func Rank(query vectorizer.Vector, matrix []vectorizer.Vector) (*Result, error) {
	if len(matrix) == 0 {
		return nil, errors.ErrEmptyIndex
	}

	scores := make([]float64, len(matrix))
	if len(matrix) < parallelThreshold {
		for i, docVec := range matrix {
			scores[i] = query.Dot(docVec)
		}
	} else {
		g := new(errgroup.Group)
		workers := runtime.NumCPU()
		chunk := (len(matrix) + workers - 1) / workers
		for start := 0; start < len(matrix); start += chunk {
			end := min(start+chunk, len(matrix))
			g.Go(func() error {
				for i := start; i < end; i++ {
					scores[i] = query.Dot(matrix[i])
				}
				return nil
			})
		}
		g.Wait()
	}

	ranked := make([]ScoredDoc, len(scores))
	for docID, score := range scores {
		ranked[docID] = ScoredDoc{DocID: docID, Score: score}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})

	return &Result{
		Ranked: ranked,
		Best:   ranked[0],
	}, nil
}
