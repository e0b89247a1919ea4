package ranker

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/simplerag/simplerag/internal/vectorizer"
	pkgerrors "github.com/simplerag/simplerag/pkg/errors"
)

func TestRankEmptyIndex(t *testing.T) {
	query := vectorizer.Vector{0: 1.0}
	if _, err := Rank(query, nil); !errors.Is(err, pkgerrors.ErrEmptyIndex) {
		t.Errorf("Rank against empty matrix error = %v, want ErrEmptyIndex", err)
	}
}

func TestRankOrdersByDescendingScore(t *testing.T) {
	query := vectorizer.Vector{0: 1.0}
	matrix := []vectorizer.Vector{
		{0: 0.2, 1: 0.98},
		{0: 0.9, 1: 0.44},
		{1: 1.0},
	}
	result, err := Rank(query, matrix)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	wantOrder := []int{1, 0, 2}
	for i, want := range wantOrder {
		if result.Ranked[i].DocID != want {
			t.Errorf("rank %d doc id = %d, want %d", i, result.Ranked[i].DocID, want)
		}
	}
	if result.Best.DocID != 1 {
		t.Errorf("Best.DocID = %d, want 1", result.Best.DocID)
	}
	if math.Abs(result.Best.Score-0.9) > 1e-9 {
		t.Errorf("Best.Score = %v, want 0.9", result.Best.Score)
	}
}

func TestRankReturnsAllDocuments(t *testing.T) {
	query := vectorizer.Vector{0: 1.0}
	matrix := []vectorizer.Vector{{0: 1.0}, {1: 1.0}, {0: 0.5, 1: 0.8660254}}
	result, err := Rank(query, matrix)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(result.Ranked) != len(matrix) {
		t.Errorf("ranked %d documents, want %d", len(result.Ranked), len(matrix))
	}
}

func TestRankZeroQueryVector(t *testing.T) {
	query := vectorizer.Vector{}
	matrix := []vectorizer.Vector{{0: 1.0}, {1: 1.0}, {2: 1.0}}
	result, err := Rank(query, matrix)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	for i, scored := range result.Ranked {
		if scored.Score != 0 {
			t.Errorf("score for doc %d = %v, want 0.0", scored.DocID, scored.Score)
		}
		// With all scores tied, ordering falls back to ascending doc id.
		if scored.DocID != i {
			t.Errorf("rank %d doc id = %d, want %d", i, scored.DocID, i)
		}
	}
}

func TestRankTieBreaksByAscendingDocID(t *testing.T) {
	query := vectorizer.Vector{0: 1.0}
	matrix := []vectorizer.Vector{
		{0: 0.5},
		{0: 0.7},
		{0: 0.5},
	}
	result, err := Rank(query, matrix)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	wantOrder := []int{1, 0, 2}
	for i, want := range wantOrder {
		if result.Ranked[i].DocID != want {
			t.Errorf("rank %d doc id = %d, want %d", i, result.Ranked[i].DocID, want)
		}
	}
}

func TestRankParallelMatchesSequential(t *testing.T) {
	// Build a matrix large enough to take the parallel path and verify it
	// agrees with scoring each document directly.
	n := parallelThreshold * 2
	matrix := make([]vectorizer.Vector, n)
	for i := range matrix {
		matrix[i] = vectorizer.Vector{i % 7: 1.0}
	}
	query := vectorizer.Vector{3: 0.6, 5: 0.8}

	result, err := Rank(query, matrix)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	byID := make(map[int]float64, n)
	for _, scored := range result.Ranked {
		byID[scored.DocID] = scored.Score
	}
	for i, docVec := range matrix {
		if want := query.Dot(docVec); byID[i] != want {
			t.Fatalf("doc %d score = %v, want %v", i, byID[i], want)
		}
	}
}

func BenchmarkRank(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			matrix := make([]vectorizer.Vector, size)
			for i := range matrix {
				matrix[i] = vectorizer.Vector{i % 50: 0.6, (i + 1) % 50: 0.8}
			}
			query := vectorizer.Vector{1: 0.5, 2: 0.5, 3: 0.7071}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				result, err := Rank(query, matrix)
				if err != nil {
					b.Fatal(err)
				}
				_ = result
			}
		})
	}
}
