package memory

import (
	"container/heap"
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"devcoach/internal/domain"
)

// cancelCheckEvery bounds how many chunks are scored between context checks.
const cancelCheckEvery = 1024

// Index is an in-memory brute-force cosine index. It copies its inputs and
// is never mutated afterwards, so readers need no locking.
type Index struct {
	model     string
	dimension int
	chunks    []domain.Chunk
	vectors   [][]float64
	norms     []float64
}

// NewIndex validates that there is one vector per chunk and that all vectors
// share one non-zero dimension. An index with no chunks is valid.
func NewIndex(chunks []domain.Chunk, vectors [][]float64, model string) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%d chunks but %d vectors", len(chunks), len(vectors))
	}
	idx := &Index{
		model:   model,
		chunks:  make([]domain.Chunk, len(chunks)),
		vectors: make([][]float64, len(vectors)),
		norms:   make([]float64, len(vectors)),
	}
	copy(idx.chunks, chunks)
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("vector %d is empty", i)
		}
		if i == 0 {
			idx.dimension = len(v)
		} else if len(v) != idx.dimension {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), idx.dimension)
		}
		idx.vectors[i] = append([]float64(nil), v...)
		idx.norms[i] = floats.Norm(v, 2)
	}
	return idx, nil
}

func (x *Index) Len() int       { return len(x.chunks) }
func (x *Index) Dimension() int { return x.dimension }
func (x *Index) Model() string  { return x.model }

func (x *Index) Search(ctx context.Context, query []float64, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	n := len(x.chunks)
	if n == 0 {
		return []domain.SearchResult{}, nil
	}
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d", domain.ErrRetrievalUnavailable, len(query), x.dimension)
	}
	qnorm := floats.Norm(query, 2)
	scores := make([]float64, n)
	for i := range x.vectors {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		scores[i] = cosine(query, x.vectors[i], qnorm, x.norms[i])
	}

	var order []int
	if k < n {
		order = topK(scores, k)
	} else {
		order = sortAll(scores)
	}
	results := make([]domain.SearchResult, 0, len(order))
	for _, i := range order {
		results = append(results, domain.SearchResult{Chunk: x.chunks[i], Score: scores[i]})
	}
	return results, nil
}

// Cosine returns dot(a, b) / (|a| * |b|), or 0 when either vector has zero
// magnitude. Vectors of different dimension are a programming error.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("memory: cosine of vectors with dimension %d and %d", len(a), len(b)))
	}
	return cosine(a, b, floats.Norm(a, 2), floats.Norm(b, 2))
}

func cosine(a, b []float64, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	s := floats.Dot(a, b) / (na * nb)
	// rounding can push parallel vectors just past 1
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// ranksBefore orders by score descending, then position ascending.
func ranksBefore(scores []float64, i, j int) bool {
	if scores[i] != scores[j] {
		return scores[i] > scores[j]
	}
	return i < j
}

func sortAll(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

// topK keeps the best k positions in a min-heap whose root is the worst
// of the current best, so each candidate costs O(log k).
func topK(scores []float64, k int) []int {
	h := &rankHeap{scores: scores, items: make([]int, 0, k)}
	for i := range scores {
		if len(h.items) < k {
			heap.Push(h, i)
			continue
		}
		if ranksBefore(scores, i, h.items[0]) {
			h.items[0] = i
			heap.Fix(h, 0)
		}
	}
	order := make([]int, len(h.items))
	for i := len(order) - 1; i >= 0; i-- {
		order[i] = heap.Pop(h).(int)
	}
	return order
}

type rankHeap struct {
	scores []float64
	items  []int
}

func (h *rankHeap) Len() int { return len(h.items) }

// Less puts the lowest-ranked item at the root.
func (h *rankHeap) Less(a, b int) bool { return ranksBefore(h.scores, h.items[b], h.items[a]) }
func (h *rankHeap) Swap(a, b int)      { h.items[a], h.items[b] = h.items[b], h.items[a] }
func (h *rankHeap) Push(x any)         { h.items = append(h.items, x.(int)) }
func (h *rankHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}
