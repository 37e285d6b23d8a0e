// Package retriever answers top-k similarity queries against the corpus
// index and owns its readiness state.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"devcoach/internal/domain"
	"devcoach/internal/embedding"
	"devcoach/internal/vectorstore"
)

// State is the lifecycle of the index: Uninitialized, then Indexing, then
// Ready or Failed. Ready and Failed are terminal.
type State int32

const (
	StateUninitialized State = iota
	StateIndexing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIndexing:
		return "indexing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// BuildFunc constructs the index. It runs exactly once per Retriever.
type BuildFunc func(ctx context.Context) (vectorstore.Index, error)

// status is replaced as a whole, never mutated, so a reader that loads it
// sees the index only once it is complete.
type status struct {
	state State
	index vectorstore.Index
	err   error
}

type Retriever struct {
	embedder domain.Embedder
	current  atomic.Pointer[status]
	started  atomic.Bool
	done     chan struct{}
}

func New(embedder domain.Embedder) *Retriever {
	r := &Retriever{embedder: embedder, done: make(chan struct{})}
	r.current.Store(&status{state: StateUninitialized})
	return r
}

// Run builds the index and publishes the result. A second call returns an
// error without building anything.
func (r *Retriever) Run(ctx context.Context, build BuildFunc) error {
	if !r.started.CompareAndSwap(false, true) {
		return errors.New("retriever: index build already started")
	}
	defer close(r.done)
	logger := logutil.GetLogger(ctx)
	r.current.Store(&status{state: StateIndexing})
	logger.Info("index build started")
	start := time.Now()

	idx, err := build(ctx)
	if err == nil && idx == nil {
		err = errors.New("index build returned no index")
	}
	if err == nil && idx.Len() > 0 && idx.Model() != r.embedder.Name() {
		err = fmt.Errorf("index built with embedder %q, queries use %q", idx.Model(), r.embedder.Name())
	}
	if err != nil {
		r.current.Store(&status{state: StateFailed, err: err})
		logger.Error("index build failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return err
	}
	r.current.Store(&status{state: StateReady, index: idx})
	logger.Info("index ready", zap.Int("chunks", idx.Len()), zap.Duration("duration", time.Since(start)))
	return nil
}

// Wait blocks until the build finished or ctx is done. It returns nil only
// when the index is ready.
func (r *Retriever) Wait(ctx context.Context) error {
	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return r.readyErr(r.current.Load())
}

func (r *Retriever) State() State { return r.current.Load().state }

// Err returns the build failure, if any.
func (r *Retriever) Err() error { return r.current.Load().err }

// Len is the number of indexed chunks, or 0 before the index is ready.
func (r *Retriever) Len() int {
	if st := r.current.Load(); st.index != nil {
		return st.index.Len()
	}
	return 0
}

// Retrieve returns the min(k, chunks) passages most similar to query, best
// first. It never mutates shared state and may be called concurrently.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidArgument)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}
	st := r.current.Load()
	if err := r.readyErr(st); err != nil {
		return nil, err
	}
	if st.index.Len() == 0 {
		return []domain.SearchResult{}, nil
	}
	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, embedding.Unavailable(err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query embedding, got %d", domain.ErrRetrievalUnavailable, len(vecs))
	}
	return st.index.Search(ctx, vecs[0], k)
}

func (r *Retriever) readyErr(st *status) error {
	switch st.state {
	case StateReady:
		return nil
	case StateFailed:
		return fmt.Errorf("%w: index build failed: %w", domain.ErrNotReady, st.err)
	}
	return fmt.Errorf("%w: index is %s", domain.ErrNotReady, st.state)
}
