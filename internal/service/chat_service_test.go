package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"devcoach/internal/domain"
	"devcoach/internal/llm"
)

type stubRetriever struct {
	results []domain.SearchResult
	err     error
	gotK    int
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.SearchResult, error) {
	s.gotK = k
	if s.err != nil {
		return nil, s.err
	}
	if k < len(s.results) {
		return s.results[:k], nil
	}
	return s.results, nil
}

type recordingCompleter struct {
	got   llm.Request
	err   error
	calls int
}

func (r *recordingCompleter) Name() string { return "recording" }

func (r *recordingCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	r.got = req
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return "answer", nil
}

func passages(texts ...string) []domain.SearchResult {
	out := make([]domain.SearchResult, len(texts))
	for i, t := range texts {
		out[i] = domain.SearchResult{Chunk: domain.Chunk{Text: t, Index: i}, Score: 1 - float64(i)/10}
	}
	return out
}

func TestAnswer_Grounded(t *testing.T) {
	ret := &stubRetriever{results: passages("a", "b", "c")}
	comp := &recordingCompleter{}
	svc := NewChatService(ret, comp, Options{TopK: 2})

	ans, err := svc.Answer(context.Background(), "  why?  ")
	require.NoError(t, err)
	require.Equal(t, 2, ret.gotK)
	require.True(t, ans.Grounded)
	require.Equal(t, "answer", ans.Text)
	require.Len(t, ans.Sources, 2)
	require.Equal(t, llm.Request{Question: "why?", Passages: []string{"a", "b"}}, comp.got)
}

func TestAnswer_DegradesWhenNotReady(t *testing.T) {
	for _, cause := range []error{domain.ErrNotReady, domain.ErrRetrievalUnavailable} {
		comp := &recordingCompleter{}
		svc := NewChatService(&stubRetriever{err: cause}, comp, Options{})
		ans, err := svc.Answer(context.Background(), "why?")
		require.NoError(t, err)
		require.False(t, ans.Grounded)
		require.Empty(t, ans.Sources)
		require.Empty(t, comp.got.Passages)
	}
}

func TestAnswer_RequireGrounding(t *testing.T) {
	svc := NewChatService(&stubRetriever{err: domain.ErrNotReady}, &recordingCompleter{}, Options{RequireGrounding: true})
	_, err := svc.Answer(context.Background(), "why?")
	require.ErrorIs(t, err, domain.ErrNotReady)
}

func TestAnswer_Errors(t *testing.T) {
	svc := NewChatService(&stubRetriever{}, &recordingCompleter{}, Options{})
	_, err := svc.Answer(context.Background(), " ")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	other := errors.New("unexpected")
	svc = NewChatService(&stubRetriever{err: other}, &recordingCompleter{}, Options{})
	_, err = svc.Answer(context.Background(), "why?")
	require.ErrorIs(t, err, other)

	svc = NewChatService(&stubRetriever{results: passages("a")}, &recordingCompleter{err: errors.New("llm down")}, Options{})
	_, err = svc.Answer(context.Background(), "why?")
	require.ErrorIs(t, err, domain.ErrCompletionUnavailable)
}

func TestRetrieve_DefaultsK(t *testing.T) {
	ret := &stubRetriever{results: passages("a")}
	svc := NewChatService(ret, &recordingCompleter{}, Options{})
	require.Equal(t, DefaultTopK, svc.TopK())
	_, err := svc.Retrieve(context.Background(), "q", 0)
	require.NoError(t, err)
	require.Equal(t, DefaultTopK, ret.gotK)
}

func TestAnswer_CanceledCallerSkipsCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cause := fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, context.Canceled)
	comp := &recordingCompleter{}
	svc := NewChatService(&stubRetriever{err: cause}, comp, Options{})

	_, err := svc.Answer(ctx, "why?")
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, comp.calls)
}
