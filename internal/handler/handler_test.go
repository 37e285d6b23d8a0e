package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"devcoach/internal/domain"
	"devcoach/internal/pkg/errcode"
	"devcoach/internal/retriever"
)

type stubChat struct {
	answer  *domain.Answer
	results []domain.SearchResult
	err     error
	gotK    int
	gotMsg  string
}

func (s *stubChat) Answer(_ context.Context, message string) (*domain.Answer, error) {
	s.gotMsg = message
	return s.answer, s.err
}

func (s *stubChat) Retrieve(_ context.Context, _ string, k int) ([]domain.SearchResult, error) {
	s.gotK = k
	return s.results, s.err
}

type stubReadiness struct {
	state retriever.State
	n     int
	err   error
}

func (s stubReadiness) State() retriever.State { return s.state }
func (s stubReadiness) Len() int               { return s.n }
func (s stubReadiness) Err() error             { return s.err }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEngine(chat ChatService, ready Readiness) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewEngine(RouterDeps{Chat: NewChatHandler(chat), Health: NewHealthHandler(ready)})
}

func do(t *testing.T, engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestRetrieve_OK(t *testing.T) {
	chat := &stubChat{results: []domain.SearchResult{
		{Chunk: domain.Chunk{Text: "Children develop motor skills through repetition.", Source: "a.txt", ChunkID: "a:0"}, Score: 0.9},
	}}
	w, env := do(t, newTestEngine(chat, stubReadiness{}), http.MethodPost, "/api/v1/retrieve", `{"query":"coordination","k":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, errcode.Success, env.Code)
	require.Equal(t, 1, chat.gotK)

	var data retrieveResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Results, 1)
	require.Equal(t, "a.txt", data.Results[0].Source)
	require.InDelta(t, 0.9, data.Results[0].Score, 1e-9)
}

func TestChat_OK(t *testing.T) {
	chat := &stubChat{answer: &domain.Answer{Text: "Play every day.", Grounded: true, Sources: []domain.SearchResult{{Chunk: domain.Chunk{Text: "p"}}}}}
	w, env := do(t, newTestEngine(chat, stubReadiness{}), http.MethodPost, "/api/v1/chat", `{"message":"help"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "help", chat.gotMsg)

	var data chatResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "Play every day.", data.Answer)
	require.True(t, data.Grounded)
	require.Len(t, data.Sources, 1)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{domain.ErrInvalidArgument, http.StatusBadRequest, errcode.ErrInvalid},
		{domain.ErrNotReady, http.StatusServiceUnavailable, errcode.ErrNotReady},
		{errors.Join(domain.ErrRetrievalUnavailable, context.DeadlineExceeded), http.StatusBadGateway, errcode.ErrRetrievalUnavailable},
		{domain.ErrCompletionUnavailable, http.StatusBadGateway, errcode.ErrCompletionUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, errcode.ErrInternal},
	}
	for _, tc := range cases {
		engine := newTestEngine(&stubChat{err: tc.err}, stubReadiness{})
		for _, path := range []string{"/api/v1/retrieve", "/api/v1/chat"} {
			w, env := do(t, engine, http.MethodPost, path, `{"query":"q","message":"m"}`)
			require.Equal(t, tc.status, w.Code, "%s: %v", path, tc.err)
			require.Equal(t, tc.code, env.Code)
		}
	}
}

func TestBadJSON(t *testing.T) {
	w, env := do(t, newTestEngine(&stubChat{}, stubReadiness{}), http.MethodPost, "/api/v1/chat", `{"message":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, errcode.ErrInvalid, env.Code)
}

func TestReadyz(t *testing.T) {
	w, env := do(t, newTestEngine(&stubChat{}, stubReadiness{state: retriever.StateIndexing}), http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var data readyResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "indexing", data.State)

	w, env = do(t, newTestEngine(&stubChat{}, stubReadiness{state: retriever.StateFailed, err: errors.New("no docs")}), http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	data = readyResponse{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "failed", data.State)
	require.Equal(t, "no docs", data.Error)

	w, env = do(t, newTestEngine(&stubChat{}, stubReadiness{state: retriever.StateReady, n: 7}), http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, w.Code)
	data = readyResponse{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, readyResponse{State: "ready", Chunks: 7}, data)

	w, _ = do(t, newTestEngine(&stubChat{}, stubReadiness{}), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
}
