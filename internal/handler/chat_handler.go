package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"devcoach/internal/domain"
	"devcoach/internal/pkg/errcode"
	"devcoach/internal/pkg/response"
)

// ChatService is the part of *service.ChatService the handlers use.
type ChatService interface {
	Answer(ctx context.Context, message string) (*domain.Answer, error)
	Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type retrieveRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type passage struct {
	Text    string  `json:"text"`
	Source  string  `json:"source"`
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
}

type retrieveResponse struct {
	Results []passage `json:"results"`
}

type chatResponse struct {
	Answer   string    `json:"answer"`
	Grounded bool      `json:"grounded"`
	Sources  []passage `json:"sources"`
}

func toPassages(results []domain.SearchResult) []passage {
	out := make([]passage, 0, len(results))
	for _, r := range results {
		out = append(out, passage{Text: r.Chunk.Text, Source: r.Chunk.Source, ChunkID: r.Chunk.ChunkID, Score: r.Score})
	}
	return out
}

func (h *ChatHandler) Retrieve(c *gin.Context) {
	var req retrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	results, err := h.chat.Retrieve(c.Request.Context(), req.Query, req.K)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, retrieveResponse{Results: toPassages(results)})
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	ans, err := h.chat.Answer(c.Request.Context(), req.Message)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chatResponse{Answer: ans.Text, Grounded: ans.Grounded, Sources: toPassages(ans.Sources)})
}
