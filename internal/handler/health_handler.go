package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devcoach/internal/pkg/errcode"
	"devcoach/internal/pkg/response"
	"devcoach/internal/retriever"
)

// Readiness reports the index lifecycle. *retriever.Retriever implements it.
type Readiness interface {
	State() retriever.State
	Len() int
	Err() error
}

type HealthHandler struct {
	readiness Readiness
}

func NewHealthHandler(readiness Readiness) *HealthHandler {
	return &HealthHandler{readiness: readiness}
}

type readyResponse struct {
	State  string `json:"state"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// Readyz returns 200 only once the index is built.
func (h *HealthHandler) Readyz(c *gin.Context) {
	state := h.readiness.State()
	data := readyResponse{State: state.String(), Chunks: h.readiness.Len()}
	if state == retriever.StateReady {
		response.Success(c, data)
		return
	}
	if err := h.readiness.Err(); err != nil {
		data.Error = err.Error()
	}
	response.ErrorWithData(c, http.StatusServiceUnavailable, errcode.ErrNotReady, "not ready", data)
}
