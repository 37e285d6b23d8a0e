package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"devcoach/internal/domain"
	"devcoach/internal/middleware"
	"devcoach/internal/pkg/errcode"
	"devcoach/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, err.Error())
	case errors.Is(err, domain.ErrNotReady):
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrNotReady, "knowledge base is not ready")
	case errors.Is(err, domain.ErrRetrievalUnavailable):
		response.Error(c, http.StatusBadGateway, errcode.ErrRetrievalUnavailable, "retrieval service unavailable")
	case errors.Is(err, domain.ErrCompletionUnavailable):
		response.Error(c, http.StatusBadGateway, errcode.ErrCompletionUnavailable, "language model unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
