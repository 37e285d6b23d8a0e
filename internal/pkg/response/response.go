package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devcoach/internal/pkg/errcode"
)

// Body is the envelope of every API response.
type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: errcode.Success, Message: "ok", Data: data})
}

func Error(c *gin.Context, status int, code int, message string) {
	c.JSON(status, Body{Code: code, Message: message})
}

// ErrorWithData is used when a failure still has something to report, such
// as the readiness state.
func ErrorWithData(c *gin.Context, status int, code int, message string, data interface{}) {
	c.JSON(status, Body{Code: code, Message: message, Data: data})
}
