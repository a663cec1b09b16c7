package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIErrors is the body of every failed request.
type APIErrors struct {
	Errors []string `json:"errors"`
}

// JSON writes data with the given status, defaulting to 200.
func JSON[T any](ctx *gin.Context, status int, data T) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, data)
}

// Error writes an APIErrors body, defaulting to 400. With no messages the status text is used.
func Error(ctx *gin.Context, status int, messages ...string) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.JSON(status, NewErrors(status, messages...))
}

// Abort is Error for middleware: the remaining handlers are skipped.
func Abort(ctx *gin.Context, status int, messages ...string) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.AbortWithStatusJSON(status, NewErrors(status, messages...))
}

func NewErrors(status int, messages ...string) APIErrors {
	if len(messages) == 0 {
		messages = []string{http.StatusText(status)}
	}
	return APIErrors{Errors: messages}
}
