package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Fail sends an envelope carrying a single error with the given status and stops
// the handler chain. Middleware uses it to short-circuit a request.
func Fail(c *gin.Context, status int, handle, message string) {
	GetEnvelope(c).SetStatus(status).AddError(handle, message).Send()
}

// NotFound answers requests that match no registered route.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		Fail(c, http.StatusNotFound, "not-found", "Not Found")
	}
}

// MethodNotAllowed answers requests whose path matches but whose method does not.
func MethodNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		Fail(c, http.StatusMethodNotAllowed, "method-not-allowed", "Method Not Allowed")
	}
}
