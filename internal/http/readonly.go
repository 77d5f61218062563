package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeReadOnly marks a write request refused because the server is read-only.
const CodeReadOnly = "read_only"

// ReadOnlyMiddleware blocks every write when enabled, so an archive can be
// browsed without allowing imports or deletions. Reads always pass.
type ReadOnlyMiddleware struct {
	enabled bool
}

func NewReadOnlyMiddleware(enabled bool) *ReadOnlyMiddleware {
	return &ReadOnlyMiddleware{enabled: enabled}
}

func (m *ReadOnlyMiddleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that refuses non-read methods with 403.
func (m *ReadOnlyMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Error: "server is running in read-only mode",
			Code:  CodeReadOnly,
		})
	}
}
