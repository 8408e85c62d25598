package cache

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const jsonContentType = "application/json; charset=utf-8"

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware serves GET requests for the route's slug parameter from the
// cache and stores successful JSON responses on a miss, unless the slug
// was invalidated while the handler ran.
func (p *PageCache) Middleware(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param(param)
		if c.Request.Method != http.MethodGet || slug == "" {
			c.Next()
			return
		}

		if cached, found := p.Read(slug); found {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, jsonContentType, cached)
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")
		gen := p.Generation(slug)
		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = writer

		c.Next()

		if writer.Status() == http.StatusOK &&
			strings.HasPrefix(writer.Header().Get("Content-Type"), "application/json") {
			p.WriteIfCurrent(slug, gen, writer.body.Bytes())
		}
	}
}
