package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
)

// ResponseCache memoizes GET responses in process memory. It backs the
// public listing endpoints (doctors, departments) where a short staleness
// window is acceptable.
type ResponseCache struct {
	store *gocache.Cache
}

func NewResponseCache(defaultTTL, cleanupInterval time.Duration) *ResponseCache {
	return &ResponseCache{
		store: gocache.New(defaultTTL, cleanupInterval),
	}
}

type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Cached serves a stored copy of the response when one exists for the
// request URL, and stores successful responses otherwise.
func (rc *ResponseCache) Cached(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.RequestURI()
		if entry, found := rc.store.Get(key); found {
			cached := entry.(cachedResponse)
			c.Data(cached.status, cached.contentType, cached.body)
			c.Abort()
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			rc.store.Set(key, cachedResponse{
				status:      c.Writer.Status(),
				contentType: c.Writer.Header().Get("Content-Type"),
				body:        w.body.Bytes(),
			}, ttl)
		}
	}
}

// Invalidate drops every cached response. Called after writes that change
// listing contents.
func (rc *ResponseCache) Invalidate() {
	rc.store.Flush()
}
