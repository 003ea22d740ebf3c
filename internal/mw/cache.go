package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// ResponseCache keeps successful GET answers until they expire or a write goes through.
type ResponseCache struct {
	entries *cache.Cache
	ttl     time.Duration
}

type snapshot struct {
	status int
	header http.Header
	body   []byte
}

// capture tees the response body into buf.
type capture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *capture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capture) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// NewResponseCache returns an empty cache whose entries live for ttl.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{entries: cache.New(ttl, 2*ttl), ttl: ttl}
}

// cacheKey identifies a request by path and query, ignoring parameter order.
func cacheKey(r *http.Request) string {
	return r.URL.Path + "?" + r.URL.Query().Encode()
}

// Serve answers from the cache when it can and stores 2xx answers otherwise. Hits carry X-Cache: HIT.
func (rc *ResponseCache) Serve() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		k := cacheKey(c.Request)
		if v, ok := rc.entries.Get(k); ok {
			snap := v.(snapshot)
			header := c.Writer.Header()
			for name, values := range snap.header {
				header[name] = values
			}
			header.Set("X-Cache", "HIT")
			c.Data(snap.status, snap.header.Get("Content-Type"), snap.body)
			c.Abort()
			return
		}

		w := &capture{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if status := w.Status(); status >= 200 && status < 300 {
			rc.entries.Set(k, snapshot{status: status, header: w.Header().Clone(), body: w.buf.Bytes()}, rc.ttl)
		}
	}
}

// FlushOnWrite empties the cache after every non-GET request that succeeds.
func (rc *ResponseCache) FlushOnWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method != http.MethodGet && c.Writer.Status() < http.StatusBadRequest {
			rc.Flush()
		}
	}
}

// Flush drops every stored answer.
func (rc *ResponseCache) Flush() {
	rc.entries.Flush()
}
