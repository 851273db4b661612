package mw

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// TagCache caches GET responses under a resource tag so that a write to
// the resource can drop every cached view of it.
type TagCache struct {
	store *cache.Cache
	ttl   time.Duration

	// gens counts invalidations per tag. A response is stored only if its
	// tag saw no invalidation while the handler ran.
	mu   sync.Mutex
	gens map[string]uint64
}

// NewTagCache creates a cache whose entries expire after ttl.
func NewTagCache(ttl time.Duration) *TagCache {
	return &TagCache{
		store: cache.New(ttl, 2*ttl),
		ttl:   ttl,
		gens:  make(map[string]uint64),
	}
}

func cacheKey(tag, uri string) string {
	return tag + "|" + uri
}

// Cache serves GET requests from the cache, keyed by request URI within tag.
func (tc *TagCache) Cache(tag string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := cacheKey(tag, c.Request.RequestURI)
		if resp, found := tc.store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body)
			c.Abort()
			return
		}

		tc.mu.Lock()
		gen := tc.gens[tag]
		tc.mu.Unlock()

		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if blw.Status() < 200 || blw.Status() >= 300 {
			return
		}
		tc.mu.Lock()
		defer tc.mu.Unlock()
		if tc.gens[tag] != gen {
			return
		}
		tc.store.Set(key, cachedResponse{
			status:  blw.Status(),
			headers: blw.Header().Clone(),
			body:    blw.body.Bytes(),
		}, tc.ttl)
	}
}

// Invalidate drops every cached response under the given tags.
func (tc *TagCache) Invalidate(tags ...string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for _, tag := range tags {
		tc.gens[tag]++
	}
	for key := range tc.store.Items() {
		for _, tag := range tags {
			if strings.HasPrefix(key, tag+"|") {
				tc.store.Delete(key)
				break
			}
		}
	}
}

// Invalidates runs the handler and, when it succeeds, invalidates tags.
func (tc *TagCache) Invalidates(tags ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			tc.Invalidate(tags...)
		}
	}
}
