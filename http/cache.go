package http

import (
	"bytes"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// pageCache is a short-TTL full-response cache for GET routes. A cached
// entry is served as-is until it expires, so writes may stay invisible
// on a cached route for up to one TTL. Redis being down or absent never
// breaks the route; the request just falls through to the handler.
type pageCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func newPageCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *pageCache {
	return &pageCache{
		rdb: rdb,
		ttl: ttl,
		log: log,
	}
}

// wrap decorates a handler with the cache. With no redis client or a
// non-positive TTL the handler is returned untouched.
func (c *pageCache) wrap(next http.Handler) http.Handler {
	if c.rdb == nil || c.ttl <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		key := "pagecache:" + r.URL.RequestURI()

		body, err := c.rdb.Get(r.Context(), key).Bytes()
		if err == nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(body)
			return
		}
		if err != redis.Nil {
			c.log.Warn("page cache read failed", zap.Error(err))
		}

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// Only successful pages are worth keeping.
		if rec.status == http.StatusOK {
			if err := c.rdb.Set(r.Context(), key, rec.buf.Bytes(), c.ttl).Err(); err != nil {
				c.log.Warn("page cache write failed", zap.Error(err))
			}
		}
	})
}

// responseRecorder tees the response body so it can be stored after the
// handler ran.
type responseRecorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	rr.buf.Write(b)
	return rr.ResponseWriter.Write(b)
}
