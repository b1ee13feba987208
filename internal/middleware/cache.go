package middleware

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/food-delivery-platform/internal/config"
)

// bodyRecorder duplicates the response body up to a limit while streaming it
// to the client, so a successful response can be stored after the handler
// returns.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	overflow bool
	limit    int
}

func (w *bodyRecorder) WriteHeader(code int) {
	w.status = code
	// Only successful responses participate in the cache, so only they
	// advertise it.
	if code == http.StatusOK {
		w.ResponseWriter.Header().Set("X-Cache", "MISS")
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.buf.Len()+len(b) <= w.limit {
			w.buf.Write(b)
		} else {
			w.overflow = true
			w.buf.Reset()
		}
	}
	return w.ResponseWriter.Write(b)
}

// cacheKey hashes the concrete request path plus raw query. The request path
// is used rather than the registered route pattern so that parameterized
// routes get one entry per resource instead of one shared entry.
func cacheKey(prefix, path, rawQuery string) string {
	sum := sha1.Sum([]byte(path + "?" + rawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum)
}

// CacheResponse serves public GET listings from Redis. Only 200 responses up
// to MaxBodyBytes are stored; everything else passes through untouched. The
// key hashes request path plus raw query so paginated or filtered listings
// do not collide.
func CacheResponse(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := cacheKey(cfg.Prefix, c.Request().URL.Path, c.Request().URL.RawQuery)

			ctx := c.Request().Context()
			if cached, err := rdb.Get(ctx, key).Bytes(); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSONBlob(http.StatusOK, cached)
			}

			rec := &bodyRecorder{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          cfg.MaxBodyBytes,
			}
			c.Response().Writer = rec

			if err := next(c); err != nil {
				return err
			}
			if rec.status == http.StatusOK && !rec.overflow && rec.buf.Len() > 0 {
				// Best effort; a failed SET only costs the next request a DB hit.
				_ = rdb.Set(ctx, key, rec.buf.Bytes(), ttl).Err()
			}
			return nil
		}
	}
}
