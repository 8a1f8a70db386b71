package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/labconnect/medtest-booking/internal/config"
)

// cachedResponse is what ResponseCache stores in Redis.
type cachedResponse struct {
	Status int         `json:"s"`
	Header http.Header `json:"h"`
	Body   []byte      `json:"b"`
}

// captureWriter tees the response body into buf up to limit bytes.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// ResponseCache serves repeated catalog reads from Redis.  Only 200
// responses within the size limit are stored.  It must not be mounted on
// booking routes.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[c.Request().Method] {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil && hit.Status != 0 {
					h := c.Response().Header()
					for k, vals := range hit.Header {
						if strings.EqualFold(k, echo.HeaderContentLength) {
							continue
						}
						h[k] = vals
					}
					h.Set("X-Cache", "HIT")
					return c.Blob(hit.Status, hit.Header.Get(echo.HeaderContentType), hit.Body)
				}
			}

			w := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = w
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if w.status != http.StatusOK || w.overflow {
				return nil
			}
			payload, err := json.Marshal(cachedResponse{
				Status: w.status,
				Header: c.Response().Header().Clone(),
				Body:   w.buf.Bytes(),
			})
			if err == nil {
				_ = rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err()
			}
			return nil
		}
	}
}

// cacheKey hashes the route pattern, its path parameters and the raw query.
func cacheKey(prefix string, c echo.Context) string {
	var b strings.Builder
	b.WriteString(c.Request().Method)
	b.WriteString(" ")
	b.WriteString(c.Path())
	for i, name := range c.ParamNames() {
		b.WriteString("|" + name + "=" + c.ParamValues()[i])
	}
	b.WriteString("?" + c.Request().URL.RawQuery)
	sum := sha1.Sum([]byte(b.String()))
	return prefix + ":" + hex.EncodeToString(sum[:])
}
