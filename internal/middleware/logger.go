package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger writes one zerolog line per request.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req, res := c.Request(), c.Response()

			ev := log.Info()
			switch {
			case res.Status >= 500:
				ev = log.Error().Err(err)
			case res.Status >= 400:
				ev = log.Warn()
			}
			ev = ev.Str("method", req.Method).
				Str("path", c.Path()).
				Str("uri", req.RequestURI).
				Int("status", res.Status).
				Int64("bytes", res.Size).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP())
			if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
				ev = ev.Str("request_id", id)
			}
			if uid, ok := UserID(c); ok {
				ev = ev.Str("user_id", uid)
			}
			ev.Msg("request")
			return nil
		}
	}
}
