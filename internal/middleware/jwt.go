// Package middleware holds the echo middleware shared by all route groups:
// identity, role checks, request logging, rate limiting and the catalog
// response cache.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth validates an HS256 Bearer token and stores its sub and role
// claims in the context.  Credentials are issued upstream; only the
// signature and expiry are checked here.
func JWTAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return deny(c, http.StatusUnauthorized, "missing bearer token")
			}

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
				return key, nil
			})
			if err != nil || !tok.Valid {
				return deny(c, http.StatusUnauthorized, "invalid token")
			}
			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return deny(c, http.StatusUnauthorized, "invalid claims")
			}
			role, _ := claims["role"].(string)

			c.Set(ctxUserID, sub)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}
