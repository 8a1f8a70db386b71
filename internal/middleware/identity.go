package middleware

import "github.com/labstack/echo/v4"

// Roles carried in the JWT role claim.
const (
	RoleUser       = "USER"
	RoleSuperadmin = "SUPERADMIN"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated caller id set by JWTAuth.
func UserID(c echo.Context) (string, bool) {
	s, ok := c.Get(ctxUserID).(string)
	return s, ok && s != ""
}

// Role returns the caller role set by JWTAuth, or "" when absent.
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// deny writes the failure envelope used across the API.
func deny(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}
