package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequirePermission enforces that the authenticated user's merged permission
// set (placed in context by UserAuth) contains every listed permission.
func RequirePermission(required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			held := map[string]struct{}{}
			for _, p := range Permissions(c) {
				held[p] = struct{}{}
			}
			for _, p := range required {
				if _, ok := held[p]; !ok {
					return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "Insufficient permissions"})
				}
			}
			return next(c)
		}
	}
}

// RequireScope enforces that a service token (placed in context by
// ServiceAuth) carries every listed scope.
func RequireScope(required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			held := map[string]struct{}{}
			if scopes, ok := c.Get(CtxScopes).([]string); ok {
				for _, s := range scopes {
					held[s] = struct{}{}
				}
			}
			for _, s := range required {
				if _, ok := held[s]; !ok {
					return c.JSON(http.StatusForbidden, echo.Map{"success": false, "message": "Insufficient scope"})
				}
			}
			return next(c)
		}
	}
}
