package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/food-delivery-platform/internal/auth"
)

// Context keys populated by the auth middleware.
const (
	CtxUserID      = "user_id"
	CtxEmail       = "email"
	CtxRole        = "role"
	CtxPermissions = "permissions"

	CtxServiceID   = "service_id"
	CtxClientID    = "client_id"
	CtxServiceName = "service_name"
	CtxScopes      = "scopes"
)

// UserAuth validates a user-kind access token taken from the Authorization
// header or the accessToken cookie and injects the identity claims into the
// request context. Service tokens are rejected here: an endpoint expecting a
// person must not accept a machine credential.
func UserAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerOrCookie(c, "accessToken")
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Not authorized, no token"})
			}
			claims, err := auth.VerifyUserToken(secret, raw)
			if err != nil {
				if err == auth.ErrTokenExpired {
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Not authorized, token failed"})
			}
			c.Set(CtxUserID, claims.ID)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxRole, claims.UserType)
			c.Set(CtxPermissions, claims.Permissions)
			return next(c)
		}
	}
}

// ServiceAuth validates a service-kind token from the Authorization header
// and injects the service identity. User tokens are rejected symmetrically
// to UserAuth.
func ServiceAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Not authorized, no token"})
			}
			claims, err := auth.VerifyServiceToken(secret, raw)
			if err != nil {
				if err == auth.ErrTokenExpired {
					return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Not authorized, token failed"})
			}
			c.Set(CtxServiceID, claims.ServiceID)
			c.Set(CtxClientID, claims.ClientID)
			c.Set(CtxServiceName, claims.ServiceName)
			c.Set(CtxScopes, claims.Scopes)
			return next(c)
		}
	}
}

// bearerToken returns the raw token from an "Authorization: Bearer ..."
// header, or "".
func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// bearerOrCookie prefers the Authorization header and falls back to the
// named HttpOnly cookie set at login.
func bearerOrCookie(c echo.Context, cookieName string) string {
	if raw := bearerToken(c); raw != "" {
		return raw
	}
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}

// UserID extracts the authenticated user's id stored by UserAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok
}

// Permissions extracts the merged permission set stored by UserAuth.
func Permissions(c echo.Context) []string {
	perms, _ := c.Get(CtxPermissions).([]string)
	return perms
}
