package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/food-delivery-platform/internal/auth"
)

func runWithContext(t *testing.T, mw echo.MiddlewareFunc, seed func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if seed != nil {
		seed(c)
	}
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, handler(c))
	return rec
}

func TestRequirePermission(t *testing.T) {
	rec := runWithContext(t, RequirePermission(auth.PermWriteMenu), func(c echo.Context) {
		c.Set(CtxPermissions, []string{auth.PermReadMenu, auth.PermWriteMenu})
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runWithContext(t, RequirePermission(auth.PermManageServices), func(c echo.Context) {
		c.Set(CtxPermissions, []string{auth.PermReadMenu})
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient permissions")

	// No permission set in context at all.
	rec = runWithContext(t, RequirePermission(auth.PermReadMenu), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePermissionAll(t *testing.T) {
	rec := runWithContext(t, RequirePermission(auth.PermReadMenu, auth.PermWriteMenu), func(c echo.Context) {
		c.Set(CtxPermissions, []string{auth.PermReadMenu})
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireScope(t *testing.T) {
	rec := runWithContext(t, RequireScope(auth.PermReadUsers), func(c echo.Context) {
		c.Set(CtxScopes, []string{auth.PermReadUsers})
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runWithContext(t, RequireScope(auth.PermReadUsers), func(c echo.Context) {
		c.Set(CtxScopes, []string{auth.PermReadOrders})
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient scope")
}

func TestRequireRole(t *testing.T) {
	rec := runWithContext(t, RequireRole(auth.RoleAdmin, auth.RoleRestaurantAdmin), func(c echo.Context) {
		c.Set(CtxRole, auth.RoleRestaurantAdmin)
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runWithContext(t, RequireRole(auth.RoleAdmin), func(c echo.Context) {
		c.Set(CtxRole, auth.RoleCustomer)
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = runWithContext(t, RequireRole(auth.RoleAdmin), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
