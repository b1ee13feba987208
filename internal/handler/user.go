package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/food-delivery-platform/internal/auth"
	"github.com/iliyamo/food-delivery-platform/internal/config"
	"github.com/iliyamo/food-delivery-platform/internal/queue"
	"github.com/iliyamo/food-delivery-platform/internal/repository"
	"github.com/iliyamo/food-delivery-platform/internal/service"
)

// UserHandler serves the admin user-management endpoints plus the internal
// service-to-service user lookup.
type UserHandler struct {
	Cfg    config.Config
	Log    *zap.Logger
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Events *service.Publisher
}

func NewUserHandler(cfg config.Config, log *zap.Logger, u *repository.UserRepo, t *repository.TokenRepo, ev *service.Publisher) *UserHandler {
	return &UserHandler{Cfg: cfg, Log: log, Users: u, Tokens: t, Events: ev}
}

// GetUsers returns every user.
func (h *UserHandler) GetUsers(c echo.Context) error {
	return h.listUsers(c, "")
}

// GetRestaurantAdmins returns users with the restaurant-admin role.
func (h *UserHandler) GetRestaurantAdmins(c echo.Context) error {
	return h.listUsers(c, auth.RoleRestaurantAdmin)
}

// GetDeliveryPersonnel returns users with the delivery-personnel role.
func (h *UserHandler) GetDeliveryPersonnel(c echo.Context) error {
	return h.listUsers(c, auth.RoleDeliveryPersonnel)
}

func (h *UserHandler) listUsers(c echo.Context, role string) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		users []*repository.User
		err   error
	)
	if role == "" {
		users, err = h.Users.ListAll(ctx)
	} else {
		users, err = h.Users.ListByRole(ctx, role)
	}
	if err != nil {
		return serverError(c, h.Log, "list users failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(users), "data": users})
}

// GetUserByID returns a single user record.
func (h *UserHandler) GetUserByID(c echo.Context) error {
	id, ok := parseIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return serverError(c, h.Log, "get user failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": u})
}

// UpdateUserPermissions replaces a user's custom permission set. Every value
// must belong to the enumerated permission registry; invalid values are
// named in the 400 response.
func (h *UserHandler) UpdateUserPermissions(c echo.Context) error {
	id, ok := parseIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}
	var req struct {
		CustomPermissions []string `json:"customPermissions"`
	}
	if err := c.Bind(&req); err != nil || req.CustomPermissions == nil {
		return fail(c, http.StatusBadRequest, "Please provide an array of custom permissions")
	}

	var invalid []string
	for _, p := range req.CustomPermissions {
		if !auth.ValidPermission(p) {
			invalid = append(invalid, p)
		}
	}
	if len(invalid) > 0 {
		return fail(c, http.StatusBadRequest,
			fmt.Sprintf("Invalid permissions provided: %s", strings.Join(invalid, ", ")))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateCustomPermissions(ctx, id, req.CustomPermissions); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return serverError(c, h.Log, "update permissions failed", err, h.Cfg.IsProduction())
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return serverError(c, h.Log, "load user failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": u})
}

// SetUserActiveStatus enables or disables an account. Disabling revokes
// every refresh token so the change takes effect at the next access-token
// expiry at the latest.
func (h *UserHandler) SetUserActiveStatus(c echo.Context) error {
	id, ok := parseIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return fail(c, http.StatusBadRequest, "Active status must be a boolean")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetActive(ctx, id, *req.Active); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return serverError(c, h.Log, "set active failed", err, h.Cfg.IsProduction())
	}
	if !*req.Active {
		count, err := h.Tokens.RevokeAllForUser(ctx, id)
		if err != nil {
			return serverError(c, h.Log, "revoke tokens failed", err, h.Cfg.IsProduction())
		}
		_ = h.Events.Publish(ctx, queue.KindSessionRevoked, queue.SessionRevokedEvent{
			UserID: id, Count: count, Reason: "deactivated",
		})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return serverError(c, h.Log, "load user failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": u})
}

// GetUserForService is the internal lookup used by other platform services
// holding a service token with the read:users scope. It returns a reduced
// summary, never the full record.
func (h *UserHandler) GetUserForService(c echo.Context) error {
	id, ok := parseIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return serverError(c, h.Log, "get user failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"id":        u.ID,
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"userType":  u.Role,
		"active":    u.IsActive,
	}})
}
