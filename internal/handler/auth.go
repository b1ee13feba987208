package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/food-delivery-platform/internal/auth"
	"github.com/iliyamo/food-delivery-platform/internal/config"
	"github.com/iliyamo/food-delivery-platform/internal/middleware"
	"github.com/iliyamo/food-delivery-platform/internal/queue"
	"github.com/iliyamo/food-delivery-platform/internal/repository"
	"github.com/iliyamo/food-delivery-platform/internal/service"
	"github.com/iliyamo/food-delivery-platform/internal/utils"
)

// refreshCookiePath restricts the refreshToken cookie to the one endpoint
// that may consume it.
const refreshCookiePath = "/api/auth/refresh"

// AuthHandler bundles dependencies for the session endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Log    *zap.Logger
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Events *service.Publisher
}

func NewAuthHandler(cfg config.Config, log *zap.Logger, u *repository.UserRepo, t *repository.TokenRepo, ev *service.Publisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Log: log, Users: u, Tokens: t, Events: ev}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	UserType  string `json:"userType"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type userSummary struct {
	ID          uint64   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	UserType    string   `json:"userType"`
	Permissions []string `json:"permissions"`
}

// Register creates a user and issues a session immediately. Publicly only
// customer, restaurant-admin and delivery-personnel accounts can be created;
// admin accounts are provisioned out of band.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return fail(c, http.StatusBadRequest, "Please provide email, password, firstName and lastName")
	}
	role := strings.TrimSpace(req.UserType)
	switch role {
	case auth.RoleCustomer, auth.RoleRestaurantAdmin, auth.RoleDeliveryPersonnel:
	case "":
		role = auth.RoleCustomer
	default:
		return fail(c, http.StatusBadRequest, "Invalid userType")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, req.FirstName, req.LastName, role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "Email already exists")
		}
		return serverError(c, h.Log, "create user failed", err, h.Cfg.IsProduction())
	}

	_ = h.Events.Publish(ctx, queue.KindUserRegistered, queue.UserRegisteredEvent{
		UserID: uid, Email: req.Email, UserType: role,
	})

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "load user failed", err, h.Cfg.IsProduction())
	}
	return h.issueSession(c, u, http.StatusCreated)
}

// Login verifies credentials and issues a fresh session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Please provide email and password")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusUnauthorized, "Invalid credentials")
		}
		return serverError(c, h.Log, "query user failed", err, h.Cfg.IsProduction())
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "Account is disabled")
	}
	return h.issueSession(c, u, http.StatusOK)
}

// Refresh rotates the refresh token: the presented token is consumed
// atomically and a full new session is issued. When two requests race on the
// same token, the store guarantees at most one wins; the loser receives 401
// and must re-authenticate.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := h.refreshTokenFrom(c)
	if raw == "" {
		return fail(c, http.StatusBadRequest, "refreshToken required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.Consume(ctx, raw)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return fail(c, http.StatusUnauthorized, "Invalid refresh token")
		}
		return serverError(c, h.Log, "consume refresh failed", err, h.Cfg.IsProduction())
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return serverError(c, h.Log, "load user failed", err, h.Cfg.IsProduction())
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "Account is disabled")
	}
	return h.issueSession(c, u, http.StatusOK)
}

// RefreshAccess issues a new access token from a valid refresh token without
// rotating it. Useful for front ends that only need to extend the short
// token while keeping the long session untouched.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	raw := h.refreshTokenFrom(c)
	if raw == "" {
		return fail(c, http.StatusBadRequest, "refreshToken required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.FindValid(ctx, raw)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return fail(c, http.StatusUnauthorized, "Invalid refresh token")
		}
		return serverError(c, h.Log, "validate refresh failed", err, h.Cfg.IsProduction())
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusUnauthorized, "Invalid refresh token")
		}
		return serverError(c, h.Log, "load user failed", err, h.Cfg.IsProduction())
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "Account is disabled")
	}

	merged := auth.MergePermissions(u.Role, u.CustomPermissions)
	access, exp, err := auth.IssueUserToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, merged,
		time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
	if err != nil {
		return serverError(c, h.Log, "issue access failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"accessToken": access,
		"expiresAt":   exp,
	})
}

// Logout revokes either the specific refresh token from the body/cookie, or,
// when only a valid bearer token is supplied, every session of that user
// ("log out everywhere").
func (h *AuthHandler) Logout(c echo.Context) error {
	var uid uint64
	hasBearer := false
	if authHeader := c.Request().Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		rawToken := strings.TrimPrefix(authHeader, "Bearer ")
		if claims, err := auth.VerifyUserToken(h.Cfg.JWTSecret, rawToken); err == nil {
			uid = claims.ID
			hasBearer = true
		}
	}

	raw := h.refreshTokenFrom(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	clearSessionCookies(c, h.Cfg.IsProduction())

	if hasBearer && raw == "" {
		count, err := h.Tokens.RevokeAllForUser(ctx, uid)
		if err != nil {
			return serverError(c, h.Log, "revoke all failed", err, h.Cfg.IsProduction())
		}
		_ = h.Events.Publish(ctx, queue.KindSessionRevoked, queue.SessionRevokedEvent{
			UserID: uid, Count: count, Reason: "logout-all",
		})
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Logged out everywhere"})
	}

	if raw != "" {
		if _, err := h.Tokens.FindValid(ctx, raw); err != nil {
			if errors.Is(err, repository.ErrTokenInvalid) {
				return fail(c, http.StatusUnauthorized, "Invalid refresh token")
			}
			return serverError(c, h.Log, "validate refresh failed", err, h.Cfg.IsProduction())
		}
		if err := h.Tokens.Revoke(ctx, raw); err != nil {
			return serverError(c, h.Log, "revoke failed", err, h.Cfg.IsProduction())
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Logged out"})
	}

	return fail(c, http.StatusBadRequest, "Provide Authorization header or refreshToken")
}

// Me returns the authenticated identity as seen by the middleware, plus the
// access token's expiry decoded without verification (display only).
func (h *AuthHandler) Me(c echo.Context) error {
	resp := echo.Map{
		"success": true,
		"user": echo.Map{
			"id":          c.Get(middleware.CtxUserID),
			"email":       c.Get(middleware.CtxEmail),
			"userType":    c.Get(middleware.CtxRole),
			"permissions": c.Get(middleware.CtxPermissions),
		},
	}
	if raw := rawAccessToken(c); raw != "" {
		if exp := auth.PeekExpiry(raw); exp != nil {
			resp["tokenExpiresAt"] = exp
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// issueSession is the session issuer: it merges permissions, mints the
// access token, persists a refresh token and writes both cookies plus the
// response body. No cookie is written until both tokens exist, so a failure
// can never leave the client with half a session.
func (h *AuthHandler) issueSession(c echo.Context, u *repository.User, status int) error {
	merged := auth.MergePermissions(u.Role, u.CustomPermissions)

	access, _, err := auth.IssueUserToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, merged,
		time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
	if err != nil {
		return serverError(c, h.Log, "issue access failed", err, h.Cfg.IsProduction())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	refresh, err := h.Tokens.Generate(ctx, u.ID,
		c.Request().UserAgent(), c.RealIP(),
		time.Duration(h.Cfg.RefreshTTLDays)*24*time.Hour)
	if err != nil {
		return serverError(c, h.Log, "save refresh failed", err, h.Cfg.IsProduction())
	}

	secure := h.Cfg.IsProduction()
	c.SetCookie(&http.Cookie{
		Name:     "accessToken",
		Value:    access,
		Expires:  time.Now().UTC().Add(time.Duration(h.Cfg.CookieTTLHours) * time.Hour),
		HttpOnly: true,
		Secure:   secure,
		Path:     "/",
	})
	c.SetCookie(&http.Cookie{
		Name:     "refreshToken",
		Value:    refresh.Raw,
		Expires:  refresh.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		Path:     refreshCookiePath,
	})

	return c.JSON(status, echo.Map{
		"success":      true,
		"accessToken":  access,
		"refreshToken": refresh.Raw,
		"user": userSummary{
			ID:          u.ID,
			Email:       u.Email,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			UserType:    u.Role,
			Permissions: merged,
		},
	})
}

// refreshTokenFrom reads the refresh token from the JSON body first and the
// path-restricted cookie second.
func (h *AuthHandler) refreshTokenFrom(c echo.Context) string {
	var req refreshReq
	_ = c.Bind(&req)
	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		return raw
	}
	if ck, err := c.Cookie("refreshToken"); err == nil {
		return strings.TrimSpace(ck.Value)
	}
	return ""
}

// rawAccessToken re-extracts the bearer/cookie token for display purposes.
func rawAccessToken(c echo.Context) string {
	if hdr := c.Request().Header.Get("Authorization"); strings.HasPrefix(hdr, "Bearer ") {
		return strings.TrimPrefix(hdr, "Bearer ")
	}
	if ck, err := c.Cookie("accessToken"); err == nil {
		return ck.Value
	}
	return ""
}

// clearSessionCookies expires both session cookies on the client.
func clearSessionCookies(c echo.Context, secure bool) {
	expired := time.Unix(0, 0)
	c.SetCookie(&http.Cookie{Name: "accessToken", Value: "", Expires: expired, HttpOnly: true, Secure: secure, Path: "/"})
	c.SetCookie(&http.Cookie{Name: "refreshToken", Value: "", Expires: expired, HttpOnly: true, Secure: secure, Path: refreshCookiePath})
}
