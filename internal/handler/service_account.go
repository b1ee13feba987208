package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/food-delivery-platform/internal/auth"
	"github.com/iliyamo/food-delivery-platform/internal/config"
	"github.com/iliyamo/food-delivery-platform/internal/middleware"
	"github.com/iliyamo/food-delivery-platform/internal/repository"
	"github.com/iliyamo/food-delivery-platform/internal/utils"
)

// clientSecretBytes is the entropy of a client secret (64 hex chars).
const clientSecretBytes = 32

// secretRevealMessage accompanies every response that carries a plaintext
// client secret.
const secretRevealMessage = "Store the client secret securely, it will not be shown again"

// ServiceAccountHandler manages machine identities and mints
// service-to-service tokens from client credentials.
type ServiceAccountHandler struct {
	Cfg      config.Config
	Log      *zap.Logger
	Accounts *repository.ServiceAccountRepo
}

func NewServiceAccountHandler(cfg config.Config, log *zap.Logger, repo *repository.ServiceAccountRepo) *ServiceAccountHandler {
	return &ServiceAccountHandler{Cfg: cfg, Log: log, Accounts: repo}
}

// Create registers a service account. Scopes default from the service's
// scope table when omitted and are validated against it when supplied. The
// response is the only place (besides RegenerateSecret) where the plaintext
// secret appears.
func (h *ServiceAccountHandler) Create(c echo.Context) error {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		ServiceName string   `json:"serviceName"`
		Scopes      []string `json:"scopes"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.ServiceName = strings.TrimSpace(req.ServiceName)
	if req.Name == "" || req.ServiceName == "" {
		return fail(c, http.StatusBadRequest, "Please provide name and serviceName")
	}
	if !auth.KnownService(req.ServiceName) {
		return fail(c, http.StatusBadRequest, "Unknown service")
	}

	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = auth.DefaultScopesForService(req.ServiceName)
	} else if !auth.ValidateServiceScopes(req.ServiceName, scopes) {
		return fail(c, http.StatusBadRequest, "Invalid scopes provided")
	}

	secret, err := utils.RandomHex(clientSecretBytes)
	if err != nil {
		return serverError(c, h.Log, "generate secret failed", err, h.Cfg.IsProduction())
	}
	secretHash, err := utils.HashPassword(secret, h.Cfg.BcryptCost)
	if err != nil {
		return serverError(c, h.Log, "hash secret failed", err, h.Cfg.IsProduction())
	}

	account := &repository.ServiceAccount{
		Name:        req.Name,
		Description: req.Description,
		ServiceName: req.ServiceName,
		Scopes:      scopes,
		ClientID:    "sa_" + uuid.NewString(),
		SecretHash:  secretHash,
		Active:      true,
	}
	if uid, ok := middleware.UserID(c); ok {
		account.CreatedBy = &uid
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return fail(c, http.StatusConflict, "Service account with this name already exists")
		}
		return serverError(c, h.Log, "create service account failed", err, h.Cfg.IsProduction())
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data": echo.Map{
			"serviceAccount": account,
			"clientSecret":   secret,
			"message":        secretRevealMessage,
		},
	})
}

// List returns all service accounts, secrets excluded.
func (h *ServiceAccountHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	accounts, err := h.Accounts.List(ctx)
	if err != nil {
		return serverError(c, h.Log, "list service accounts failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(accounts), "data": accounts})
}

// Get returns one account, secret excluded.
func (h *ServiceAccountHandler) Get(c echo.Context) error {
	id, ok := parseIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	account, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrServiceAccountNotFound) {
			return fail(c, http.StatusNotFound, "Service account not found")
		}
		return serverError(c, h.Log, "get service account failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": account})
}

// Update applies a partial update. The service name is immutable, so scope
// changes are re-validated against the stored one.
func (h *ServiceAccountHandler) Update(c echo.Context) error {
	id, ok := parseIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}
	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Scopes      []string `json:"scopes"`
		Active      *bool    `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	account, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrServiceAccountNotFound) {
			return fail(c, http.StatusNotFound, "Service account not found")
		}
		return serverError(c, h.Log, "get service account failed", err, h.Cfg.IsProduction())
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		account.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	if req.Active != nil {
		account.Active = *req.Active
	}
	if req.Scopes != nil {
		if !auth.ValidateServiceScopes(account.ServiceName, req.Scopes) {
			return fail(c, http.StatusBadRequest, "Invalid scopes provided")
		}
		account.Scopes = req.Scopes
	}

	if err := h.Accounts.Update(ctx, account); err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return fail(c, http.StatusConflict, "Service account with this name already exists")
		}
		return serverError(c, h.Log, "update service account failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": account})
}

// RegenerateSecret replaces the client secret, invalidating the old one
// immediately, and reveals the new plaintext exactly once.
func (h *ServiceAccountHandler) RegenerateSecret(c echo.Context) error {
	id, ok := parseIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	account, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrServiceAccountNotFound) {
			return fail(c, http.StatusNotFound, "Service account not found")
		}
		return serverError(c, h.Log, "get service account failed", err, h.Cfg.IsProduction())
	}

	secret, err := utils.RandomHex(clientSecretBytes)
	if err != nil {
		return serverError(c, h.Log, "generate secret failed", err, h.Cfg.IsProduction())
	}
	secretHash, err := utils.HashPassword(secret, h.Cfg.BcryptCost)
	if err != nil {
		return serverError(c, h.Log, "hash secret failed", err, h.Cfg.IsProduction())
	}
	if err := h.Accounts.UpdateSecret(ctx, id, secretHash); err != nil {
		if errors.Is(err, repository.ErrServiceAccountNotFound) {
			return fail(c, http.StatusNotFound, "Service account not found")
		}
		return serverError(c, h.Log, "update secret failed", err, h.Cfg.IsProduction())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"clientId":     account.ClientID,
			"clientSecret": secret,
			"message":      secretRevealMessage,
		},
	})
}

// Delete removes the account permanently.
func (h *ServiceAccountHandler) Delete(c echo.Context) error {
	id, ok := parseIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrServiceAccountNotFound) {
			return fail(c, http.StatusNotFound, "Service account not found")
		}
		return serverError(c, h.Log, "delete service account failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{}})
}

// Token exchanges client credentials for a service-kind JWT. Unknown client
// ids, wrong secrets and disabled accounts all collapse into the same 401 so
// the endpoint does not leak which part failed.
func (h *ServiceAccountHandler) Token(c echo.Context) error {
	var req struct {
		ClientID     string `json:"clientId"`
		ClientSecret string `json:"clientSecret"`
	}
	if err := c.Bind(&req); err != nil || req.ClientID == "" || req.ClientSecret == "" {
		return fail(c, http.StatusBadRequest, "Please provide clientId and clientSecret")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	account, err := h.Accounts.GetByClientID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrServiceAccountNotFound) {
			return fail(c, http.StatusUnauthorized, "Invalid client credentials")
		}
		return serverError(c, h.Log, "get service account failed", err, h.Cfg.IsProduction())
	}
	if !account.Active || !utils.VerifyPassword(account.SecretHash, req.ClientSecret) {
		return fail(c, http.StatusUnauthorized, "Invalid client credentials")
	}

	token, exp, err := auth.IssueServiceToken(h.Cfg.JWTSecret,
		account.ID, account.ClientID, account.ServiceName, account.Scopes,
		time.Duration(h.Cfg.ServiceTokenTTLMin)*time.Minute)
	if err != nil {
		return serverError(c, h.Log, "issue service token failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"accessToken": token,
		"tokenType":   "Bearer",
		"expiresAt":   exp,
	})
}
