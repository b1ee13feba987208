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
	"github.com/iliyamo/food-delivery-platform/internal/repository"
)

// BlogHandler serves the public blog listing and the authenticated blog
// CRUD. Admins may edit any post; other writers only their own.
type BlogHandler struct {
	Cfg   config.Config
	Log   *zap.Logger
	Blogs *repository.BlogRepo
}

func NewBlogHandler(cfg config.Config, log *zap.Logger, blogs *repository.BlogRepo) *BlogHandler {
	return &BlogHandler{Cfg: cfg, Log: log, Blogs: blogs}
}

type blogReq struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Author   string `json:"author"`
	ImageURL string `json:"imageUrl"`
}

// Create publishes a new blog post owned by the caller.
func (h *BlogHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	var req blogReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Content) == "" {
		return fail(c, http.StatusBadRequest, "Please provide title and content")
	}
	author := strings.TrimSpace(req.Author)
	if author == "" {
		author, _ = c.Get(middleware.CtxEmail).(string)
	}

	blog := &repository.Blog{
		Title:     req.Title,
		Content:   req.Content,
		Author:    author,
		ImageURL:  req.ImageURL,
		CreatedBy: uid,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Blogs.Create(ctx, blog); err != nil {
		return serverError(c, h.Log, "create blog failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": blog})
}

// List returns every post, newest first. Public; served through the cache.
func (h *BlogHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	blogs, err := h.Blogs.ListAll(ctx)
	if err != nil {
		return serverError(c, h.Log, "list blogs failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(blogs), "data": blogs})
}

// GetByID returns one post. Public.
func (h *BlogHandler) GetByID(c echo.Context) error {
	id, ok := parseIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	blog, err := h.Blogs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return fail(c, http.StatusNotFound, "Blog not found")
		}
		return serverError(c, h.Log, "get blog failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": blog})
}

// Update modifies a post. Admins bypass the ownership check.
func (h *BlogHandler) Update(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, okID := parseIDParam(c)
	if !okID {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}
	var req blogReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Content) == "" {
		return fail(c, http.StatusBadRequest, "Please provide title and content")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	blog := &repository.Blog{ID: id, Title: req.Title, Content: req.Content, ImageURL: req.ImageURL}
	if err := h.Blogs.Update(ctx, blog, uid, h.isAdmin(c)); err != nil {
		switch {
		case errors.Is(err, repository.ErrBlogNotFound):
			return fail(c, http.StatusNotFound, "Blog not found")
		case errors.Is(err, repository.ErrForbidden):
			return fail(c, http.StatusForbidden, "Not authorized to update this blog")
		}
		return serverError(c, h.Log, "update blog failed", err, h.Cfg.IsProduction())
	}
	updated, err := h.Blogs.GetByID(ctx, id)
	if err != nil {
		return serverError(c, h.Log, "load blog failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": updated})
}

// Delete removes a post. Admins bypass the ownership check.
func (h *BlogHandler) Delete(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, okID := parseIDParam(c)
	if !okID {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Blogs.Delete(ctx, id, uid, h.isAdmin(c)); err != nil {
		switch {
		case errors.Is(err, repository.ErrBlogNotFound):
			return fail(c, http.StatusNotFound, "Blog not found")
		case errors.Is(err, repository.ErrForbidden):
			return fail(c, http.StatusForbidden, "Not authorized to delete this blog")
		}
		return serverError(c, h.Log, "delete blog failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{}})
}

func (h *BlogHandler) isAdmin(c echo.Context) bool {
	role, _ := c.Get(middleware.CtxRole).(string)
	return role == auth.RoleAdmin
}
