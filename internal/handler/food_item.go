package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/food-delivery-platform/internal/config"
	"github.com/iliyamo/food-delivery-platform/internal/middleware"
	"github.com/iliyamo/food-delivery-platform/internal/queue"
	"github.com/iliyamo/food-delivery-platform/internal/repository"
	"github.com/iliyamo/food-delivery-platform/internal/service"
)

// FoodItemHandler serves menu CRUD for restaurant admins and the public
// menu listing.
type FoodItemHandler struct {
	Cfg    config.Config
	Log    *zap.Logger
	Items  *repository.FoodItemRepo
	Events *service.Publisher
}

func NewFoodItemHandler(cfg config.Config, log *zap.Logger, items *repository.FoodItemRepo, ev *service.Publisher) *FoodItemHandler {
	return &FoodItemHandler{Cfg: cfg, Log: log, Items: items, Events: ev}
}

type foodItemReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"`
}

// Create adds a menu item owned by the authenticated restaurant admin.
func (h *FoodItemHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	var req foodItemReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	if req.Title == "" || req.Category == "" {
		return fail(c, http.StatusBadRequest, "Please provide title and category")
	}

	item := &repository.FoodItem{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		CreatedBy:   uid,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Items.Create(ctx, item); err != nil {
		return serverError(c, h.Log, "create food item failed", err, h.Cfg.IsProduction())
	}
	_ = h.Events.Publish(ctx, queue.KindFoodItemChanged, queue.FoodItemChangedEvent{
		ItemID: item.ID, Title: item.Title, Action: "created", ActorID: uid,
	})
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": item})
}

// List returns the items created by the authenticated restaurant admin.
func (h *FoodItemHandler) List(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Items.ListByCreator(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "list food items failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(items), "data": items})
}

// GetByID returns one item. Reads are not ownership-scoped.
func (h *FoodItemHandler) GetByID(c echo.Context) error {
	id, ok := parseIDParam(c)
	if !ok {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	item, err := h.Items.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrFoodItemNotFound) {
			return fail(c, http.StatusNotFound, "Food item not found")
		}
		return serverError(c, h.Log, "get food item failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": item})
}

// Update modifies an item owned by the caller. A foreign item yields 403,
// distinct from the 404 of a missing one.
func (h *FoodItemHandler) Update(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	id, okID := parseIDParam(c)
	if !okID {
		return fail(c, http.StatusBadRequest, "Invalid ID format")
	}
	var req foodItemReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	if req.Title == "" || req.Category == "" {
		return fail(c, http.StatusBadRequest, "Please provide title and category")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	item := &repository.FoodItem{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}
	if err := h.Items.Update(ctx, item, uid); err != nil {
		switch {
		case errors.Is(err, repository.ErrFoodItemNotFound):
			return fail(c, http.StatusNotFound, "Food item not found")
		case errors.Is(err, repository.ErrForbidden):
			return fail(c, http.StatusForbidden, "Not authorized to update this food item")
		}
		return serverError(c, h.Log, "update food item failed", err, h.Cfg.IsProduction())
	}
	updated, err := h.Items.GetByID(ctx, id)
	if err != nil {
		return serverError(c, h.Log, "load food item failed", err, h.Cfg.IsProduction())
	}
	_ = h.Events.Publish(ctx, queue.KindFoodItemChanged, queue.FoodItemChangedEvent{
		ItemID: id, Title: updated.Title, Action: "updated", ActorID: uid,
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": updated})
}

// Delete removes an item owned by the caller.
func (h *FoodItemHandler) Delete(c echo.Context) error {
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

	if err := h.Items.Delete(ctx, id, uid); err != nil {
		switch {
		case errors.Is(err, repository.ErrFoodItemNotFound):
			return fail(c, http.StatusNotFound, "Food item not found")
		case errors.Is(err, repository.ErrForbidden):
			return fail(c, http.StatusForbidden, "Not authorized to delete this food item")
		}
		return serverError(c, h.Log, "delete food item failed", err, h.Cfg.IsProduction())
	}
	_ = h.Events.Publish(ctx, queue.KindFoodItemChanged, queue.FoodItemChangedEvent{
		ItemID: id, Action: "deleted", ActorID: uid,
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{}})
}

// PublicList returns the whole menu for guests. Responses are served
// through the Redis cache middleware.
func (h *FoodItemHandler) PublicList(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Items.ListAll(ctx)
	if err != nil {
		return serverError(c, h.Log, "list food items failed", err, h.Cfg.IsProduction())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": len(items), "data": items})
}
