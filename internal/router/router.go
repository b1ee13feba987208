// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/food-delivery-platform/internal/auth"
	"github.com/iliyamo/food-delivery-platform/internal/config"
	"github.com/iliyamo/food-delivery-platform/internal/handler"
	"github.com/iliyamo/food-delivery-platform/internal/middleware"
)

// Handlers bundles every handler the route table needs.
type Handlers struct {
	Auth            *handler.AuthHandler
	Users           *handler.UserHandler
	ServiceAccounts *handler.ServiceAccountHandler
	FoodItems       *handler.FoodItemHandler
	Blogs           *handler.BlogHandler
}

// Register wires the full route table onto e. The rate limiter guards the
// credential endpoints and the response cache fronts the public listings;
// either may be disabled through config, in which case the middleware is a
// pass-through.
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client, rl config.RateLimitConfig, cache config.CacheConfig) {
	e.GET("/healthz", handler.Health)

	// Session lifecycle. Register, login and the two refresh variants are
	// unauthenticated; logout accepts either a bearer token or a refresh
	// token in the body.
	authGroup := e.Group("/api/auth", middleware.RateLimit(rl, rdb))
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/refresh-access", h.Auth.RefreshAccess)
	authGroup.POST("/logout", h.Auth.Logout)
	e.GET("/api/auth/me", h.Auth.Me, middleware.UserAuth(cfg.JWTSecret))

	// User administration.
	users := e.Group("/api/users", middleware.UserAuth(cfg.JWTSecret), middleware.RequireRole(auth.RoleAdmin))
	users.GET("", h.Users.GetUsers)
	users.GET("/restaurant-admins", h.Users.GetRestaurantAdmins)
	users.GET("/delivery-personnel", h.Users.GetDeliveryPersonnel)
	users.GET("/:id", h.Users.GetUserByID)
	users.PUT("/:id/permissions", h.Users.UpdateUserPermissions, middleware.RequirePermission(auth.PermManagePermissions))
	users.PUT("/:id/active", h.Users.SetUserActiveStatus)

	// Service account administration plus the unauthenticated token mint.
	sa := e.Group("/api/service-accounts",
		middleware.UserAuth(cfg.JWTSecret),
		middleware.RequireRole(auth.RoleAdmin),
		middleware.RequirePermission(auth.PermManageServices))
	sa.POST("", h.ServiceAccounts.Create)
	sa.GET("", h.ServiceAccounts.List)
	sa.GET("/:id", h.ServiceAccounts.Get)
	sa.PUT("/:id", h.ServiceAccounts.Update)
	sa.POST("/:id/regenerate-secret", h.ServiceAccounts.RegenerateSecret)
	sa.DELETE("/:id", h.ServiceAccounts.Delete)
	e.POST("/api/service-accounts/token", h.ServiceAccounts.Token, middleware.RateLimit(rl, rdb))

	// Food item management for restaurant staff.
	items := e.Group("/api/food-items",
		middleware.UserAuth(cfg.JWTSecret),
		middleware.RequireRole(auth.RoleRestaurantAdmin, auth.RoleAdmin))
	items.POST("", h.FoodItems.Create)
	items.GET("", h.FoodItems.List)
	items.GET("/:id", h.FoodItems.GetByID)
	items.PUT("/:id", h.FoodItems.Update)
	items.DELETE("/:id", h.FoodItems.Delete)

	// Blog management. Reads are public below; writes need the blog permission.
	blogs := e.Group("/api/blogs",
		middleware.UserAuth(cfg.JWTSecret),
		middleware.RequirePermission(auth.PermWriteBlogs))
	blogs.POST("", h.Blogs.Create)
	blogs.PUT("/:id", h.Blogs.Update)
	blogs.DELETE("/:id", h.Blogs.Delete)

	// Public read-only listings served through the Redis response cache.
	public := e.Group("/api/public", middleware.CacheResponse(cache, rdb))
	public.GET("/food-items", h.FoodItems.PublicList)
	public.GET("/blogs", h.Blogs.List)
	public.GET("/blogs/:id", h.Blogs.GetByID)

	// Service-to-service lookups, authenticated by service tokens.
	internal := e.Group("/api/internal", middleware.ServiceAuth(cfg.JWTSecret))
	internal.GET("/users/:id", h.Users.GetUserForService, middleware.RequireScope(auth.PermReadUsers))
}
