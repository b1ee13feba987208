package main

import (
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/food-delivery-platform/internal/config"
	"github.com/iliyamo/food-delivery-platform/internal/database"
	"github.com/iliyamo/food-delivery-platform/internal/handler"
	"github.com/iliyamo/food-delivery-platform/internal/logger"
	"github.com/iliyamo/food-delivery-platform/internal/queue"
	"github.com/iliyamo/food-delivery-platform/internal/repository"
	"github.com/iliyamo/food-delivery-platform/internal/router"
	"github.com/iliyamo/food-delivery-platform/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(os.Getenv("LOG_LEVEL"), cfg.Env)
	defer log.Sync()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	// Redis backs the rate limiter and the public response cache. Both
	// degrade to pass-through when the client is unavailable.
	rdb := config.NewRedisClient()
	rl := config.LoadRateLimitConfig()
	cache := config.LoadCacheConfig()

	brokerURL := os.Getenv("RABBITMQ_URL")
	if brokerURL == "" {
		brokerURL = os.Getenv("AMQP_URL")
	}
	events := service.NewPublisher(brokerURL, log)
	if events != nil {
		go queue.StartAuditConsumer(log)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	accounts := repository.NewServiceAccountRepo(db)
	items := repository.NewFoodItemRepo(db)
	blogs := repository.NewBlogRepo(db)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	router.Register(e, cfg, router.Handlers{
		Auth:            handler.NewAuthHandler(cfg, log, users, tokens, events),
		Users:           handler.NewUserHandler(cfg, log, users, tokens, events),
		ServiceAccounts: handler.NewServiceAccountHandler(cfg, log, accounts),
		FoodItems:       handler.NewFoodItemHandler(cfg, log, items, events),
		Blogs:           handler.NewBlogHandler(cfg, log, blogs),
	}, rdb, rl, cache)

	addr := ":" + cfg.Port
	log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
