package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/app/chat"
	"storefront/internal/app/health"
	"storefront/internal/app/session"
	"storefront/internal/app/user"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/gateways/websocket"
	"storefront/internal/middleware"
	"storefront/internal/providers/redis"
	"storefront/internal/router"
	"storefront/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// bodyOverhead is the JSON envelope allowed on top of the largest image and text.
const bodyOverhead = 64 * 1024

type Application struct {
	Router *router.Router
	DB     *gorm.DB
	Redis  *redis.RedisProvider
	Hub    *websocket.Hub
}

// Bootstrap wires every component. Background workers (event bus, websocket
// hub, redis monitor) run until ctx is cancelled.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Application, error) {
	dbConn, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbConn, logger); err != nil {
		return nil, err
	}

	redisProvider := redis.NewRedisProvider(ctx, cfg.RedisURL, logger, cfg.RedisTTL)
	eventBus := utils.NewEventBus(logger)
	go eventBus.Run(ctx)

	sessionService := session.NewService(cfg.JWTSecret, cfg.JWTTTL)

	userRepo := user.NewRepository(dbConn)
	userService := user.NewService(userRepo, sessionService, redisProvider, logger, user.Options{
		AdminName:         cfg.AdminName,
		AdminEmail:        cfg.AdminEmail,
		AdminPassword:     cfg.AdminPassword,
		AllowConsoleLogin: !cfg.IsProduction(),
		TouchInterval:     cfg.PresenceTouchInterval,
	})
	if _, err := userService.EnsureAdministrator(ctx); err != nil {
		return nil, err
	}

	messageRepo, err := newMessageRepository(cfg, dbConn, logger)
	if err != nil {
		return nil, err
	}
	// Cached histories may predate this store (always true for the memory store).
	if n, err := redisProvider.DelPattern(ctx, chat.CachePrefix+":*"); err != nil {
		logger.Warn("Failed to clear chat cache", zap.Error(err))
	} else if n > 0 {
		logger.Info("Cleared stale chat cache", zap.Int64("keys", n))
	}
	chatService := chat.NewService(messageRepo, userService, redisProvider, eventBus, logger, chat.Limits{
		MaxTextLength: cfg.MaxTextLength,
		MaxImageBytes: cfg.MaxImageBytes,
	}, cfg.ChatCacheTTL)

	hub := websocket.NewHub(logger, sessionService, eventBus)
	go hub.Run(ctx)

	auth := middleware.AuthMiddleware(sessionService, userService, logger)
	sessionOnly := middleware.SessionMiddleware(sessionService)

	healthHandler := health.NewHandler(health.NewService(utils.NewHealthChecker(dbConn, redisProvider.Client)))
	userHandler := user.NewHandler(userService, logger)
	chatHandler := chat.NewHandler(chatService, logger, int64(cfg.MaxImageBytes+cfg.MaxTextLength*4+bodyOverhead))

	r := router.NewRouter(logger, cfg.FrontendURL)

	r.RegisterHealthRoutes(healthHandler)
	r.RegisterWebSocketRoutes(hub)
	r.RegisterUserRoutes(userHandler, auth, sessionOnly)
	r.RegisterChatRoutes(chatHandler, auth)

	return &Application{
		Router: r,
		DB:     dbConn,
		Redis:  redisProvider,
		Hub:    hub,
	}, nil
}

func newMessageRepository(cfg *config.Config, dbConn *gorm.DB, logger *zap.Logger) (chat.Repository, error) {
	switch strings.ToLower(cfg.MessageStore) {
	case "", "postgres":
		return chat.NewRepository(dbConn), nil
	case "memory":
		logger.Warn("Using in-memory chat store; messages are lost on restart")
		return chat.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown MESSAGE_STORE %q", cfg.MessageStore)
	}
}

// Close releases connections held by the application.
func (a *Application) Close() error {
	var errs []error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.DB != nil {
		if err := db.Close(a.DB); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}
