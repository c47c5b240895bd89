package router

import (
	"storefront/internal/app/chat"
	"storefront/internal/app/health"
	"storefront/internal/app/user"
	"storefront/internal/gateways/websocket"
	"storefront/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(logger *zap.Logger, frontendURL string) *Router {
	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.CORSMiddleware(frontendURL))
	engine.Use(middleware.LoggerMiddleware(logger))
	engine.Use(gin.Recovery())
	return &Router{Engine: engine}
}

func (r *Router) RegisterHealthRoutes(handler health.Handler) {
	health.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterWebSocketRoutes(hub *websocket.Hub) {
	websocket.RegisterRoutes(r.Engine, hub)
}

func (r *Router) RegisterUserRoutes(handler user.Handler, auth, session gin.HandlerFunc) {
	user.RegisterRoutes(r.Engine.Group("/api"), handler, auth, session, middleware.RequireAdmin())
}

func (r *Router) RegisterChatRoutes(handler chat.Handler, auth gin.HandlerFunc) {
	chat.RegisterRoutes(r.Engine.Group("/api"), handler, auth)
}
