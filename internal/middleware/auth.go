package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/app/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// TokenHeader is the legacy header the storefront SPA sends its token in.
	TokenHeader = "X-Auth-Token"
	callerKey   = "caller"

	roleAdmin = "admin"

	touchTimeout = 3 * time.Second
)

type Caller struct {
	UserID uint64
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.Role == roleAdmin
}

// ActivityToucher refreshes a user's last-active timestamp.
type ActivityToucher interface {
	TouchActivity(ctx context.Context, userID uint64) error
}

// AuthMiddleware resolves the caller from a bearer token and refreshes their
// last activity in the background. A failed refresh never fails the request.
func AuthMiddleware(sessionSvc session.Service, toucher ActivityToucher, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Sugar()
	return func(c *gin.Context) {
		caller, ok := authenticate(c, sessionSvc)
		if !ok {
			return
		}

		if toucher != nil {
			go func(userID uint64) {
				ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
				defer cancel()
				if err := toucher.TouchActivity(ctx, userID); err != nil {
					log.Warnw("Failed to refresh last activity", "user_id", userID, "error", err)
				}
			}(caller.UserID)
		}

		c.Next()
	}
}

// SessionMiddleware resolves the caller like AuthMiddleware but records no
// activity. Logout is served behind it so nothing can undo the offline mark.
func SessionMiddleware(sessionSvc session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c, sessionSvc); !ok {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, sessionSvc session.Service) (Caller, bool) {
	token := ExtractToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token, authorization denied"})
		return Caller{}, false
	}

	claims, err := sessionSvc.Parse(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is not valid"})
		return Caller{}, false
	}

	caller := Caller{UserID: claims.UserID, Role: claims.Role}
	c.Set(callerKey, caller)
	return caller, true
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok || !caller.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized"})
			return
		}
		c.Next()
	}
}

func CallerFrom(c *gin.Context) (Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return Caller{}, false
	}
	caller, ok := v.(Caller)
	return caller, ok
}

// ExtractToken reads "Authorization: Bearer <token>", then X-Auth-Token,
// then the token query parameter used by websocket clients.
func ExtractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if token := c.GetHeader(TokenHeader); token != "" {
		return token
	}
	return c.Query("token")
}
