package websocket

import (
	"net/http"

	"storefront/internal/app/user"
	"storefront/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS authenticates with the same token as the REST API (usually passed
// as ?token=) and streams chat.message_created events until the peer leaves.
func (h *Hub) ServeWS(c *gin.Context) {
	token := middleware.ExtractToken(c)
	if token == "" {
		h.logger.Warnw("WebSocket connection rejected: token missing",
			"client_ip", c.ClientIP(),
			"user_agent", c.GetHeader("User-Agent"),
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is required"})
		return
	}

	claims, err := h.sessionSvc.Parse(token)
	if err != nil {
		h.logger.Warnw("WebSocket connection rejected: invalid token",
			"client_ip", c.ClientIP(),
			"error", err,
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is not valid"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("Failed to upgrade connection",
			"user_id", claims.UserID,
			"error", err,
		)
		return
	}

	client := newClient(h, conn, claims.UserID, claims.Role == string(user.RoleAdmin))
	h.serve(client, c.ClientIP())
}

func (h *Hub) serve(client *Client, clientIP string) {
	h.logger.Infow("WebSocket connection established",
		"client_id", client.ID,
		"user_id", client.UserID,
		"client_ip", clientIP,
	)

	select {
	case h.register <- client:
	case <-h.done:
		client.conn.Close()
		return
	}
	go client.writePump()

	// Inbound frames are ignored; reading only detects the close.
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			break
		}
	}
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
