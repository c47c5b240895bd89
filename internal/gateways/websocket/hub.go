package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"storefront/internal/app/chat"
	"storefront/internal/app/session"
	"storefront/internal/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBufferSize = 16
	writeTimeout   = 10 * time.Second
)

type ClientConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Client struct {
	hub    *Hub
	conn   ClientConn
	send   chan []byte
	ID     string
	UserID uint64
	Admin  bool
}

func newClient(hub *Hub, conn ClientConn, userID uint64, admin bool) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		ID:     uuid.NewString(),
		UserID: userID,
		Admin:  admin,
	}
}

// wants reports whether the client should see a message in the given
// conversation: its owner and every admin do.
func (c *Client) wants(conversationUserID uint64) bool {
	return c.Admin || c.UserID == conversationUserID
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.hub.logger.Debugw("WebSocket write failed", "client_id", c.ID, "error", err)
			return
		}
	}
}

// Hub pushes new chat messages to connected clients. Delivery is best effort:
// a client whose buffer is full is disconnected and falls back to polling.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliver    chan chat.Message
	done       chan struct{}
	connected  atomic.Int64
	sessionSvc session.Service
	logger     *zap.SugaredLogger
}

func NewHub(logger *zap.Logger, sessionSvc session.Service, eventBus *utils.EventBus) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan chat.Message, 256),
		done:       make(chan struct{}),
		sessionSvc: sessionSvc,
		logger:     logger.Sugar(),
	}
	if eventBus != nil {
		eventBus.Subscribe(utils.EventChatMessageCreated, h.onMessageCreated)
	}
	return h
}

func (h *Hub) onMessageCreated(e utils.Event) {
	msg, ok := e.Data.(chat.Message)
	if !ok {
		h.logger.Warnw("Unexpected chat event payload", "event", e.Event)
		return
	}
	select {
	case h.deliver <- msg:
	default:
		h.logger.Warnw("WebSocket delivery queue full, dropping message", "message_id", msg.ID)
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket Hub started")

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				h.drop(client)
			}
			h.logger.Info("WebSocket Hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.connected.Store(int64(len(h.clients)))
			h.logger.Infow("Client connected",
				"client_id", client.ID,
				"user_id", client.UserID,
				"admin", client.Admin,
				"clients_count", len(h.clients),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Infow("Client disconnected",
					"client_id", client.ID,
					"clients_count", len(h.clients),
				)
			}

		case msg := <-h.deliver:
			h.broadcast(msg)
		}
	}
}

func (h *Hub) broadcast(msg chat.Message) {
	payload, err := json.Marshal(utils.Event{Event: utils.EventChatMessageCreated, Data: msg})
	if err != nil {
		h.logger.Errorw("Failed to encode chat event", "message_id", msg.ID, "error", err)
		return
	}

	delivered := 0
	for client := range h.clients {
		if !client.wants(msg.UserID) {
			continue
		}
		select {
		case client.send <- payload:
			delivered++
		default:
			h.logger.Warnw("Slow WebSocket client dropped", "client_id", client.ID, "user_id", client.UserID)
			h.drop(client)
		}
	}

	h.logger.Debugw("Chat message pushed", "message_id", msg.ID, "user_id", msg.UserID, "clients", delivered)
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.connected.Store(int64(len(h.clients)))
}

// ClientCount is the number of registered connections.
func (h *Hub) ClientCount() int {
	return int(h.connected.Load())
}
