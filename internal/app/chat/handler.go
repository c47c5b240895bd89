package chat

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler interface {
	ListMine(c *gin.Context)
	Send(c *gin.Context)
	ListAll(c *gin.Context)
	ListConversations(c *gin.Context)
}

type handler struct {
	service      Service
	logger       *zap.SugaredLogger
	maxBodyBytes int64
}

// NewHandler builds the chat HTTP handler. maxBodyBytes caps POST bodies and
// should leave room for the largest allowed image.
func NewHandler(service Service, logger *zap.Logger, maxBodyBytes int64) Handler {
	return &handler{
		service:      service,
		logger:       logger.Sugar(),
		maxBodyBytes: maxBodyBytes,
	}
}

// @Summary List the caller's chat messages
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Message
// @Failure 401 {object} ErrorResponse
// @Router /api/chat [get]
func (h *handler) ListMine(c *gin.Context) {
	caller, _ := middleware.CallerFrom(c)

	messages, err := h.service.ListMyMessages(c.Request.Context(), caller.UserID)
	if err != nil {
		h.respondError(c, "ListMine", err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// @Summary Send a chat message
// @Description Customers post to their own conversation; admins must set targetUserId.
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SendRequest true "Message"
// @Success 201 {object} Message
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/chat [post]
func (h *handler) Send(c *gin.Context) {
	caller, _ := middleware.CallerFrom(c)

	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "message too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Sender == string(SenderAdmin) && !caller.IsAdmin() {
		h.logger.Warnw("Send: client claimed admin sender, ignoring",
			"user_id", caller.UserID,
			"request_id", middleware.RequestID(c),
		)
	}

	msg, err := h.service.Send(c.Request.Context(), caller.UserID, caller.IsAdmin(), uint64(req.TargetUserID), req.Content())
	if err != nil {
		h.respondError(c, "Send", err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// @Summary List every chat message with its owner
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} MessageWithUser
// @Failure 401 {object} ErrorResponse
// @Router /api/chat/admin/all [get]
func (h *handler) ListAll(c *gin.Context) {
	caller, _ := middleware.CallerFrom(c)

	messages, err := h.service.ListAllForAdmin(c.Request.Context(), caller.IsAdmin())
	if err != nil {
		h.respondError(c, "ListAll", err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// @Summary List support conversations, most recent first
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param q query string false "Filter by owner name or email"
// @Success 200 {array} Conversation
// @Failure 401 {object} ErrorResponse
// @Router /api/chat/admin/conversations [get]
func (h *handler) ListConversations(c *gin.Context) {
	caller, _ := middleware.CallerFrom(c)

	convs, err := h.service.Conversations(c.Request.Context(), caller.IsAdmin(), c.Query("q"))
	if err != nil {
		h.respondError(c, "ListConversations", err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (h *handler) respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAuthorization):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.logger.Errorw(op+": failed", "request_id", middleware.RequestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
