package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"storefront/internal/app/user"
	"storefront/internal/providers/redis"
	"storefront/internal/utils"

	"go.uber.org/zap"
)

// CachePrefix namespaces cached conversation histories in redis.
const CachePrefix = "chat:conversation"

// Directory resolves conversation owners. Implemented by user.Service.
type Directory interface {
	FindProfiles(ctx context.Context, ids []uint64) ([]user.Profile, error)
	Exists(ctx context.Context, userID uint64) (bool, error)
	AdministratorID() uint64
}

type Limits struct {
	MaxTextLength int
	MaxImageBytes int
}

type Service interface {
	ListMyMessages(ctx context.Context, callerID uint64) ([]Message, error)
	SendAsUser(ctx context.Context, callerID uint64, content Content) (*Message, error)
	SendAsAdmin(ctx context.Context, callerIsAdmin bool, targetUserID uint64, content Content) (*Message, error)
	Send(ctx context.Context, callerID uint64, callerIsAdmin bool, targetUserID uint64, content Content) (*Message, error)
	ListAllForAdmin(ctx context.Context, callerIsAdmin bool) ([]MessageWithUser, error)
	Conversations(ctx context.Context, callerIsAdmin bool, query string) ([]Conversation, error)
}

type service struct {
	repo        Repository
	directory   Directory
	redisP      *redis.RedisProvider
	eventBus    *utils.EventBus
	logger      *zap.SugaredLogger
	limits      Limits
	cachePrefix string
	cacheTTL    time.Duration
}

// NewService wires the chat gateway. redisP and eventBus may be nil, which
// disables the history cache and push notifications respectively.
func NewService(
	repo Repository,
	directory Directory,
	redisP *redis.RedisProvider,
	eventBus *utils.EventBus,
	logger *zap.Logger,
	limits Limits,
	cacheTTL time.Duration,
) Service {
	return &service{
		repo:        repo,
		directory:   directory,
		redisP:      redisP,
		eventBus:    eventBus,
		logger:      logger.Sugar(),
		limits:      limits,
		cachePrefix: CachePrefix,
		cacheTTL:    cacheTTL,
	}
}

// ListMyMessages reads through the history cache. Cached lists are keyed by
// the conversation generation, which every append bumps, so a list read
// before an append can never be served after it.
func (s *service) ListMyMessages(ctx context.Context, callerID uint64) ([]Message, error) {
	cacheKey, cacheable := s.cacheKey(ctx, callerID)
	if cacheable {
		var cached []Message
		err := s.redisP.GetJSON(ctx, cacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warnw("Chat cache read failed, using store", "user_id", callerID, "error", err)
		}
	}

	messages, err := s.repo.ListByConversation(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.redisP.SetJSON(ctx, cacheKey, messages, s.cacheTTL); err != nil {
			s.logger.Warnw("Chat cache write failed", "user_id", callerID, "error", err)
		}
	}
	return messages, nil
}

func (s *service) SendAsUser(ctx context.Context, callerID uint64, content Content) (*Message, error) {
	return s.append(ctx, callerID, SenderUser, content)
}

func (s *service) SendAsAdmin(ctx context.Context, callerIsAdmin bool, targetUserID uint64, content Content) (*Message, error) {
	if !callerIsAdmin {
		return nil, ErrAuthorization
	}
	if targetUserID == 0 {
		return nil, validationError("targetUserId is required")
	}
	return s.append(ctx, targetUserID, SenderAdmin, content)
}

// Send routes a message by the caller's role. A customer may only name their
// own conversation as target.
func (s *service) Send(ctx context.Context, callerID uint64, callerIsAdmin bool, targetUserID uint64, content Content) (*Message, error) {
	if callerIsAdmin {
		return s.SendAsAdmin(ctx, true, targetUserID, content)
	}
	if targetUserID != 0 && targetUserID != callerID {
		return nil, ErrForbidden
	}
	return s.SendAsUser(ctx, callerID, content)
}

func (s *service) ListAllForAdmin(ctx context.Context, callerIsAdmin bool) ([]MessageWithUser, error) {
	if !callerIsAdmin {
		return nil, ErrAuthorization
	}

	messages, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.attachOwners(ctx, messages), nil
}

func (s *service) Conversations(ctx context.Context, callerIsAdmin bool, query string) ([]Conversation, error) {
	withUsers, err := s.ListAllForAdmin(ctx, callerIsAdmin)
	if err != nil {
		return nil, err
	}

	convs := GroupConversations(withUsers, s.directory.AdministratorID())
	for i := range convs {
		convs[i].Online = convs[i].User.Online
	}
	return FilterConversations(convs, query), nil
}

func (s *service) append(ctx context.Context, conversationUserID uint64, sender SenderRole, content Content) (*Message, error) {
	msg, err := s.buildMessage(conversationUserID, sender, content)
	if err != nil {
		return nil, err
	}

	exists, err := s.directory.Exists(ctx, conversationUserID)
	if err != nil {
		return nil, storageError("resolve conversation user", err)
	}
	if !exists {
		return nil, validationError("user %d does not exist", conversationUserID)
	}

	stored, err := s.repo.Append(ctx, msg)
	if err != nil {
		return nil, err
	}

	if s.redisP != nil {
		if _, err := s.redisP.Incr(ctx, s.generationKey(conversationUserID)); err != nil {
			s.logger.Warnw("Chat cache invalidation failed", "user_id", conversationUserID, "error", err)
		}
	}
	if s.eventBus != nil {
		s.eventBus.Publish(utils.EventChatMessageCreated, *stored)
	}

	s.logger.Debugw("Chat message stored",
		"message_id", stored.ID,
		"user_id", stored.UserID,
		"sender", stored.Sender,
		"type", stored.Type,
	)
	return stored, nil
}

func (s *service) buildMessage(conversationUserID uint64, sender SenderRole, content Content) (*Message, error) {
	text := strings.TrimSpace(content.Text)
	image := strings.TrimSpace(content.Image)

	if s.limits.MaxTextLength > 0 && utf8.RuneCountInString(text) > s.limits.MaxTextLength {
		return nil, validationError("text exceeds %d characters", s.limits.MaxTextLength)
	}
	if image != "" {
		if !strings.HasPrefix(image, "data:image/") {
			return nil, validationError("image must be a data URI")
		}
		if s.limits.MaxImageBytes > 0 && len(image) > s.limits.MaxImageBytes {
			return nil, validationError("image exceeds %d bytes", s.limits.MaxImageBytes)
		}
	}

	kind := content.Type
	if kind == "" {
		kind = KindText
		if image != "" {
			kind = KindImage
		}
	}

	msg := &Message{
		Sender: sender,
		Text:   text,
		Type:   kind,
		Image:  image,
		UserID: conversationUserID,
	}
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// attachOwners joins each message with its owner's snapshot. Owners that
// cannot be resolved get placeholders; lookup failures are logged, not returned.
func (s *service) attachOwners(ctx context.Context, messages []Message) []MessageWithUser {
	ids := make([]uint64, 0)
	seen := make(map[uint64]bool)
	for _, m := range messages {
		if m.UserID != 0 && !seen[m.UserID] {
			seen[m.UserID] = true
			ids = append(ids, m.UserID)
		}
	}

	snapshots := make(map[uint64]UserSnapshot, len(ids))
	if len(ids) > 0 {
		profiles, err := s.directory.FindProfiles(ctx, ids)
		if err != nil {
			s.logger.Warnw("Failed to resolve conversation owners, using placeholders", "count", len(ids), "error", err)
		}
		for _, p := range profiles {
			snapshots[p.ID] = snapshotFromProfile(p)
		}
	}

	adminID := s.directory.AdministratorID()
	out := make([]MessageWithUser, 0, len(messages))
	for _, m := range messages {
		snap, ok := snapshots[m.UserID]
		if !ok {
			snap = PlaceholderFor(m.UserID, adminID)
		}
		out = append(out, MessageWithUser{Message: m, User: &snap})
	}
	return out
}

func (s *service) generationKey(userID uint64) string {
	return fmt.Sprintf("%s:%d:gen", s.cachePrefix, userID)
}

// cacheKey returns the history key for the current generation. It reports
// false when there is no cache or the generation cannot be read.
func (s *service) cacheKey(ctx context.Context, userID uint64) (string, bool) {
	if s.redisP == nil {
		return "", false
	}
	gen, err := s.redisP.GetInt(ctx, s.generationKey(userID))
	if err != nil {
		s.logger.Warnw("Chat cache generation unavailable, using store", "user_id", userID, "error", err)
		return "", false
	}
	return fmt.Sprintf("%s:%d:%d", s.cachePrefix, userID, gen), true
}
