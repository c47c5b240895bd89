package chat

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the message store. Append assigns id and createdAt; createdAt
// never decreases across successive appends to the same store.
type Repository interface {
	Append(ctx context.Context, msg *Message) (*Message, error)
	ListByConversation(ctx context.Context, userID uint64) ([]Message, error)
	ListAll(ctx context.Context) ([]Message, error)
}

// clock hands out non-decreasing timestamps at database precision.
type clock struct {
	now  func() time.Time
	last time.Time
}

func (c *clock) next() time.Time {
	t := c.now().UTC().Truncate(time.Microsecond)
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}

type repository struct {
	db *gorm.DB

	// mu serialises appends so id order and createdAt order agree.
	mu     sync.Mutex
	clock  clock
	primed bool
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db:    db,
		clock: clock{now: time.Now},
	}
}

func (r *repository) Append(ctx context.Context, msg *Message) (*Message, error) {
	if err := msg.validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.primed {
		var latest sql.NullTime
		err := r.db.WithContext(ctx).Model(&Message{}).
			Select("MAX(created_at)").
			Scan(&latest).Error
		if err != nil {
			return nil, storageError("read latest timestamp", err)
		}
		if latest.Valid {
			r.clock.last = latest.Time.UTC()
		}
		r.primed = true
	}

	stored := *msg
	stored.ID = 0
	stored.Owner = nil
	stored.CreatedAt = r.clock.next()

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&stored).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return nil, validationError("user %d does not exist", msg.UserID)
	}
	if err != nil {
		return nil, storageError("append", err)
	}
	return &stored, nil
}

func (r *repository) ListByConversation(ctx context.Context, userID uint64) ([]Message, error) {
	messages := make([]Message, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, storageError("list conversation", err)
	}
	return messages, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Message, error) {
	messages := make([]Message, 0)
	err := r.db.WithContext(ctx).Order("id ASC").Find(&messages).Error
	if err != nil {
		return nil, storageError("list all", err)
	}
	return messages, nil
}
