package chat

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	messages []Message
	nextID   uint64
	clock    clock
}

// NewMemoryRepository returns a process-local message store. Messages are lost
// on restart.
func NewMemoryRepository() Repository {
	return newMemoryRepository(time.Now)
}

func newMemoryRepository(now func() time.Time) *memoryRepository {
	return &memoryRepository{
		nextID: 1,
		clock:  clock{now: now},
	}
}

func (r *memoryRepository) Append(ctx context.Context, msg *Message) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageError("append", err)
	}
	if err := msg.validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *msg
	stored.Owner = nil
	stored.ID = r.nextID
	stored.CreatedAt = r.clock.next()
	r.nextID++
	r.messages = append(r.messages, stored)

	return &stored, nil
}

func (r *memoryRepository) ListByConversation(ctx context.Context, userID uint64) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageError("list conversation", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Appends are already in createdAt order.
	out := make([]Message, 0)
	for _, m := range r.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepository) ListAll(ctx context.Context) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageError("list all", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out, nil
}
