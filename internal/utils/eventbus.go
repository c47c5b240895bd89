package utils

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const (
	EventChatMessageCreated = "chat.message_created"
)

type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type Handler func(event Event)

// EventBus is an in-process, best-effort publisher. Publish never blocks:
// when the queue is full the event is dropped and counted.
type EventBus struct {
	subscribers map[string][]Handler
	events      chan Event
	mu          sync.RWMutex
	dropped     int64
	logger      *zap.SugaredLogger
}

func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[string][]Handler),
		events:      make(chan Event, 256),
		logger:      logger.Sugar(),
	}
}

func (eb *EventBus) Publish(event string, data interface{}) {
	e := Event{Event: event, Data: data}
	select {
	case eb.events <- e:
	default:
		eb.mu.Lock()
		eb.dropped++
		dropped := eb.dropped
		eb.mu.Unlock()
		eb.logger.Warnw("Event bus full, dropping event", "event", event, "dropped_total", dropped)
	}
}

func (eb *EventBus) Subscribe(event string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers[event] = append(eb.subscribers[event], handler)
}

// Run dispatches queued events to subscribers until ctx is cancelled.
func (eb *EventBus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-eb.events:
			eb.dispatch(e)
		}
	}
}

func (eb *EventBus) dispatch(e Event) {
	eb.mu.RLock()
	handlers := append([]Handler(nil), eb.subscribers[e.Event]...)
	eb.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					eb.logger.Errorw("Event handler panicked", "event", e.Event, "panic", r)
				}
			}()
			h(e)
		}()
	}
}
