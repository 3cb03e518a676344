// Package realtime fans out per-learner refresh notifications to connected
// clients.
package realtime

import (
	"context"
	"sync"

	"github.com/abhisek/verba/internal/logger"
)

// EventRefresh tells a client to reload its conversation.
const EventRefresh = "refresh"

// Event is delivered to every subscriber of UserID.
type Event struct {
	UserID uint   `json:"userId"`
	Type   string `json:"type"`
}

// Refresh builds a refresh event for userID.
func Refresh(userID uint) Event {
	return Event{UserID: userID, Type: EventRefresh}
}

// Bus publishes events and hands out per-learner subscriptions.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel of events for userID and a function that
	// ends the subscription and closes the channel.
	Subscribe(userID uint) (<-chan Event, func())
	Close() error
}

const subscriberBuffer = 8

type subscriber struct {
	ch   chan Event
	once sync.Once
}

// MemoryBus delivers events within one process.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[uint]map[*subscriber]struct{}
	log  *logger.Logger
}

func NewMemoryBus(log *logger.Logger) *MemoryBus {
	if log == nil {
		log = logger.Nop()
	}
	return &MemoryBus{
		subs: make(map[uint]map[*subscriber]struct{}),
		log:  log.With("component", "MemoryBus"),
	}
}

func (b *MemoryBus) Publish(_ context.Context, ev Event) error {
	b.deliver(ev)
	return nil
}

// deliver never blocks; a subscriber with a full buffer misses the event.
func (b *MemoryBus) deliver(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs[ev.UserID] {
		select {
		case s.ch <- ev:
		default:
			b.log.Warn("dropping realtime event; subscriber buffer full", "user_id", ev.UserID, "type", ev.Type)
		}
	}
}

func (b *MemoryBus) Subscribe(userID uint) (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	set, ok := b.subs[userID]
	if !ok {
		set = make(map[*subscriber]struct{})
		b.subs[userID] = set
	}
	set[s] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			b.mu.Lock()
			if set, ok := b.subs[userID]; ok {
				delete(set, s)
				if len(set) == 0 {
					delete(b.subs, userID)
				}
			}
			b.mu.Unlock()
			close(s.ch)
		})
	}
	return s.ch, cancel
}

// Subscribers returns the number of live subscriptions for userID.
func (b *MemoryBus) Subscribers(userID uint) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for userID, set := range b.subs {
		for s := range set {
			s.once.Do(func() { close(s.ch) })
		}
		delete(b.subs, userID)
	}
	return nil
}
