// Package stream fans newly appended messages out to live subscribers,
// each of whom only receives what they are allowed to read.
package stream

import (
	"sync"

	"go.uber.org/zap"

	"github.com/chatroom/presence-api/internal/domain"
)

const subscriberBuffer = 64

type Subscriber struct {
	user string
	send chan domain.Message
}

func (s *Subscriber) User() string {
	return s.user
}

// Messages is closed when the subscriber is removed from the hub.
func (s *Subscriber) Messages() <-chan domain.Message {
	return s.send
}

type Hub struct {
	mu              sync.Mutex
	subscribers     map[*Subscriber]struct{}
	broadcastTarget string
}

func NewHub(broadcastTarget string) *Hub {
	return &Hub{
		subscribers:     make(map[*Subscriber]struct{}),
		broadcastTarget: broadcastTarget,
	}
}

func (h *Hub) Subscribe(user string) *Subscriber {
	s := &Subscriber{
		user: user,
		send: make(chan domain.Message, subscriberBuffer),
	}

	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()

	return s
}

// Unsubscribe is safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.remove(s)
}

// Publish hands m to every subscriber allowed to see it. A subscriber whose
// buffer is full is dropped instead of blocking the writer.
func (h *Hub) Publish(m domain.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subscribers {
		if !m.VisibleTo(s.user, h.broadcastTarget) {
			continue
		}

		select {
		case s.send <- m:
		default:
			zap.L().Warn("dropping slow stream subscriber", zap.String("user", s.user))
			h.remove(s)
		}
	}
}

// DisconnectUser ends every stream opened by user and returns how many
// were closed.
func (h *Hub) DisconnectUser(user string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	closed := 0
	for s := range h.subscribers {
		if s.user == user {
			h.remove(s)
			closed++
		}
	}

	return closed
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}

// Close removes every subscriber, ending their streams.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subscribers {
		h.remove(s)
	}
}

func (h *Hub) remove(s *Subscriber) {
	if _, ok := h.subscribers[s]; !ok {
		return
	}
	delete(h.subscribers, s)
	close(s.send)
}
