package stream

import (
	"context"

	"github.com/chatroom/presence-api/internal/domain"
)

type MessageStore interface {
	Append(ctx context.Context, message domain.Message) (domain.Message, error)
	FindVisibleTo(ctx context.Context, user, broadcastTarget string) ([]domain.Message, error)
}

// PublishingStore publishes every successfully appended message to the hub,
// whoever the writer is: registration, posting or the reaper.
type PublishingStore struct {
	MessageStore
	hub *Hub
}

func NewPublishingStore(store MessageStore, hub *Hub) *PublishingStore {
	return &PublishingStore{
		MessageStore: store,
		hub:          hub,
	}
}

func (s *PublishingStore) Append(ctx context.Context, message domain.Message) (domain.Message, error) {
	saved, err := s.MessageStore.Append(ctx, message)
	if err != nil {
		return domain.Message{}, err
	}

	s.hub.Publish(saved)

	return saved, nil
}
