package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatroom/presence-api/internal/config"
	"github.com/chatroom/presence-api/internal/domain"
)

type MessageRepository interface {
	Append(ctx context.Context, message domain.Message) (domain.Message, error)
	FindVisibleTo(ctx context.Context, user, broadcastTarget string) ([]domain.Message, error)
}

type ParticipantFinder interface {
	FindByName(ctx context.Context, name string) (domain.Participant, error)
}

type MessageService struct {
	repo         MessageRepository
	participants ParticipantFinder
	clock        domain.Clock
	chat         *config.ChatConfig
}

func NewMessageService(repo MessageRepository, participants ParticipantFinder, clock domain.Clock, chat *config.ChatConfig) *MessageService {
	return &MessageService{
		repo:         repo,
		participants: participants,
		clock:        clock,
		chat:         chat,
	}
}

// EnsureRegistered returns ErrUnknownParticipant unless user is a current participant.
func (s *MessageService) EnsureRegistered(ctx context.Context, user string) error {
	if user == "" {
		return ErrUnknownParticipant
	}

	if _, err := s.participants.FindByName(ctx, user); err != nil {
		if errors.Is(err, ErrParticipantNotFound) {
			return ErrUnknownParticipant
		}

		return fmt.Errorf("s.participants.FindByName -> %w", err)
	}

	return nil
}

// PostMessage stamps the message with the current time and appends it.
// The sender must be registered.
func (s *MessageService) PostMessage(ctx context.Context, message domain.Message) (domain.Message, error) {
	if err := s.EnsureRegistered(ctx, message.From); err != nil {
		return domain.Message{}, err
	}

	message.Time = domain.FormatTime(s.clock.Now())

	saved, err := s.repo.Append(ctx, message)
	if err != nil {
		return domain.Message{}, fmt.Errorf("s.repo.Append -> %w", err)
	}

	return saved, nil
}

// GetMessages returns what user may read, oldest first, optionally only the
// last *limit of them.
func (s *MessageService) GetMessages(ctx context.Context, user string, limit *int) ([]domain.Message, error) {
	if limit != nil && *limit <= 0 {
		return nil, ErrInvalidLimit
	}

	if err := s.EnsureRegistered(ctx, user); err != nil {
		return nil, err
	}

	candidates, err := s.repo.FindVisibleTo(ctx, user, s.chat.BroadcastTarget)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindVisibleTo -> %w", err)
	}

	return domain.FilterVisible(candidates, user, s.chat.BroadcastTarget, limit)
}
