package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatroom/presence-api/internal/config"
	"github.com/chatroom/presence-api/internal/domain"
)

type ParticipantRepository interface {
	Create(ctx context.Context, participant domain.Participant) (domain.Participant, error)
	FindByName(ctx context.Context, name string) (domain.Participant, error)
	FindAll(ctx context.Context) ([]domain.Participant, error)
	UpdateLastStatus(ctx context.Context, name string, lastStatus int64) error
}

type MessageAppender interface {
	Append(ctx context.Context, message domain.Message) (domain.Message, error)
}

type ParticipantService struct {
	repo     ParticipantRepository
	messages MessageAppender
	clock    domain.Clock
	chat     *config.ChatConfig
}

func NewParticipantService(repo ParticipantRepository, messages MessageAppender, clock domain.Clock, chat *config.ChatConfig) *ParticipantService {
	return &ParticipantService{
		repo:     repo,
		messages: messages,
		clock:    clock,
		chat:     chat,
	}
}

// Register creates the participant and announces the arrival to the room.
func (s *ParticipantService) Register(ctx context.Context, name string) (domain.Participant, error) {
	now := s.clock.Now()

	created, err := s.repo.Create(ctx, domain.Participant{
		Name:       name,
		LastStatus: now.UnixMilli(),
	})
	if err != nil {
		if errors.Is(err, ErrParticipantExists) {
			return domain.Participant{}, ErrParticipantExists
		}

		return domain.Participant{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	_, err = s.messages.Append(ctx, domain.Message{
		From: name,
		To:   s.chat.BroadcastTarget,
		Text: s.chat.JoinNotice,
		Type: domain.MessageTypeStatus,
		Time: domain.FormatTime(now),
	})
	if err != nil {
		return domain.Participant{}, fmt.Errorf("s.messages.Append -> %w", err)
	}

	return created, nil
}

func (s *ParticipantService) GetParticipants(ctx context.Context) ([]domain.Participant, error) {
	participants, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return participants, nil
}

// Heartbeat refreshes the participant's presence.
func (s *ParticipantService) Heartbeat(ctx context.Context, name string) error {
	if name == "" {
		return ErrParticipantNotFound
	}

	err := s.repo.UpdateLastStatus(ctx, name, s.clock.Now().UnixMilli())
	if err != nil {
		if errors.Is(err, ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}

		return fmt.Errorf("s.repo.UpdateLastStatus -> %w", err)
	}

	return nil
}
