package repository

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/chatroom/presence-api/internal/domain"
	"github.com/chatroom/presence-api/internal/repository/dao"
)

type MessageDAO interface {
	Insert(ctx context.Context, message dao.Message) (dao.Message, error)
	FindAll(ctx context.Context) ([]dao.Message, error)
	FindVisibleTo(ctx context.Context, user, broadcastTarget string) ([]dao.Message, error)
}

type MessageRepository struct {
	dao MessageDAO
}

func NewMessageRepository(dao MessageDAO) *MessageRepository {
	return &MessageRepository{
		dao: dao,
	}
}

func (r *MessageRepository) Append(ctx context.Context, message domain.Message) (domain.Message, error) {
	saved, err := r.dao.Insert(ctx, r.domainToDao(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(saved), nil
}

func (r *MessageRepository) FindAll(ctx context.Context) ([]domain.Message, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *MessageRepository) FindVisibleTo(ctx context.Context, user, broadcastTarget string) ([]domain.Message, error) {
	found, err := r.dao.FindVisibleTo(ctx, user, broadcastTarget)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindVisibleTo -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *MessageRepository) daosToDomain(messages []dao.Message) []domain.Message {
	return lo.Map(messages, func(m dao.Message, _ int) domain.Message {
		return r.daoToDomain(m)
	})
}

func (r *MessageRepository) daoToDomain(m dao.Message) domain.Message {
	return domain.Message{
		ID:   m.ID,
		From: m.Sender,
		To:   m.Recipient,
		Text: m.Text,
		Type: domain.MessageType(m.Kind),
		Time: m.Time,
	}
}

func (r *MessageRepository) domainToDao(m domain.Message) dao.Message {
	return dao.Message{
		ID:        m.ID,
		Sender:    m.From,
		Recipient: m.To,
		Text:      m.Text,
		Kind:      string(m.Type),
		Time:      m.Time,
	}
}
