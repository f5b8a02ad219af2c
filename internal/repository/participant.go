package repository

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/chatroom/presence-api/internal/domain"
	"github.com/chatroom/presence-api/internal/repository/dao"
)

var (
	ErrParticipantExists   = dao.ErrParticipantExists
	ErrParticipantNotFound = dao.ErrParticipantNotFound
)

type ParticipantDAO interface {
	Insert(ctx context.Context, participant dao.Participant) (dao.Participant, error)
	FindByName(ctx context.Context, name string) (dao.Participant, error)
	FindAll(ctx context.Context) ([]dao.Participant, error)
	UpdateLastStatus(ctx context.Context, name string, lastStatus int64) error
	FindStale(ctx context.Context, cutoff int64) ([]dao.Participant, error)
	DeleteStale(ctx context.Context, name string, cutoff int64) (bool, error)
}

type ParticipantRepository struct {
	dao ParticipantDAO
}

func NewParticipantRepository(dao ParticipantDAO) *ParticipantRepository {
	return &ParticipantRepository{
		dao: dao,
	}
}

func (r *ParticipantRepository) Create(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(participant))
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *ParticipantRepository) FindByName(ctx context.Context, name string) (domain.Participant, error) {
	found, err := r.dao.FindByName(ctx, name)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("r.dao.FindByName -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *ParticipantRepository) FindAll(ctx context.Context) ([]domain.Participant, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return lo.Map(found, func(p dao.Participant, _ int) domain.Participant {
		return r.daoToDomain(p)
	}), nil
}

func (r *ParticipantRepository) UpdateLastStatus(ctx context.Context, name string, lastStatus int64) error {
	if err := r.dao.UpdateLastStatus(ctx, name, lastStatus); err != nil {
		return fmt.Errorf("r.dao.UpdateLastStatus -> %w", err)
	}

	return nil
}

func (r *ParticipantRepository) FindStale(ctx context.Context, cutoff int64) ([]domain.Participant, error) {
	found, err := r.dao.FindStale(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindStale -> %w", err)
	}

	return lo.Map(found, func(p dao.Participant, _ int) domain.Participant {
		return r.daoToDomain(p)
	}), nil
}

func (r *ParticipantRepository) DeleteStale(ctx context.Context, name string, cutoff int64) (bool, error) {
	deleted, err := r.dao.DeleteStale(ctx, name, cutoff)
	if err != nil {
		return false, fmt.Errorf("r.dao.DeleteStale -> %w", err)
	}

	return deleted, nil
}

func (r *ParticipantRepository) daoToDomain(p dao.Participant) domain.Participant {
	return domain.Participant{
		Name:       p.Name,
		LastStatus: p.LastStatus,
	}
}

func (r *ParticipantRepository) domainToDao(p domain.Participant) dao.Participant {
	return dao.Participant{
		Name:       p.Name,
		LastStatus: p.LastStatus,
	}
}
