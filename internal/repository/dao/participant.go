package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrParticipantExists   = errors.New("participant already exists")
	ErrParticipantNotFound = errors.New("participant not found")
)

type Participant struct {
	Name       string `gorm:"primaryKey"`
	LastStatus int64  `gorm:"not null;index"`
}

type ParticipantDAO struct {
	db *gorm.DB
}

func NewParticipantDAO(db *gorm.DB) *ParticipantDAO {
	return &ParticipantDAO{
		db: db,
	}
}

func (d *ParticipantDAO) Insert(ctx context.Context, participant Participant) (Participant, error) {
	result := d.db.WithContext(ctx).Create(&participant)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			err.ConstraintName == "participants_pkey" {
			return Participant{}, ErrParticipantExists
		}

		return Participant{}, result.Error
	}

	return participant, nil
}

func (d *ParticipantDAO) FindByName(ctx context.Context, name string) (Participant, error) {
	var participant Participant

	result := d.db.WithContext(ctx).First(&participant, "name = ?", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participant{}, ErrParticipantNotFound
		}

		return Participant{}, result.Error
	}

	return participant, nil
}

func (d *ParticipantDAO) FindAll(ctx context.Context) ([]Participant, error) {
	var participants []Participant

	result := d.db.WithContext(ctx).Order("name").Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}

	return participants, nil
}

func (d *ParticipantDAO) UpdateLastStatus(ctx context.Context, name string, lastStatus int64) error {
	result := d.db.WithContext(ctx).
		Model(&Participant{}).
		Where("name = ?", name).
		Update("last_status", lastStatus)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

func (d *ParticipantDAO) FindStale(ctx context.Context, cutoff int64) ([]Participant, error) {
	var participants []Participant

	result := d.db.WithContext(ctx).Where("last_status < ?", cutoff).Order("name").Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}

	return participants, nil
}

// DeleteStale removes the named participant only if it is still older than
// cutoff, so a heartbeat landing after FindStale keeps the record alive.
func (d *ParticipantDAO) DeleteStale(ctx context.Context, name string, cutoff int64) (bool, error) {
	result := d.db.WithContext(ctx).
		Where("name = ? AND last_status < ?", name, cutoff).
		Delete(&Participant{})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
