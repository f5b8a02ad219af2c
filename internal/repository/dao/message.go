package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Message struct {
	ID        uint   `gorm:"primaryKey"`
	Sender    string `gorm:"not null;index"`
	Recipient string `gorm:"not null;index"`
	Text      string `gorm:"not null"`
	Kind      string `gorm:"not null"` // "status", "message" or "private_message"
	Time      string `gorm:"not null"`
	CreatedAt time.Time
}

type MessageDAO struct {
	db *gorm.DB
}

func NewMessageDAO(db *gorm.DB) *MessageDAO {
	return &MessageDAO{
		db: db,
	}
}

func (d *MessageDAO) Insert(ctx context.Context, message Message) (Message, error) {
	result := d.db.WithContext(ctx).Create(&message)
	if result.Error != nil {
		return Message{}, result.Error
	}

	return message, nil
}

func (d *MessageDAO) FindAll(ctx context.Context) ([]Message, error) {
	var messages []Message

	result := d.db.WithContext(ctx).Order("id").Find(&messages)
	if result.Error != nil {
		return nil, result.Error
	}

	return messages, nil
}

// FindVisibleTo narrows the log to what user may read: public chat, anything
// sent to the broadcast target and private messages to or from user.
func (d *MessageDAO) FindVisibleTo(ctx context.Context, user, broadcastTarget string) ([]Message, error) {
	var messages []Message

	result := d.db.WithContext(ctx).
		Where("kind = ?", "message").
		Or("recipient = ?", broadcastTarget).
		Or("kind = ? AND (recipient = ? OR sender = ?)", "private_message", user, user).
		Order("id").
		Find(&messages)
	if result.Error != nil {
		return nil, result.Error
	}

	return messages, nil
}
