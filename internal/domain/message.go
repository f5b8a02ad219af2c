package domain

import (
	"fmt"

	"github.com/samber/lo"
)

// DefaultBroadcastTarget is the recipient meaning "everyone in the room".
const DefaultBroadcastTarget = "Todos"

type MessageType string

const (
	MessageTypeStatus  MessageType = "status"
	MessageTypeMessage MessageType = "message"
	MessageTypePrivate MessageType = "private_message"
)

// Message is immutable once appended. ID only carries insertion order.
type Message struct {
	ID   uint        `json:"-"`
	From string      `json:"from"`
	To   string      `json:"to"`
	Text string      `json:"text"`
	Type MessageType `json:"type"`
	Time string      `json:"time"`
}

// VisibleTo reports whether user may read m. Public messages and anything
// addressed to the broadcast target are visible to all; private messages
// only to their sender and recipient.
func (m Message) VisibleTo(user, broadcastTarget string) bool {
	switch {
	case m.Type == MessageTypeMessage:
		return true
	case m.To == broadcastTarget:
		return true
	case m.Type == MessageTypePrivate:
		return m.To == user || m.From == user
	default:
		return false
	}
}

// FilterVisible keeps the messages user may read, in their original order.
// A nil limit returns all of them; otherwise only the last *limit are kept.
func FilterVisible(messages []Message, user, broadcastTarget string, limit *int) ([]Message, error) {
	if limit != nil && *limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, *limit)
	}

	visible := lo.Filter(messages, func(m Message, _ int) bool {
		return m.VisibleTo(user, broadcastTarget)
	})

	if limit == nil || *limit >= len(visible) {
		return visible, nil
	}

	return visible[len(visible)-*limit:], nil
}
