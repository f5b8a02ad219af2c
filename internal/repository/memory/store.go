// Package memory keeps participants and messages in process memory. It
// backs the "memory" store driver and the handler and worker tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/chatroom/presence-api/internal/domain"
	"github.com/chatroom/presence-api/internal/repository"
)

type ParticipantStore struct {
	mu           sync.RWMutex
	participants map[string]domain.Participant
}

func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{
		participants: make(map[string]domain.Participant),
	}
}

func (s *ParticipantStore) Create(_ context.Context, participant domain.Participant) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[participant.Name]; ok {
		return domain.Participant{}, repository.ErrParticipantExists
	}
	s.participants[participant.Name] = participant

	return participant, nil
}

func (s *ParticipantStore) FindByName(_ context.Context, name string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[name]
	if !ok {
		return domain.Participant{}, repository.ErrParticipantNotFound
	}

	return p, nil
}

func (s *ParticipantStore) FindAll(_ context.Context) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedByName(lo.Values(s.participants)), nil
}

func (s *ParticipantStore) UpdateLastStatus(_ context.Context, name string, lastStatus int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[name]
	if !ok {
		return repository.ErrParticipantNotFound
	}
	p.LastStatus = lastStatus
	s.participants[name] = p

	return nil
}

func (s *ParticipantStore) FindStale(_ context.Context, cutoff int64) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stale := lo.Filter(lo.Values(s.participants), func(p domain.Participant, _ int) bool {
		return p.IsStale(cutoff)
	})

	return sortedByName(stale), nil
}

func (s *ParticipantStore) DeleteStale(_ context.Context, name string, cutoff int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[name]
	if !ok || !p.IsStale(cutoff) {
		return false, nil
	}
	delete(s.participants, name)

	return true, nil
}

func sortedByName(participants []domain.Participant) []domain.Participant {
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].Name < participants[j].Name
	})

	return participants
}

type MessageStore struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

func (s *MessageStore) Append(_ context.Context, message domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message.ID = uint(len(s.messages) + 1)
	s.messages = append(s.messages, message)

	return message, nil
}

func (s *MessageStore) FindAll(_ context.Context) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)

	return out, nil
}

func (s *MessageStore) FindVisibleTo(_ context.Context, user, broadcastTarget string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Filter(s.messages, func(m domain.Message, _ int) bool {
		return m.VisibleTo(user, broadcastTarget)
	}), nil
}
