package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatroom/presence-api/internal/domain"
	"github.com/chatroom/presence-api/internal/repository"
)

func TestParticipantStore_ConcurrentRegistrationIsUnique(t *testing.T) {
	s := NewParticipantStore()
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, domain.Participant{Name: "alice", LastStatus: 1})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, repository.ErrParticipantExists):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 49, conflicts)
}

func TestParticipantStore_DeleteStale(t *testing.T) {
	s := NewParticipantStore()
	ctx := context.Background()

	_, err := s.Create(ctx, domain.Participant{Name: "alice", LastStatus: 100})
	require.NoError(t, err)

	deleted, err := s.DeleteStale(ctx, "alice", 50)
	require.NoError(t, err)
	assert.False(t, deleted, "fresh participant survives")

	deleted, err = s.DeleteStale(ctx, "alice", 101)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteStale(ctx, "alice", 101)
	require.NoError(t, err)
	assert.False(t, deleted, "already removed")

	require.ErrorIs(t, s.UpdateLastStatus(ctx, "alice", 1), repository.ErrParticipantNotFound)
}

func TestMessageStore_AppendKeepsOrder(t *testing.T) {
	s := NewMessageStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, domain.Message{From: "bob", To: "Todos", Text: fmt.Sprint(i), Type: domain.MessageTypeMessage})
		require.NoError(t, err)
	}
	_, err := s.Append(ctx, domain.Message{From: "bob", To: "carol", Text: "secret", Type: domain.MessageTypePrivate})
	require.NoError(t, err)

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i, m := range all {
		assert.Equal(t, uint(i+1), m.ID)
	}

	visible, err := s.FindVisibleTo(ctx, "alice", "Todos")
	require.NoError(t, err)
	assert.Len(t, visible, 5)
}
