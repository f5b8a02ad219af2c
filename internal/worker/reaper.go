//go:generate go run go.uber.org/mock/mockgen -source=reaper.go -destination=mocks/mock_reaper.go -package=mocks
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/chatroom/presence-api/internal/config"
	"github.com/chatroom/presence-api/internal/domain"
)

type ParticipantStore interface {
	FindStale(ctx context.Context, cutoff int64) ([]domain.Participant, error)
	DeleteStale(ctx context.Context, name string, cutoff int64) (bool, error)
}

type MessageAppender interface {
	Append(ctx context.Context, message domain.Message) (domain.Message, error)
}

// SessionCloser ends the live sessions still held under an evicted name.
type SessionCloser interface {
	DisconnectUser(name string) int
}

// Reaper evicts participants that stopped sending heartbeats and announces
// each departure to the room.
type Reaper struct {
	participants ParticipantStore
	messages     MessageAppender
	sessions     SessionCloser
	clock        domain.Clock
	presence     *config.PresenceConfig
	chat         *config.ChatConfig
	log          *zap.Logger
}

func NewReaper(
	participants ParticipantStore,
	messages MessageAppender,
	sessions SessionCloser,
	clock domain.Clock,
	presence *config.PresenceConfig,
	chat *config.ChatConfig,
	log *zap.Logger,
) *Reaper {
	return &Reaper{
		participants: participants,
		messages:     messages,
		sessions:     sessions,
		clock:        clock,
		presence:     presence,
		chat:         chat,
		log:          log,
	}
}

// Run sweeps every ReapInterval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) error {
	r.log.Info("starting presence reaper",
		zap.Duration("interval", r.presence.ReapInterval),
		zap.Duration("stale_after", r.presence.StaleAfter))

	ticker := time.NewTicker(r.presence.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			evicted, err := r.RunOnce(ctx)
			if err != nil {
				r.log.Error("presence sweep incomplete", zap.Error(err))
			}
			if len(evicted) > 0 {
				r.log.Info("evicted idle participants", zap.Strings("names", evicted))
			}
		}
	}
}

// RunOnce performs a single sweep and returns the evicted names. Every stale
// participant is handled on its own: a failure is collected into the
// returned error and the sweep moves on to the next one.
func (r *Reaper) RunOnce(ctx context.Context) ([]string, error) {
	now := r.clock.Now()
	cutoff := now.UnixMilli() - r.presence.StaleAfter.Milliseconds()

	stale, err := r.participants.FindStale(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("r.participants.FindStale -> %w", err)
	}

	var (
		evicted []string
		errs    error
	)
	for _, p := range stale {
		removed, err := r.evict(ctx, p, cutoff, now)
		if err != nil {
			r.log.Warn("could not evict participant", zap.String("name", p.Name), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("evict %q -> %w", p.Name, err))
			continue
		}
		if removed {
			evicted = append(evicted, p.Name)
		}
	}

	return evicted, errs
}

func (r *Reaper) evict(ctx context.Context, p domain.Participant, cutoff int64, now time.Time) (bool, error) {
	deleted, err := r.participants.DeleteStale(ctx, p.Name, cutoff)
	if err != nil {
		return false, fmt.Errorf("r.participants.DeleteStale -> %w", err)
	}
	// Refreshed or already gone since FindStale.
	if !deleted {
		return false, nil
	}

	if n := r.sessions.DisconnectUser(p.Name); n > 0 {
		r.log.Debug("closed streams of evicted participant", zap.String("name", p.Name), zap.Int("streams", n))
	}

	_, err = r.messages.Append(ctx, domain.Message{
		From: p.Name,
		To:   r.chat.BroadcastTarget,
		Text: r.chat.LeaveNotice,
		Type: domain.MessageTypeStatus,
		Time: domain.FormatTime(now),
	})
	if err != nil {
		return true, fmt.Errorf("r.messages.Append -> %w", err)
	}

	return true, nil
}
