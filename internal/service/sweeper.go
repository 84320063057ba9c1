// internal/service/sweeper.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron"
)

// Sweeper runs the recurring invitation maintenance: expiring stale pending
// invites, purging terminal ones past retention and collecting orphans left
// by partial cascade deletes.
type Sweeper struct {
	invitations *InvitationService
	cron        *cron.Cron
	every       time.Duration
}

func NewSweeper(invitations *InvitationService, every time.Duration) *Sweeper {
	if every <= 0 {
		every = time.Hour
	}
	return &Sweeper{
		invitations: invitations,
		cron:        cron.New(),
		every:       every,
	}
}

// Start schedules the sweeps and runs them once immediately so a restart
// does not delay overdue expirations by a full interval.
func (s *Sweeper) Start() error {
	schedule := fmt.Sprintf("@every %s", s.every)
	if err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return fmt.Errorf("scheduling invitation sweeps: %w", err)
	}
	s.cron.Start()
	go s.runOnce()
	return nil
}

// Stop halts the schedule; a sweep already in flight finishes on its own.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.invitations.SweepExpired(ctx); err != nil {
		slog.Error("invitation expiry sweep failed", "error", err)
	}
	if _, err := s.invitations.PurgeOld(ctx); err != nil {
		slog.Error("invitation purge sweep failed", "error", err)
	}
	if _, _, err := s.invitations.SweepOrphans(ctx); err != nil {
		slog.Error("orphan sweep failed", "error", err)
	}
}
