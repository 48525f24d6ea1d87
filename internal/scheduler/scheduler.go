package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	PruneJournalSpec      = "0 * * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	pruneJournalTimeout   = 5 * time.Minute
)

// Pruner deletes journal entries created before a cutoff.
type Pruner interface {
	PruneRequests(ctx context.Context, before time.Time) (int64, error)
}

type Scheduler struct {
	ctx       context.Context
	cron      *cron.Cron
	pruner    Pruner
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func New(ctx context.Context, pruner Pruner, retention time.Duration, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:       ctx,
		cron:      c,
		pruner:    pruner,
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(PruneJournalSpec, s.pruneJournal); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

// Stop halts the cron loop and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) pruneJournal() {
	ctx, cancel := context.WithTimeout(s.ctx, pruneJournalTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	cutoff := s.now().Add(-s.retention)

	deleted, err := s.pruner.PruneRequests(ctx, cutoff)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to prune journal",
			"error", err,
			"cutoff", cutoff,
			"retention", s.retention.String())

		return
	}

	s.log.InfoContext(ctx, "Journal is pruned",
		"deleted", deleted,
		"cutoff", cutoff,
		"retention", s.retention.String())
}
