package backup

import (
	"context"
	"time"

	"github.com/gyermekkert/admin/core"
)

// Scheduler runs scheduled backups. It polls the persisted schedule every
// tick so API-side changes take effect without a restart.
type Scheduler struct {
	svc    *Service
	logger core.Logger
	tick   time.Duration
	done   chan struct{}
}

func NewScheduler(svc *Service, logger core.Logger) *Scheduler {
	return &Scheduler{
		svc:    svc,
		logger: logger,
		tick:   time.Minute,
		done:   make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		s.logger.Info("backup scheduler started")
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.runDue(ctx)
			}
		}
	}()
}

func (s *Scheduler) Stop() { close(s.done) }

func (s *Scheduler) runDue(ctx context.Context) {
	sched, err := s.svc.GetSchedule(ctx)
	if err != nil {
		if err != ErrNoSchedule {
			s.logger.Error("backup scheduler: loading schedule: " + err.Error())
		}
		return
	}
	if !sched.Enabled {
		return
	}
	now := time.Now().UTC()
	if now.Before(sched.NextRun(now)) {
		return
	}

	s.logger.Info("backup scheduler: starting scheduled backup")
	run, err := s.svc.Run(ctx, KindScheduled)
	if err != nil {
		if err == ErrRunning {
			return
		}
		s.logger.Error("backup scheduler: run failed: " + err.Error())
		return
	}

	now = time.Now().UTC()
	sched.LastRunAt = &now
	sched.UpdatedAt = now
	if err = s.svc.repo.SaveSchedule(ctx, &sched); err != nil {
		s.logger.Error("backup scheduler: saving schedule: " + err.Error())
	}
	s.logger.Info("backup scheduler: finished " + run.Path)
}
