package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nkiryanov/taskboard/internal/logger"
	"github.com/nkiryanov/taskboard/internal/repository"
)

const defaultSchedule = "@hourly"

// Periodic garbage collection of expired refresh tokens
// Expired tokens are already unusable, the sweep only keeps the table small,
// so a missed run is harmless
type Sweeper struct {
	refreshRepo repository.RefreshTokenRepo
	logger      logger.Logger
	schedule    string
	cron        *cron.Cron
}

type Config struct {
	// Cron spec, "@hourly" if empty
	Schedule string
}

func New(cfg Config, refreshRepo repository.RefreshTokenRepo, l logger.Logger) (*Sweeper, error) {
	if refreshRepo == nil {
		return nil, errors.New("refresh repo must not be nil")
	}
	if l == nil {
		l = logger.NewNoOp()
	}

	schedule := cfg.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}

	return &Sweeper{
		refreshRepo: refreshRepo,
		logger:      l,
		schedule:    schedule,
	}, nil
}

// Start schedules the sweep and runs it until the context is cancelled
func (s *Sweeper) Start(ctx context.Context) error {
	s.cron = cron.New()

	_, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(ctx) })
	if err != nil {
		return err
	}

	s.cron.Start()

	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()

	return nil
}

// Sweep deletes every token expired by now
func (s *Sweeper) Sweep(ctx context.Context) {
	deleted, err := s.refreshRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("expired token sweep failed", "error", err.Error())
		return
	}

	if deleted > 0 {
		s.logger.Info("expired refresh tokens deleted", "count", deleted)
	}
}
