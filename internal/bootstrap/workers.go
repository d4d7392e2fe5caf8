package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	appServices "github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/pkg/cache"
)

// Workers runs the periodic background jobs: the email verification sweep
// and flushing buffered news view counters.
type Workers struct {
	users    appServices.UserService
	views    cache.ViewCounter
	interval time.Duration
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

// NewWorkers creates the background job runner
func NewWorkers(users appServices.UserService, views cache.ViewCounter, interval time.Duration, logger zerolog.Logger) *Workers {
	return &Workers{
		users:    users,
		views:    views,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the jobs; they stop when ctx is cancelled
func (w *Workers) Start(ctx context.Context) {
	w.wg.Add(2)
	go w.loop(ctx, "verification-sweep", w.sweep)
	go w.loop(ctx, "view-flush", w.flush)
}

// Wait blocks until every job has returned
func (w *Workers) Wait() {
	w.wg.Wait()
}

func (w *Workers) loop(ctx context.Context, name string, job func(context.Context)) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Str("job", name).Dur("interval", w.interval).Msg("Background job started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("job", name).Msg("Background job stopped")
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (w *Workers) sweep(ctx context.Context) {
	result, err := w.users.SweepVerification(ctx, time.Now().UTC())
	if err != nil {
		w.logger.Error().Err(err).Msg("Verification sweep failed")
		return
	}
	w.logger.Info().
		Int("deletedUnactivated", result.DeletedUnactivated).
		Int("reverifyRequested", result.ReverifyRequested).
		Int("deactivated", result.Deactivated).
		Int("deleted", result.Deleted).
		Int("retainedManagers", result.RetainedManagers).
		Msg("Verification sweep finished")
}

func (w *Workers) flush(ctx context.Context) {
	n, err := w.views.Flush(ctx)
	if err != nil {
		w.logger.Error().Err(err).Int("flushed", n).Msg("News view flush failed")
		return
	}
	if n > 0 {
		w.logger.Debug().Int("flushed", n).Msg("News views flushed")
	}
}
