package bootstrap

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/yigit/societyhub/internal/app/models"
	appServices "github.com/yigit/societyhub/internal/app/services"
	"github.com/yigit/societyhub/internal/pkg/cache"
)

type countingUsers struct {
	appServices.UserService
	sweeps atomic.Int32
}

func (c *countingUsers) SweepVerification(ctx context.Context, now time.Time) (*models.SweepResult, error) {
	c.sweeps.Add(1)
	return &models.SweepResult{}, nil
}

type countingViews struct {
	cache.ViewCounter
	flushes atomic.Int32
}

func (c *countingViews) Flush(ctx context.Context) (int, error) {
	c.flushes.Add(1)
	return 0, nil
}

func TestWorkersRunJobsUntilCancelled(t *testing.T) {
	users := &countingUsers{}
	views := &countingViews{}
	w := NewWorkers(users, views, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	assert.Eventually(t, func() bool {
		return users.sweeps.Load() >= 2 && views.flushes.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	w.Wait()

	sweeps := users.sweeps.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, sweeps, users.sweeps.Load())
}
