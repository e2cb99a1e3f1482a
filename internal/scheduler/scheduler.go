// Package scheduler publishes drafts whose publish time has come.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/inkwell/backend/pkg/logger"
)

// Publisher publishes every due draft and reports how many changed.
type Publisher interface {
	PublishDue(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	posts    Publisher
	interval time.Duration
	now      func() time.Time
}

func New(posts Publisher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		posts:    posts,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce runs a single publishing pass.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.posts.PublishDue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("scheduled posts published", zap.Int64("count", n))
	}
	return n, nil
}

// Start runs a pass every interval until the returned stop function is
// called. Stop waits for a pass in progress to finish.
func (s *Scheduler) Start() (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
					logger.Error("scheduled publish failed", zap.Error(err))
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}
