package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher overwrites the cached stats for a period.
type Refresher interface {
	Refresh(ctx context.Context, season int, week *int) (int, error)
}

// CacheWarmer keeps the current season's totals in the cache on a schedule
type CacheWarmer struct {
	stats    Refresher
	season   int
	schedule string
	timeout  time.Duration
	logger   *logrus.Logger
	cron     *cron.Cron
	mu       sync.Mutex
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
	jobs     sync.WaitGroup
}

// NewCacheWarmer creates a warmer for season. schedule is any robfig/cron
// schedule expression, e.g. "@every 6h".
func NewCacheWarmer(stats Refresher, season int, schedule string, timeout time.Duration, logger *logrus.Logger) *CacheWarmer {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheWarmer{
		ctx:      ctx,
		cancel:   cancel,
		stats:    stats,
		season:   season,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start schedules the warm job and runs it once immediately.
func (w *CacheWarmer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("cache warmer is already running")
	}
	if w.ctx.Err() != nil {
		return fmt.Errorf("cache warmer has been stopped")
	}

	if _, err := w.cron.AddFunc(w.schedule, w.warm); err != nil {
		return fmt.Errorf("failed to schedule cache warmer: %w", err)
	}

	w.cron.Start()
	w.running = true

	w.jobs.Add(1)
	go func() {
		defer w.jobs.Done()
		w.warm()
	}()

	w.logger.WithFields(logrus.Fields{
		"component": "cache_warmer",
		"season":    w.season,
		"schedule":  w.schedule,
	}).Info("Cache warmer started")
	return nil
}

// Stop halts the schedule, cancels in-flight refreshes and waits for every
// job, including the initial one, to return. A stopped warmer cannot be restarted.
func (w *CacheWarmer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.cancel()
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.jobs.Wait()

	w.running = false
	w.logger.Info("Cache warmer stopped")
}

// WarmNow refreshes the season totals synchronously.
func (w *CacheWarmer) WarmNow(ctx context.Context) (int, error) {
	return w.stats.Refresh(ctx, w.season, nil)
}

func (w *CacheWarmer) warm() {
	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()

	start := time.Now()
	n, err := w.WarmNow(ctx)
	entry := w.logger.WithFields(logrus.Fields{
		"component": "cache_warmer",
		"season":    w.season,
		"duration":  time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Error("Failed to warm stats cache")
		return
	}
	entry.WithField("players", n).Info("Stats cache warmed")
}
