package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/media-parser-telegram-bot/pkg/logger"
)

// Janitor periodically deletes cache entries older than the TTL. Delivery
// cleans up its own files after sending; the janitor catches everything left
// behind by crashes and rejected posts.
type Janitor struct {
	dir       string
	ttl       time.Duration
	log       logger.Logger
	scheduler gocron.Scheduler
}

func NewJanitor(dir string, ttl time.Duration, log logger.Logger) *Janitor {
	return &Janitor{dir: dir, ttl: ttl, log: log}
}

// Start schedules the sweep and runs until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	if j.dir == "" || j.ttl <= 0 {
		j.log.Info("Cache janitor disabled")
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create janitor scheduler: %w", err)
	}
	j.scheduler = scheduler

	interval := j.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			j.Sweep()
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule cache sweep: %w", err)
	}

	scheduler.Start()

	go func() {
		<-ctx.Done()
		j.log.Info("Stopping cache janitor")
		if err := scheduler.Shutdown(); err != nil {
			j.log.Error("Failed to shut down janitor scheduler", "error", err)
		}
	}()

	return nil
}

// Sweep deletes cache files older than the TTL. Best effort.
func (j *Janitor) Sweep() {
	cutoff := time.Now().Add(-j.ttl)
	removed := 0

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		j.log.Warn("Cache sweep could not read directory", "dir", j.dir, "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			j.log.Warn("Cache sweep failed to remove file", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		j.log.Info("Cache sweep completed", "removed", removed)
	}
}
