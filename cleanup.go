package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// UploadJanitor removes stale files from the upload directory. Requests remove their
// uploads themselves, the janitor catches whatever was left after crashes.
type UploadJanitor struct {
	Dir      string
	MaxAge   time.Duration
	Interval time.Duration
	Logger   zerolog.Logger
	now      func() time.Time
}

func NewUploadJanitor(cfg *ServerConfig, logger zerolog.Logger) *UploadJanitor {
	return &UploadJanitor{
		Dir:      cfg.UploadDir,
		MaxAge:   cfg.MaxFileAge,
		Interval: cfg.CleanupInterval,
		Logger:   logger,
		now:      time.Now,
	}
}

// Sweep removes regular files older than MaxAge and returns number of removed files.
func (j *UploadJanitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	deadline := now().Add(-j.MaxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // Removed concurrently.
		}
		if info.ModTime().After(deadline) {
			continue
		}
		path := filepath.Join(j.Dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			j.Logger.Warn().Err(err).Str("path", path).Msg("can't remove stale upload")
			continue
		}
		removed++
	}
	return removed, nil
}

// Run sweeps every Interval until ctx is done.
func (j *UploadJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := j.Sweep()
			if err != nil {
				j.Logger.Error().Err(err).Str("dir", j.Dir).Msg("upload cleanup failed")
			} else if removed > 0 {
				j.Logger.Info().Int("removed", removed).Msg("stale uploads removed")
			}
		}
	}
}
