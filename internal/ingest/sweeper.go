package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/quizgen/constants"
)

// Sweeper removes staged uploads older than a retention window.
type Sweeper struct {
	dir       string
	retainFor time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func NewSweeper(dir string, retainFor, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{dir: dir, retainFor: retainFor, interval: interval, now: time.Now, logger: logger}
}

// Sweep deletes expired staged files once and returns how many it removed.
// Only regular .pdf files directly under the staging dir are considered.
func (s *Sweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := s.now().Add(-s.retainFor)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !constants.IsAllowedExt(filepath.Ext(e.Name())) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("sweep: remove failed", "path", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("sweep: removed expired uploads", "dir", s.dir, "removed", removed)
	}
	return removed, nil
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		if _, err := s.Sweep(); err != nil {
			s.logger.Error("sweep failed", "dir", s.dir, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
