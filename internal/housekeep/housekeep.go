// Package housekeep purges abandoned temp artifacts. It is independent of
// the transcription engine and schedulable on its own: jobs clean up after
// themselves, but crashes and cancellations leave directories behind.
package housekeep

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valentin-gosselin/whisper-studio/internal/audio"
	"github.com/valentin-gosselin/whisper-studio/internal/format"
)

// Stats summarizes one sweep.
type Stats struct {
	Removed   int   // directories removed
	Reclaimed int64 // bytes freed
}

// Sweeper removes aged job temp directories from a base directory.
// Only entries carrying the engine's temp prefix are ever touched.
type Sweeper struct {
	dir    string
	maxAge time.Duration
	log    *slog.Logger
	now    func() time.Time
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		if log != nil {
			s.log = log
		}
	}
}

// WithNow sets the time source (for testing).
func WithNow(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSweeper creates a Sweeper over dir (the OS temp dir when empty)
// removing job directories older than maxAge.
func NewSweeper(dir string, maxAge time.Duration, opts ...SweeperOption) *Sweeper {
	if dir == "" {
		dir = os.TempDir()
	}
	s := &Sweeper{
		dir:    dir,
		maxAge: maxAge,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep removes every aged job directory once and reports what it freed.
func (s *Sweeper) Sweep(ctx context.Context) (Stats, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read temp directory: %w", err)
	}

	cutoff := s.now().Add(-s.maxAge)
	var stats Stats

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), audio.TempPrefix) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		size := dirSize(path)
		if err := os.RemoveAll(path); err != nil {
			s.log.Warn("failed to remove temp directory", "path", path, "err", err)
			continue
		}

		stats.Removed++
		stats.Reclaimed += size
		s.log.Info("removed aged temp directory",
			"path", path,
			"age", s.now().Sub(info.ModTime()).Round(time.Minute),
			"size", format.Size(size))
	}

	return stats, nil
}

// Run sweeps immediately and then at every interval until the context is
// cancelled. Sweep errors are logged, not fatal: the next tick retries.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("sweep failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// dirSize totals a directory's file sizes, best-effort.
func dirSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
