// Package cleanup removes drafts nobody has touched for a long time. Drafts
// survive ordinary navigation away, so without the reaper an abandoned-but-
// never-confirmed draft would live forever.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/divu-hq/module-builder/internal/models"
	"github.com/divu-hq/module-builder/internal/revision"
)

// Store is the slice of the repository the reaper needs
type Store interface {
	GetStaleDrafts(ctx context.Context, idleSince time.Time) ([]*models.Draft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// Reaper periodically deletes drafts idle past the retention window
type Reaper struct {
	store     Store
	tracker   revision.Tracker
	interval  time.Duration
	retention time.Duration
}

// NewReaper creates a cleanup worker. tracker may be nil.
func NewReaper(store Store, tracker revision.Tracker, interval, retention time.Duration) *Reaper {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	return &Reaper{
		store:     store,
		tracker:   tracker,
		interval:  interval,
		retention: retention,
	}
}

// Start begins the cleanup worker in a goroutine
func (r *Reaper) Start(ctx context.Context) {
	go r.run(ctx)
}

func (r *Reaper) run(ctx context.Context) {
	slog.Info("draft reaper started", "interval", r.interval, "retention", r.retention)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Run immediately on start
	r.reap(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("draft reaper stopped")
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

// reap finds and removes drafts idle past the retention window
func (r *Reaper) reap(ctx context.Context) {
	slog.Debug("running reap cycle")

	cutoff := time.Now().Add(-r.retention)
	stale, err := r.store.GetStaleDrafts(ctx, cutoff)
	if err != nil {
		slog.Error("failed to get stale drafts", "error", err)
		return
	}

	if len(stale) == 0 {
		slog.Debug("no stale drafts found")
		return
	}

	slog.Info("found stale drafts", "count", len(stale), "cutoff", cutoff)

	for _, d := range stale {
		slog.Info("deleting stale draft",
			"id", d.ID,
			"author_id", d.AuthorID,
			"updated_at", d.UpdatedAt,
		)

		if err := r.store.DeleteDraft(ctx, d.ID); err != nil {
			slog.Error("failed to delete stale draft", "error", err, "id", d.ID)
			continue
		}

		if r.tracker != nil {
			if err := r.tracker.Forget(ctx, d.ID); err != nil {
				slog.Warn("failed to clear revision tracking", "id", d.ID, "error", err)
			}
		}
	}
}
