package gallery

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/aouyang1/photobooth/util"
	mapset "github.com/deckarep/golang-set/v2"
)

// files younger than this are never treated as orphans, a save may still
// be registering them
const orphanGrace = time.Minute

// RetentionManager keeps the gallery under a composite limit and removes
// image files that are no longer registered.
type RetentionManager struct {
	gallery  *Gallery
	limit    int
	interval time.Duration
}

func NewRetentionManager(g *Gallery, limit int, interval time.Duration) *RetentionManager {
	return &RetentionManager{
		gallery:  g,
		limit:    limit,
		interval: interval,
	}
}

func (r *RetentionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Initial pass
	if _, err := r.Enforce(ctx); err != nil {
		slog.Warn("error while enforcing retention", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Enforce(ctx); err != nil {
				slog.Warn("error while enforcing retention", "error", err)
			}
		}
	}
}

// Enforce deletes the oldest captures above the limit and any unregistered
// files. It returns how many captures and files were removed.
func (r *RetentionManager) Enforce(ctx context.Context) (int, error) {
	removed := 0

	count, err := r.gallery.db.GetCaptureCount()
	if err != nil {
		return 0, err
	}
	if count > r.limit {
		oldest, err := r.gallery.db.GetOldestCaptures(count - r.limit)
		if err != nil {
			return 0, err
		}
		for _, c := range oldest {
			if err := r.gallery.Delete(ctx, c.Name); err != nil {
				slog.Warn("unable to remove old capture", "name", c.Name, "error", err)
				continue
			}
			slog.Info("removed old capture to enforce limit", "name", c.Name)
			removed++
		}
	}

	n, err := r.removeOrphans()
	if err != nil {
		return removed, err
	}
	return removed + n, nil
}

func (r *RetentionManager) removeOrphans() (int, error) {
	dirs, err := os.ReadDir(r.gallery.path)
	if err != nil {
		return 0, err
	}

	localFiles := mapset.NewSet[string]()
	cutoff := time.Now().Add(-orphanGrace)
	for dir := range slices.Values(dirs) {
		name := dir.Name()
		if dir.IsDir() || !util.SupportedExt.Contains(filepath.Ext(name)) {
			continue
		}
		info, err := dir.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		localFiles.Add(name)
	}

	names, err := r.gallery.db.GetAllCaptureNames()
	if err != nil {
		return 0, err
	}
	registered := mapset.NewSet[string]()
	for _, name := range names {
		registered.Add(name + captureExt)
	}

	toDelete := localFiles.Difference(registered).ToSlice()
	if len(toDelete) == 0 {
		return 0, nil
	}

	slog.Info("deleting unregistered capture files", "count", len(toDelete))
	removed := 0
	for _, name := range toDelete {
		if err := os.Remove(filepath.Join(r.gallery.path, name)); err != nil {
			slog.Warn("unable to remove unregistered file", "name", name, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
