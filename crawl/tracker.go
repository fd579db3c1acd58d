package crawl

import (
	"context"
	"log/slog"
	"sync"
)

// disableThreshold is the consecutive-error count at which a site is
// persisted as disabled.
const disableThreshold = 5

// SiteErrorTracker counts consecutive failures per site. The counts are
// process-local and intentionally not persisted: a restart grants every
// site a fresh budget.
type SiteErrorTracker struct {
	mu     sync.Mutex
	counts map[int64]uint32
}

func NewSiteErrorTracker() *SiteErrorTracker {
	return &SiteErrorTracker{counts: make(map[int64]uint32)}
}

// Register records one error for a site and returns the new count.
func (t *SiteErrorTracker) Register(siteID int64) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[siteID]++
	return t.counts[siteID]
}

// Reset clears a site's error count, e.g. after a successful list-page load.
func (t *SiteErrorTracker) Reset(siteID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.counts, siteID)
}

// blockSite registers one error against a site and disables it once the
// threshold is reached. The disable decision lives here, with the caller,
// not in the tracker.
func blockSite(ctx context.Context, tracker *SiteErrorTracker, sites SiteStore, siteID int64) {
	count := tracker.Register(siteID)
	if count < disableThreshold {
		return
	}
	slog.Warn("site reached error threshold, disabling",
		"site_id", siteID, "error_count", count)
	if err := sites.Disable(ctx, siteID); err != nil {
		slog.Error("failed to disable site", "site_id", siteID, "error", err)
		return
	}
	tracker.Reset(siteID)
}
