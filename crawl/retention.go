package crawl

import (
	"context"
	"log/slog"
)

// Retention deletes posts that fall outside the keep-latest window. The
// window is measured in post ids: the newest keepLatest posts survive,
// everything older is removed.
type Retention struct {
	posts      PostStore
	keepLatest int64
}

func NewRetention(posts PostStore, keepLatest int64) *Retention {
	return &Retention{posts: posts, keepLatest: keepLatest}
}

// Run executes one retention pass. A window of 0 disables cleanup.
func (r *Retention) Run(ctx context.Context) {
	if r.keepLatest == 0 {
		slog.Warn("post cleanup skipped: retention window is 0")
		return
	}

	deleted, err := r.posts.CleanupOld(ctx, r.keepLatest)
	if err != nil {
		slog.Error("post cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("removed old posts", "deleted", deleted, "keep_latest", r.keepLatest)
	}
}
