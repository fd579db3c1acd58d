package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/use-agent/gleaner/models"
)

// FetchConfig bounds the fetch pool.
type FetchConfig struct {
	// Concurrency is the maximum number of posts processed in parallel.
	Concurrency int

	// PostTimeout is the hard deadline on one post's entire processing.
	PostTimeout time.Duration

	// BrowserStartTimeout bounds the browser open inside that deadline.
	BrowserStartTimeout time.Duration

	// ScreenshotDir is where per-post screenshots are written.
	ScreenshotDir string
}

type workerOutcome int

const (
	outcomeCompleted workerOutcome = iota
	outcomeTimedOut
	outcomePanicked
)

type workerResult struct {
	postID  int64
	outcome workerOutcome
}

// fetchFailure carries the short reason recorded when a post attempt fails.
type fetchFailure struct {
	reason string
	err    error
}

func (e *fetchFailure) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.reason, e.err)
	}
	return e.reason
}

func (e *fetchFailure) Unwrap() error { return e.err }

// FetchPool drains PENDING and FAILED posts with bounded parallelism,
// extracts content from each post page, and drives the post state machine:
// success moves a post to COMPLETED, any failure advances its retry counter
// toward CANCELLED.
type FetchPool struct {
	posts   PostStore
	sites   SiteStore
	nav     Navigator
	tracker *SiteErrorTracker
	cfg     FetchConfig
}

func NewFetchPool(posts PostStore, sites SiteStore, nav Navigator, tracker *SiteErrorTracker, cfg FetchConfig) *FetchPool {
	return &FetchPool{posts: posts, sites: sites, nav: nav, tracker: tracker, cfg: cfg}
}

// Run executes one fetch tick. The live worker set is seeded up to the
// concurrency bound and refilled as workers finish, so at no instant do
// more than cfg.Concurrency posts process at once. An empty queue returns
// immediately without spawning anything.
func (f *FetchPool) Run(ctx context.Context) {
	jobs, err := f.posts.PendingWithSites(ctx)
	if err != nil {
		slog.Error("failed to load pending posts", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	results := make(chan workerResult)
	next, live := 0, 0

	for next < len(jobs) && live < f.cfg.Concurrency {
		go f.worker(ctx, jobs[next], results)
		next++
		live++
	}

	for live > 0 {
		r := <-results
		live--

		if next < len(jobs) {
			go f.worker(ctx, jobs[next], results)
			next++
			live++
		}

		switch r.outcome {
		case outcomeTimedOut:
			f.markFailed(ctx, r.postID, "processing timed out")
		case outcomePanicked:
			f.markFailed(ctx, r.postID, "task panicked")
		}
	}
}

// worker processes one post under the per-post deadline. A panic anywhere
// below is trapped and reported as an outcome so it cannot poison the pool.
func (f *FetchPool) worker(ctx context.Context, job models.PostWithSite, results chan<- workerResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("fetch worker panicked", "post_id", job.ID, "panic", rec)
			results <- workerResult{postID: job.ID, outcome: outcomePanicked}
		}
	}()

	wctx, cancel := context.WithTimeout(ctx, f.cfg.PostTimeout)
	err := f.processPost(wctx, job)
	timedOut := errors.Is(wctx.Err(), context.DeadlineExceeded)
	cancel()

	if timedOut {
		results <- workerResult{postID: job.ID, outcome: outcomeTimedOut}
		return
	}
	if err != nil {
		f.markFailed(ctx, job.ID, failureReason(err))
	}
	results <- workerResult{postID: job.ID, outcome: outcomeCompleted}
}

func (f *FetchPool) processPost(ctx context.Context, job models.PostWithSite) error {
	post, site := job.Post, job.Site

	octx, ocancel := context.WithTimeout(ctx, f.cfg.BrowserStartTimeout)
	page, err := f.nav.Open(octx, post.URL, 0, 0)
	startTimedOut := errors.Is(octx.Err(), context.DeadlineExceeded)
	ocancel()
	if err != nil {
		if startTimedOut {
			slog.Warn("browser startup timeout for post",
				"post_id", post.ID, "timeout", f.cfg.BrowserStartTimeout)
			return &fetchFailure{reason: "browser initialization timed out", err: err}
		}
		slog.Error("browser failed to start for post", "post_id", post.ID, "error", err)
		return &fetchFailure{reason: "browser initialization failed", err: err}
	}
	defer page.Close()

	if selectors := site.RemoveSelectors(); len(selectors) > 0 {
		if removeErr := page.Remove(ctx, selectors); removeErr != nil {
			slog.Warn("failed to remove elements", "site_id", site.ID, "error", removeErr)
		}
	}

	// Each field defaults to empty when its selector is unset or fails.
	var title, image, video, body string
	if site.PathTitle != "" {
		title = valueOrEmpty(page.Text(ctx, site.PathTitle))
	}
	if site.PathImage != "" {
		image = Normalize(site.URL, valueOrEmpty(page.Attr(ctx, site.PathImage, "src")))
	}
	if site.PathVideo != "" {
		video = Normalize(site.URL, valueOrEmpty(page.Attr(ctx, site.PathVideo, "src")))
	}
	if site.PathContent != "" {
		body = valueOrEmpty(page.HTML(ctx, site.PathContent))
	}

	if title == "" && image == "" && video == "" && body == "" {
		blockSite(ctx, f.tracker, f.sites, site.ID)
		return &fetchFailure{reason: "no content extracted"}
	}

	if site.Screenshot {
		path := filepath.Join(f.cfg.ScreenshotDir, fmt.Sprintf("post_%d.jpeg", post.ID))
		if _, shotErr := page.Screenshot(ctx, path); shotErr != nil {
			slog.Warn("failed to capture post screenshot", "post_id", post.ID, "error", shotErr)
		}
	}

	if err := f.posts.UpdateContent(ctx, post.ID, models.PostContent{
		Title: title,
		Body:  body,
		Image: image,
		Video: video,
	}); err != nil {
		slog.Error("failed to update post", "post_id", post.ID, "error", err)
		return &fetchFailure{reason: "database update failed", err: err}
	}

	return nil
}

// markFailed records the failure reason and advances the post's retry/status
// state machine.
func (f *FetchPool) markFailed(ctx context.Context, postID int64, reason string) {
	slog.Error("post failed", "post_id", postID, "reason", reason)
	if err := f.posts.MarkFailed(ctx, postID); err != nil {
		slog.Error("failed to mark post failed", "post_id", postID, "error", err)
	}
}

func failureReason(err error) string {
	var f *fetchFailure
	if errors.As(err, &f) {
		return f.reason
	}
	return "processing failed"
}

func valueOrEmpty(s string, err error) string {
	if err != nil {
		return ""
	}
	return s
}
