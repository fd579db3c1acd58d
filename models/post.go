package models

import (
	"errors"
	"time"
)

// PostStatus is the lifecycle state of a post.
//
// PENDING and FAILED posts are re-selected by the fetch pool; COMPLETED and
// CANCELLED are terminal.
type PostStatus string

const (
	PostPending   PostStatus = "PENDING"
	PostCompleted PostStatus = "COMPLETED"
	PostFailed    PostStatus = "FAILED"
	PostCancelled PostStatus = "CANCELLED"
)

// ErrDuplicatePost signals that a post with the same (site_id, url) already
// exists. Discovery treats it as a no-op.
var ErrDuplicatePost = errors.New("post already exists for this site and url")

// Post is one unit of extracted content, uniquely identified per site by its
// URL.
type Post struct {
	ID    int64  `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
	Body  string `db:"body" json:"body"`
	Image string `db:"image" json:"image"`
	Video string `db:"video" json:"video"`
	URL   string `db:"url" json:"url"`

	SiteID   int64 `db:"site_id" json:"site_id"`
	UserID   int64 `db:"user_id" json:"user_id"`
	APIKeyID int64 `db:"api_key_id" json:"api_key_id"`

	// Retry counts fetch attempts; it never decreases.
	Retry  int        `db:"retry" json:"retry"`
	Status PostStatus `db:"status" json:"status"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PostCreate is the insert payload used by discovery. New posts start
// PENDING with retry 0; ownership fields are inherited from the site.
type PostCreate struct {
	URL      string
	SiteID   int64
	UserID   int64
	APIKeyID int64
}

// PostContent carries the fields extracted from a post page. Persisting it
// moves the post to COMPLETED.
type PostContent struct {
	Title string
	Body  string
	Image string
	Video string
}

// PostWithSite joins a pending post with its owning site for the fetch pool.
type PostWithSite struct {
	Post
	Site Site `db:"site"`
}
