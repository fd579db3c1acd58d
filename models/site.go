package models

import (
	"strings"
	"time"
)

// Site is a user-registered crawl source: a list page whose anchors identify
// candidate posts, plus the CSS selectors used to extract content from each
// post page.
//
// Optional selectors are stored as empty strings rather than NULLs; an empty
// selector means "not configured" everywhere in the engine.
type Site struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// URL is the site origin, used as the base when resolving relative hrefs.
	URL string `db:"url" json:"url"`

	// URLList is the list-page URL crawled for new post links.
	URLList string `db:"url_list" json:"url_list"`

	// PathLink selects the anchors on the list page whose href is a
	// candidate post URL.
	PathLink string `db:"path_link" json:"path_link"`

	PathTitle   string `db:"path_title" json:"path_title"`
	PathContent string `db:"path_content" json:"path_content"`
	PathImage   string `db:"path_image" json:"path_image"`
	PathVideo   string `db:"path_video" json:"path_video"`

	// PathRemove is a comma-separated list of selectors whose matches are
	// removed from the DOM before extraction.
	PathRemove string `db:"path_remove" json:"path_remove"`

	Screenshot bool `db:"screenshot" json:"screenshot"`

	// Status false disables the site for both discovery and fetch.
	Status bool `db:"status" json:"status"`

	UserID    int64     `db:"user_id" json:"user_id"`
	APIKeyID  int64     `db:"api_key_id" json:"api_key_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RemoveSelectors parses PathRemove into a trimmed, non-empty selector list.
func (s *Site) RemoveSelectors() []string {
	if s.PathRemove == "" {
		return nil
	}
	parts := strings.Split(s.PathRemove, ",")
	selectors := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			selectors = append(selectors, trimmed)
		}
	}
	return selectors
}
