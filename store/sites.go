package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/use-agent/gleaner/models"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

// SiteStore persists crawl sources.
type SiteStore struct {
	db *sqlx.DB
}

func NewSiteStore(db *sqlx.DB) *SiteStore {
	return &SiteStore{db: db}
}

// SiteFilter narrows List to one tenant. Zero values mean no filter.
type SiteFilter struct {
	UserID   int64
	APIKeyID int64
}

// Enabled returns all sites with status = true, newest first. Disabled
// sites are invisible to discovery and fetch.
func (s *SiteStore) Enabled(ctx context.Context) ([]models.Site, error) {
	var sites []models.Site
	err := s.db.SelectContext(ctx, &sites,
		`SELECT * FROM sites WHERE status = 1 ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled sites: %w", err)
	}
	return sites, nil
}

// List returns one page of sites plus the filtered total.
func (s *SiteStore) List(ctx context.Context, f SiteFilter, page, perPage int) ([]models.Site, int, error) {
	where := `WHERE 1 = 1`
	args := []any{}
	if f.UserID != 0 {
		where += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if f.APIKeyID != 0 {
		where += ` AND api_key_id = ?`
		args = append(args, f.APIKeyID)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM sites `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count sites: %w", err)
	}

	var sites []models.Site
	query := `SELECT * FROM sites ` + where + ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, perPage, (page-1)*perPage)
	if err := s.db.SelectContext(ctx, &sites, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list sites: %w", err)
	}
	return sites, total, nil
}

func (s *SiteStore) ByID(ctx context.Context, siteID int64) (*models.Site, error) {
	var site models.Site
	err := s.db.GetContext(ctx, &site, `SELECT * FROM sites WHERE id = ?`, siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load site %d: %w", siteID, err)
	}
	return &site, nil
}

// Create inserts a site owned by the given user and API key and returns it.
func (s *SiteStore) Create(ctx context.Context, form models.SiteForm, userID, apiKeyID int64) (*models.Site, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sites
			(name, url, url_list, path_link, path_title, path_content,
			 path_image, path_video, path_remove, screenshot, status,
			 user_id, api_key_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		form.Name, form.URL, form.URLList, form.PathLink, form.PathTitle,
		form.PathContent, form.PathImage, form.PathVideo, form.PathRemove,
		form.Screenshot, form.EnabledStatus(), userID, apiKeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.ByID(ctx, id)
}

// Update replaces the mutable site fields and returns the updated row.
func (s *SiteStore) Update(ctx context.Context, siteID int64, form models.SiteForm) (*models.Site, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sites SET
			name = ?, url = ?, url_list = ?, path_link = ?, path_title = ?,
			path_content = ?, path_image = ?, path_video = ?, path_remove = ?,
			screenshot = ?, status = ?
		WHERE id = ?`,
		form.Name, form.URL, form.URLList, form.PathLink, form.PathTitle,
		form.PathContent, form.PathImage, form.PathVideo, form.PathRemove,
		form.Screenshot, form.EnabledStatus(), siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to update site %d: %w", siteID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.ByID(ctx, siteID)
}

// Disable sets status = false so the site is skipped by discovery and fetch.
func (s *SiteStore) Disable(ctx context.Context, siteID int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sites SET status = 0 WHERE id = ?`, siteID)
	if err != nil {
		return fmt.Errorf("failed to disable site %d: %w", siteID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SiteStore) Delete(ctx context.Context, siteID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, siteID)
	if err != nil {
		return fmt.Errorf("failed to delete site %d: %w", siteID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
