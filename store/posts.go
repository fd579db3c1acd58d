package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/use-agent/gleaner/models"
)

// PostStore persists extracted posts and drives their retry/status state
// machine.
type PostStore struct {
	db       *sqlx.DB
	maxRetry int
}

func NewPostStore(db *sqlx.DB, maxRetry int) *PostStore {
	return &PostStore{db: db, maxRetry: maxRetry}
}

// Create inserts a new PENDING post. A (site_id, url) collision returns
// models.ErrDuplicatePost.
func (s *PostStore) Create(ctx context.Context, p models.PostCreate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (url, site_id, user_id, api_key_id)
		VALUES (?, ?, ?, ?)`,
		p.URL, p.SiteID, p.UserID, p.APIKeyID)
	if isUniqueViolation(err) {
		return models.ErrDuplicatePost
	}
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// PendingWithSites returns all PENDING and FAILED posts joined with their
// owning site, newest first. Posts whose site row is gone are dropped by
// the inner join.
func (s *PostStore) PendingWithSites(ctx context.Context) ([]models.PostWithSite, error) {
	var rows []models.PostWithSite
	err := s.db.SelectContext(ctx, &rows, `
		SELECT p.*,
			s.id           AS "site.id",
			s.name         AS "site.name",
			s.url          AS "site.url",
			s.url_list     AS "site.url_list",
			s.path_link    AS "site.path_link",
			s.path_title   AS "site.path_title",
			s.path_content AS "site.path_content",
			s.path_image   AS "site.path_image",
			s.path_video   AS "site.path_video",
			s.path_remove  AS "site.path_remove",
			s.screenshot   AS "site.screenshot",
			s.status       AS "site.status",
			s.user_id      AS "site.user_id",
			s.api_key_id   AS "site.api_key_id",
			s.created_at   AS "site.created_at"
		FROM posts p
		INNER JOIN sites s ON s.id = p.site_id
		WHERE p.status IN ('PENDING', 'FAILED')
		ORDER BY p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending posts: %w", err)
	}
	return rows, nil
}

// UpdateContent persists extracted content, moves the post to COMPLETED,
// and bumps the retry counter for the attempt that produced the content.
func (s *PostStore) UpdateContent(ctx context.Context, postID int64, c models.PostContent) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET title = ?, body = ?, image = ?, video = ?,
			status = 'COMPLETED', retry = retry + 1
		WHERE id = ?`,
		c.Title, c.Body, c.Image, c.Video, postID)
	if err != nil {
		return fmt.Errorf("failed to update post %d: %w", postID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed advances the retry counter and moves the post to FAILED, or to
// CANCELLED once the retry budget is exhausted. Retry and status move
// together in a single statement so the transition is atomic.
// A missing post is a no-op.
func (s *PostStore) MarkFailed(ctx context.Context, postID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET retry = retry + 1,
			status = CASE WHEN retry + 1 >= ? THEN 'CANCELLED' ELSE 'FAILED' END
		WHERE id = ?`,
		s.maxRetry, postID)
	if err != nil {
		return fmt.Errorf("failed to mark post %d failed: %w", postID, err)
	}
	return nil
}

// CleanupOld deletes every post below the retention boundary: the id of the
// post at offset keepLatest-1 in descending-id order. Deleting by boundary
// id keeps the DELETE a single predicate instead of a LIMIT/OFFSET delete.
// Returns the number of rows removed.
func (s *PostStore) CleanupOld(ctx context.Context, keepLatest int64) (int64, error) {
	if keepLatest == 0 {
		return 0, nil
	}

	var boundaryID int64
	err := s.db.GetContext(ctx, &boundaryID,
		`SELECT id FROM posts ORDER BY id DESC LIMIT 1 OFFSET ?`, keepLatest-1)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find retention boundary: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id < ?`, boundaryID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old posts: %w", err)
	}
	return res.RowsAffected()
}

// PostFilter narrows List. Zero values mean no filter; PostID is an
// exclusive lower watermark on the post id.
type PostFilter struct {
	SiteID   int64
	UserID   int64
	APIKeyID int64
	PostID   int64
}

// List returns one page of posts plus the filtered total, newest first.
func (s *PostStore) List(ctx context.Context, f PostFilter, page, perPage int) ([]models.Post, int, error) {
	where := `WHERE id > ?`
	args := []any{f.PostID}
	if f.SiteID != 0 {
		where += ` AND site_id = ?`
		args = append(args, f.SiteID)
	}
	if f.UserID != 0 {
		where += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if f.APIKeyID != 0 {
		where += ` AND api_key_id = ?`
		args = append(args, f.APIKeyID)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM posts `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	var posts []models.Post
	query := `SELECT * FROM posts ` + where + ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, perPage, (page-1)*perPage)
	if err := s.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, total, nil
}

func (s *PostStore) ByID(ctx context.Context, postID int64) (*models.Post, error) {
	var post models.Post
	err := s.db.GetContext(ctx, &post, `SELECT * FROM posts WHERE id = ?`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post %d: %w", postID, err)
	}
	return &post, nil
}

func (s *PostStore) ByURL(ctx context.Context, url string) (*models.Post, error) {
	var post models.Post
	err := s.db.GetContext(ctx, &post, `SELECT * FROM posts WHERE url = ? LIMIT 1`, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post by url: %w", err)
	}
	return &post, nil
}

func (s *PostStore) Delete(ctx context.Context, postID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post %d: %w", postID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
