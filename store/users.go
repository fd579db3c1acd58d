package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/use-agent/gleaner/models"
)

// UserStore persists users and their API keys.
type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Authenticate resolves a key hash to its API key and owning user. Disabled
// keys and disabled users both fail with ErrNotFound.
func (s *UserStore) Authenticate(ctx context.Context, keyHash string) (*models.APIKey, *models.User, error) {
	var row struct {
		models.APIKey
		User models.User `db:"user"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT k.*,
			u.id         AS "user.id",
			u.name       AS "user.name",
			u.is_admin   AS "user.is_admin",
			u.status     AS "user.status",
			u.created_at AS "user.created_at"
		FROM api_keys k
		INNER JOIN users u ON u.id = k.user_id
		WHERE k.key_hash = ? AND k.status = 1 AND u.status = 1`,
		keyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to authenticate api key: %w", err)
	}
	return &row.APIKey, &row.User, nil
}

// CreateUser inserts a user and returns it.
func (s *UserStore) CreateUser(ctx context.Context, name string, isAdmin bool) (*models.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, is_admin, status) VALUES (?, ?, 1)`, name, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to load created user: %w", err)
	}
	return &user, nil
}

// CreateAPIKey stores a key hash for a user and returns the key row.
func (s *UserStore) CreateAPIKey(ctx context.Context, userID int64, keyHash string) (*models.APIKey, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (user_id, key_hash, status) VALUES (?, ?, 1)`, userID, keyHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	var key models.APIKey
	if err := s.db.GetContext(ctx, &key, `SELECT * FROM api_keys WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to load created api key: %w", err)
	}
	return &key, nil
}
