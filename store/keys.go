package store

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GenerateKey produces a new raw API key. The raw key is returned to the
// caller exactly once; only its hash is persisted.
func GenerateKey() string {
	return "glk_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// HashKey computes the HMAC-SHA256 hex digest stored for an API key.
func HashKey(secret, key string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// SeedAdmin creates the admin user and its first API key when the users
// table is empty. It returns the raw key so the caller can log it, or an
// empty string when seeding was skipped.
func SeedAdmin(ctx context.Context, db *sqlx.DB, hmacKey string) (string, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`); err != nil {
		return "", fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return "", nil
	}

	res, err := db.ExecContext(ctx,
		`INSERT INTO users (name, is_admin, status) VALUES ('admin', 1, 1)`)
	if err != nil {
		return "", fmt.Errorf("failed to seed admin user: %w", err)
	}
	adminID, err := res.LastInsertId()
	if err != nil {
		return "", err
	}

	rawKey := GenerateKey()
	if _, err := db.ExecContext(ctx,
		`INSERT INTO api_keys (user_id, key_hash, status) VALUES (?, ?, 1)`,
		adminID, HashKey(hmacKey, rawKey)); err != nil {
		return "", fmt.Errorf("failed to seed admin api key: %w", err)
	}

	return rawKey, nil
}
