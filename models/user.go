package models

import "time"

// User owns sites and posts. Admin users may mutate any tenant's resources
// through the API; regular users only see their own.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`
	Status    bool      `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// APIKey authenticates API requests. Only the HMAC-SHA256 hash of the raw
// key is stored; the raw key is shown once at issuance.
type APIKey struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	KeyHash   string    `db:"key_hash" json:"-"`
	Status    bool      `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
