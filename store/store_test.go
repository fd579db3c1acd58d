package store

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/gleaner/config"
	"github.com/use-agent/gleaner/models"
)

var testDBSeq atomic.Int64

// openTestDB opens a fresh in-memory database for one test. cache=shared
// keeps all pool connections on the same in-memory instance.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	url := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, testDBSeq.Add(1))

	db, err := Open(config.DatabaseConfig{
		URL:            url,
		MaxOpenConns:   4,
		MaxIdleConns:   4,
		ConnectTimeout: 5 * time.Second,
		IdleTimeout:    time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(db))
	return db
}

// seedTenant creates a user with one API key and returns their ids.
func seedTenant(t *testing.T, db *sqlx.DB, name string, isAdmin bool) (userID, keyID int64) {
	t.Helper()
	ctx := context.Background()

	users := NewUserStore(db)
	user, err := users.CreateUser(ctx, name, isAdmin)
	require.NoError(t, err)

	key, err := users.CreateAPIKey(ctx, user.ID, HashKey("test-secret", GenerateKey()))
	require.NoError(t, err)

	return user.ID, key.ID
}

// seedSite creates an enabled site owned by the tenant.
func seedSite(t *testing.T, db *sqlx.DB, userID, keyID int64, name string) *models.Site {
	t.Helper()

	sites := NewSiteStore(db)
	site, err := sites.Create(context.Background(), models.SiteForm{
		Name:     name,
		URL:      "https://" + name + ".example.com",
		URLList:  "https://" + name + ".example.com/news",
		PathLink: "a.post",
	}, userID, keyID)
	require.NoError(t, err)
	return site
}
