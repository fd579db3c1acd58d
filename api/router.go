// Package api wires the HTTP surface: routing, authentication and rate
// limiting.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/gleaner/api/handler"
	"github.com/use-agent/gleaner/api/middleware"
	"github.com/use-agent/gleaner/cleaner"
	"github.com/use-agent/gleaner/config"
	"github.com/use-agent/gleaner/scraper"
	"github.com/use-agent/gleaner/store"
)

// Stores bundles the persistence handles the router needs.
type Stores struct {
	Sites *store.SiteStore
	Posts *store.PostStore
	Users *store.UserStore
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth → RateLimit
//	Admin:   Auth → RateLimit → RequireAdmin
//
// Health endpoint is intentionally outside auth so monitoring probes always
// work.
func NewRouter(sc *scraper.Scraper, cl *cleaner.Cleaner, st Stores, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health, no auth required.
	v1.GET("/health", handler.Health(sc, startTime))

	// Protected group, auth + rate limit.
	protected := v1.Group("")
	protected.Use(middleware.Auth(st.Users, cfg.Auth.HMACKey))
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Sites
	protected.GET("/sites", handler.ListSites(st.Sites))
	protected.POST("/sites", handler.CreateSite(st.Sites))
	protected.GET("/sites/:id", handler.ShowSite(st.Sites))
	protected.PUT("/sites/:id", handler.UpdateSite(st.Sites))
	protected.DELETE("/sites/:id", handler.DeleteSite(st.Sites))

	// Posts
	protected.GET("/posts", handler.ListPosts(st.Posts))
	protected.GET("/post-by-url", handler.ShowPostByURL(st.Posts))
	protected.GET("/posts/:id", handler.ShowPost(st.Posts, cl))
	protected.DELETE("/posts/:id", handler.DeletePost(st.Posts))

	// Admin
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.POST("/users", handler.CreateUser(st.Users, cfg.Auth.HMACKey))
	admin.POST("/users/:id/keys", handler.CreateKey(st.Users, cfg.Auth.HMACKey))

	return r
}
