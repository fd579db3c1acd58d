package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/gleaner/api"
	"github.com/use-agent/gleaner/cleaner"
	"github.com/use-agent/gleaner/config"
	"github.com/use-agent/gleaner/crawl"
	"github.com/use-agent/gleaner/schedule"
	"github.com/use-agent/gleaner/scraper"
	"github.com/use-agent/gleaner/store"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("gleaner starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Open database and migrate ────────────────────────────────
	db, err := store.Open(cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := store.Migrate(db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Seed the first admin. The raw key is logged exactly once.
	if rawKey, err := store.SeedAdmin(context.Background(), db, cfg.Auth.HMACKey); err != nil {
		slog.Error("failed to seed admin user", "error", err)
		os.Exit(1)
	} else if rawKey != "" {
		slog.Info("seeded admin user; store this API key, it will not be shown again",
			"api_key", rawKey)
	}

	sites := store.NewSiteStore(db)
	posts := store.NewPostStore(db, cfg.Crawler.MaxRetry)
	users := store.NewUserStore(db)

	// ── 4. Initialise scraper (launches browser) ────────────────────
	sc, err := scraper.NewScraper(cfg.Browser)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 5. Wire the crawl engine ────────────────────────────────────
	nav := crawl.NewRodNavigator(sc)
	tracker := crawl.NewSiteErrorTracker()
	discovery := crawl.NewDiscovery(sites, posts, nav, tracker)
	fetchPool := crawl.NewFetchPool(posts, sites, nav, tracker, crawl.FetchConfig{
		Concurrency:         cfg.Crawler.Concurrency,
		PostTimeout:         cfg.Crawler.PostTimeout,
		BrowserStartTimeout: cfg.Crawler.BrowserStartTimeout,
		ScreenshotDir:       cfg.Crawler.ScreenshotDir,
	})
	retention := crawl.NewRetention(posts, cfg.Crawler.KeepLatest)

	// ── 6. Register schedules ───────────────────────────────────────
	sched := schedule.NewManager()

	err = sched.Register(schedule.Definition{
		Name:  "fetch_new_posts",
		Every: cfg.Crawler.CheckInterval,
		Tasks: []schedule.Task{
			schedule.TaskFunc{TaskName: "discovery", Fn: discovery.Run},
			schedule.TaskFunc{TaskName: "fetch", Fn: fetchPool.Run},
		},
	})
	if err != nil {
		slog.Error("failed to register fetch schedule", "error", err)
		os.Exit(1)
	}

	err = sched.Register(schedule.Definition{
		Name:  "cleanup_old_posts",
		Every: 24 * time.Hour,
		Tasks: []schedule.Task{
			schedule.TaskFunc{TaskName: "retention", Fn: retention.Run},
		},
	})
	if err != nil {
		slog.Error("failed to register cleanup schedule", "error", err)
		os.Exit(1)
	}

	sched.Start()
	defer sched.Stop()

	// ── 7. Setup router and start HTTP server ───────────────────────
	cl := cleaner.NewCleaner()
	startTime := time.Now()
	router := api.NewRouter(sc, cl, api.Stores{Sites: sites, Posts: posts, Users: users}, cfg, startTime)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Deferred: scheduler stops, browser pool drains, database closes.
	slog.Info("gleaner stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
