// Package scraper manages the headless browser and exposes the page
// operations the crawl engine drives: navigate, wait, query, remove,
// screenshot.
package scraper

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/gleaner/config"
	"github.com/use-agent/gleaner/models"
)

const (
	defaultViewportWidth  = 1920
	defaultViewportHeight = 1080

	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	acceptLanguage = "en-US,en;q=0.9"
)

// Scraper manages the global browser lifecycle and the page pool.
// It is safe for concurrent use.
type Scraper struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	cfg         config.BrowserConfig
	activePages atomic.Int32
}

// NewScraper launches a headless browser and initialises the reusable page
// pool.
func NewScraper(cfg config.BrowserConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewCrawlError(
			models.ErrCodeBrowser,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewCrawlError(
			models.ErrCodeBrowser,
			"failed to connect to browser",
			err,
		)
	}

	pool := rod.NewPagePool(cfg.MaxPages)
	slog.Info("page pool created", "maxPages", cfg.MaxPages)

	return &Scraper{
		browser:  browser,
		pagePool: pool,
		cfg:      cfg,
	}, nil
}

// Open borrows a tab from the pool, applies the desktop device profile, and
// navigates to url, waiting until the page load completes. Width and height
// default to 1920x1080 when zero.
//
// The ctx only bounds the open phase; subsequent Page operations take their
// own contexts. Callers must Close the returned Page to return the tab.
func (s *Scraper) Open(ctx context.Context, url string, width, height int) (*Page, error) {
	if width <= 0 {
		width = defaultViewportWidth
	}
	if height <= 0 {
		height = defaultViewportHeight
	}

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewCrawlError(
			models.ErrCodeBrowser,
			"failed to acquire page from pool",
			acquireErr,
		)
	}
	s.activePages.Add(1)

	release := func() {
		// about:blank uses the original page reference (without the open
		// context), so cleanup succeeds even after the context expired.
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
		s.activePages.Add(-1)
	}

	// Stealth and device profile must be installed before navigation.
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	p := page.Context(ctx)

	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      desktopUserAgent,
		AcceptLanguage: acceptLanguage,
	}); err != nil {
		release()
		return nil, models.NewCrawlError(models.ErrCodeBrowser, "failed to set user agent", err)
	}

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		release()
		return nil, models.NewCrawlError(models.ErrCodeBrowser, "failed to set viewport", err)
	}

	if err := p.Navigate(url); err != nil {
		release()
		return nil, models.NewCrawlError(models.ErrCodeNavigation, "navigation to target URL failed", err)
	}

	if err := p.WaitLoad(); err != nil {
		release()
		return nil, models.NewCrawlError(models.ErrCodeNavigation, "page load did not complete", err)
	}

	return &Page{
		page:    page,
		width:   width,
		height:  height,
		release: release,
	}, nil
}

// Stats returns a snapshot of the pool's current state.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		MaxPages:    s.cfg.MaxPages,
		ActivePages: int(s.activePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (s *Scraper) Close() {
	slog.Info("scraper shutting down: draining page pool")
	s.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	slog.Info("scraper shutting down: closing browser")
	s.browser.MustClose()
	slog.Info("scraper shutdown complete")
}
