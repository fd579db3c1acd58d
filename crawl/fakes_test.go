package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/use-agent/gleaner/models"
)

// fakeSiteStore records Disable calls and serves a fixed site list.
type fakeSiteStore struct {
	mu       sync.Mutex
	sites    []models.Site
	disabled []int64

	enabledErr error
	disableErr error
}

func (s *fakeSiteStore) Enabled(ctx context.Context) ([]models.Site, error) {
	if s.enabledErr != nil {
		return nil, s.enabledErr
	}
	return s.sites, nil
}

func (s *fakeSiteStore) Disable(ctx context.Context, siteID int64) error {
	if s.disableErr != nil {
		return s.disableErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = append(s.disabled, siteID)
	return nil
}

func (s *fakeSiteStore) disabledIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.disabled...)
}

// fakePostStore records mutations in memory.
type fakePostStore struct {
	mu      sync.Mutex
	created []models.PostCreate
	updated map[int64]models.PostContent
	failed  []int64
	pending []models.PostWithSite

	createErr  error
	pendingErr error
	updateErr  error

	cleanupDeleted int64
	cleanupCalls   []int64
	cleanupErr     error
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{updated: make(map[int64]models.PostContent)}
}

func (s *fakePostStore) Create(ctx context.Context, p models.PostCreate) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.created {
		if existing.SiteID == p.SiteID && existing.URL == p.URL {
			return models.ErrDuplicatePost
		}
	}
	s.created = append(s.created, p)
	return nil
}

func (s *fakePostStore) PendingWithSites(ctx context.Context) ([]models.PostWithSite, error) {
	if s.pendingErr != nil {
		return nil, s.pendingErr
	}
	return s.pending, nil
}

func (s *fakePostStore) UpdateContent(ctx context.Context, postID int64, c models.PostContent) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated[postID] = c
	return nil
}

func (s *fakePostStore) MarkFailed(ctx context.Context, postID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, postID)
	return nil
}

func (s *fakePostStore) CleanupOld(ctx context.Context, keepLatest int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupCalls = append(s.cleanupCalls, keepLatest)
	if s.cleanupErr != nil {
		return 0, s.cleanupErr
	}
	return s.cleanupDeleted, nil
}

func (s *fakePostStore) createdURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	urls := make([]string, len(s.created))
	for i, p := range s.created {
		urls[i] = p.URL
	}
	return urls
}

func (s *fakePostStore) failedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.failed...)
}

func (s *fakePostStore) updatedContent(postID int64) (models.PostContent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.updated[postID]
	return c, ok
}

// fakePage serves canned extraction results.
type fakePage struct {
	waitErr error

	texts map[string]string
	htmls map[string]string
	attrs map[string]string
	hrefs []string

	attrsErr  error
	removeErr error

	// delay is applied to every operation, for timeout tests.
	delay time.Duration

	// panicOn triggers a panic inside Text, for panic containment tests.
	panicOn bool

	mu        sync.Mutex
	closed    bool
	removed   [][]string
	shotPaths []string
}

func (p *fakePage) wait(ctx context.Context) error {
	if p.delay == 0 {
		return nil
	}
	select {
	case <-time.After(p.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *fakePage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return p.waitErr
}

func (p *fakePage) Text(ctx context.Context, selector string) (string, error) {
	if p.panicOn {
		panic("selector engine exploded")
	}
	if err := p.wait(ctx); err != nil {
		return "", err
	}
	return p.texts[selector], nil
}

func (p *fakePage) HTML(ctx context.Context, selector string) (string, error) {
	if err := p.wait(ctx); err != nil {
		return "", err
	}
	return p.htmls[selector], nil
}

func (p *fakePage) Attr(ctx context.Context, selector, name string) (string, error) {
	if err := p.wait(ctx); err != nil {
		return "", err
	}
	return p.attrs[selector], nil
}

func (p *fakePage) Attrs(ctx context.Context, selector, name string) ([]string, error) {
	if p.attrsErr != nil {
		return nil, p.attrsErr
	}
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return p.hrefs, nil
}

func (p *fakePage) Remove(ctx context.Context, selectors []string) error {
	p.mu.Lock()
	p.removed = append(p.removed, selectors)
	p.mu.Unlock()
	if p.removeErr != nil {
		return p.removeErr
	}
	return p.wait(ctx)
}

func (p *fakePage) Screenshot(ctx context.Context, path string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shotPaths = append(p.shotPaths, path)
	return path, nil
}

func (p *fakePage) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// fakeNavigator hands out pages per URL and can fail or stall on open.
type fakeNavigator struct {
	mu      sync.Mutex
	pages   map[string]*fakePage
	openErr error

	// openDelay stalls Open until the context expires, for timeout tests.
	openDelay time.Duration

	// active tracks concurrent open pages; maxActive is the high watermark.
	active    int
	maxActive int
}

func newFakeNavigator() *fakeNavigator {
	return &fakeNavigator{pages: make(map[string]*fakePage)}
}

func (n *fakeNavigator) Open(ctx context.Context, url string, width, height int) (Page, error) {
	if n.openErr != nil {
		return nil, n.openErr
	}
	if n.openDelay > 0 {
		select {
		case <-time.After(n.openDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	n.mu.Lock()
	n.active++
	if n.active > n.maxActive {
		n.maxActive = n.active
	}
	page, ok := n.pages[url]
	n.mu.Unlock()

	if !ok {
		page = &fakePage{}
	}
	return &trackedPage{fakePage: page, nav: n}, nil
}

func (n *fakeNavigator) highWatermark() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.maxActive
}

// trackedPage decrements the navigator's active count on Close.
type trackedPage struct {
	*fakePage
	nav  *fakeNavigator
	once sync.Once
}

func (p *trackedPage) Close() {
	p.once.Do(func() {
		p.nav.mu.Lock()
		p.nav.active--
		p.nav.mu.Unlock()
	})
	p.fakePage.Close()
}
