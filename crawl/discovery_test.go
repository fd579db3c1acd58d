package crawl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/gleaner/models"
)

func testSite() models.Site {
	return models.Site{
		ID:       1,
		Name:     "example",
		URL:      "https://example.com",
		URLList:  "https://example.com/news",
		PathLink: "a.post-link",
		UserID:   10,
		APIKeyID: 20,
	}
}

func TestDiscoveryCreatesPendingPosts(t *testing.T) {
	site := testSite()
	sites := &fakeSiteStore{sites: []models.Site{site}}
	posts := newFakePostStore()
	nav := newFakeNavigator()
	nav.pages[site.URLList] = &fakePage{
		hrefs: []string{"/posts/1", "/posts/2/", "https://other.com/x"},
	}

	d := NewDiscovery(sites, posts, nav, NewSiteErrorTracker())
	d.Run(context.Background())

	assert.Equal(t, []string{
		"https://example.com/posts/1",
		"https://example.com/posts/2",
		"https://other.com/x",
	}, posts.createdURLs())
	assert.Empty(t, sites.disabledIDs())
}

func TestDiscoverySkipsDuplicates(t *testing.T) {
	site := testSite()
	sites := &fakeSiteStore{sites: []models.Site{site}}
	posts := newFakePostStore()
	nav := newFakeNavigator()
	nav.pages[site.URLList] = &fakePage{
		hrefs: []string{"/posts/1", "/posts/1/", "/posts/1"},
	}

	d := NewDiscovery(sites, posts, nav, NewSiteErrorTracker())
	d.Run(context.Background())

	assert.Equal(t, []string{"https://example.com/posts/1"}, posts.createdURLs())
}

func TestDiscoverySkipsSiteWithoutLinkSelector(t *testing.T) {
	site := testSite()
	site.PathLink = ""
	sites := &fakeSiteStore{sites: []models.Site{site}}
	posts := newFakePostStore()
	nav := newFakeNavigator()
	nav.pages[site.URLList] = &fakePage{hrefs: []string{"/posts/1"}}

	d := NewDiscovery(sites, posts, nav, NewSiteErrorTracker())
	d.Run(context.Background())

	assert.Empty(t, posts.createdURLs())
}

func TestDiscoveryOpenFailureRegistersError(t *testing.T) {
	site := testSite()
	sites := &fakeSiteStore{sites: []models.Site{site}}
	posts := newFakePostStore()
	nav := newFakeNavigator()
	nav.openErr = assert.AnError
	tracker := NewSiteErrorTracker()

	d := NewDiscovery(sites, posts, nav, tracker)
	for i := 0; i < 4; i++ {
		d.Run(context.Background())
	}
	assert.Empty(t, sites.disabledIDs())

	d.Run(context.Background())
	assert.Equal(t, []int64{site.ID}, sites.disabledIDs(),
		"fifth consecutive failure disables the site")
}

func TestDiscoverySelectorWaitFailureRegistersError(t *testing.T) {
	site := testSite()
	sites := &fakeSiteStore{sites: []models.Site{site}}
	posts := newFakePostStore()
	nav := newFakeNavigator()
	nav.pages[site.URLList] = &fakePage{waitErr: assert.AnError}
	tracker := NewSiteErrorTracker()

	d := NewDiscovery(sites, posts, nav, tracker)
	d.Run(context.Background())

	assert.Empty(t, posts.createdURLs())
	assert.Equal(t, uint32(2), tracker.Register(site.ID), "one error was registered")
}

func TestDiscoverySuccessResetsErrorCount(t *testing.T) {
	site := testSite()
	sites := &fakeSiteStore{sites: []models.Site{site}}
	posts := newFakePostStore()
	nav := newFakeNavigator()
	nav.pages[site.URLList] = &fakePage{hrefs: []string{"/posts/1"}}
	tracker := NewSiteErrorTracker()

	// Four prior errors: one more would disable.
	for i := 0; i < 4; i++ {
		tracker.Register(site.ID)
	}

	d := NewDiscovery(sites, posts, nav, tracker)
	d.Run(context.Background())

	require.Empty(t, sites.disabledIDs())
	assert.Equal(t, uint32(1), tracker.Register(site.ID),
		"successful selector wait cleared the budget")
}

func TestDiscoveryRemoveFailureDoesNotBlock(t *testing.T) {
	site := testSite()
	site.PathRemove = ".ads, .cookie-banner"
	sites := &fakeSiteStore{sites: []models.Site{site}}
	posts := newFakePostStore()
	page := &fakePage{hrefs: []string{"/posts/1"}, removeErr: assert.AnError}
	nav := newFakeNavigator()
	nav.pages[site.URLList] = page
	tracker := NewSiteErrorTracker()

	d := NewDiscovery(sites, posts, nav, tracker)
	d.Run(context.Background())

	// A non-timeout removal failure is tolerated; extraction continues.
	assert.Equal(t, []string{"https://example.com/posts/1"}, posts.createdURLs())
	assert.Equal(t, [][]string{{".ads", ".cookie-banner"}}, page.removed)
	assert.Equal(t, uint32(1), tracker.Register(site.ID), "no error registered")
}

func TestDiscoveryCancelledContextStopsBeforeNextSite(t *testing.T) {
	first := testSite()
	second := testSite()
	second.ID = 2
	second.URLList = "https://example.com/other"
	sites := &fakeSiteStore{sites: []models.Site{first, second}}
	posts := newFakePostStore()
	nav := newFakeNavigator()
	nav.pages[first.URLList] = &fakePage{hrefs: []string{"/posts/1"}}
	nav.pages[second.URLList] = &fakePage{hrefs: []string{"/posts/2"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The first site is already in flight when cancellation lands; the
	// inter-site pause before the second site observes it and stops.
	d := NewDiscovery(sites, posts, nav, NewSiteErrorTracker())
	d.Run(ctx)

	assert.Equal(t, []string{"https://example.com/posts/1"}, posts.createdURLs())
}
