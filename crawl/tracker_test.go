package crawl

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRegisterAndReset(t *testing.T) {
	tr := NewSiteErrorTracker()

	assert.Equal(t, uint32(1), tr.Register(7))
	assert.Equal(t, uint32(2), tr.Register(7))
	assert.Equal(t, uint32(1), tr.Register(9), "counts are per site")

	tr.Reset(7)
	assert.Equal(t, uint32(1), tr.Register(7), "reset clears the count")
}

func TestBlockSiteDisablesAtThreshold(t *testing.T) {
	tr := NewSiteErrorTracker()
	sites := &fakeSiteStore{}
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		blockSite(ctx, tr, sites, 42)
	}
	assert.Empty(t, sites.disabledIDs(), "below threshold the site stays enabled")

	blockSite(ctx, tr, sites, 42)
	require.Equal(t, []int64{42}, sites.disabledIDs())

	// The count was reset on disable, so the next errors start over.
	blockSite(ctx, tr, sites, 42)
	assert.Equal(t, []int64{42}, sites.disabledIDs(), "no second disable right away")
}

func TestBlockSiteKeepsCountWhenDisableFails(t *testing.T) {
	tr := NewSiteErrorTracker()
	sites := &fakeSiteStore{disableErr: assert.AnError}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		blockSite(ctx, tr, sites, 42)
	}

	// Disable failed, so the count was not reset and the next error
	// retries the disable.
	assert.Equal(t, uint32(6), tr.Register(42))
}

func TestTrackerConcurrentRegister(t *testing.T) {
	tr := NewSiteErrorTracker()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Register(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint32(101), tr.Register(1))
}
