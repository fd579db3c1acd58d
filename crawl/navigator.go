package crawl

import (
	"context"

	"github.com/use-agent/gleaner/scraper"
)

type rodNavigator struct {
	sc *scraper.Scraper
}

// NewRodNavigator adapts the rod-backed scraper to the Navigator interface.
func NewRodNavigator(sc *scraper.Scraper) Navigator {
	return rodNavigator{sc: sc}
}

func (n rodNavigator) Open(ctx context.Context, url string, width, height int) (Page, error) {
	page, err := n.sc.Open(ctx, url, width, height)
	if err != nil {
		return nil, err
	}
	return page, nil
}
