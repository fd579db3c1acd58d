package cleaner

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
)

// ValidateSelector rejects a CSS selector that cascadia cannot parse. Used at
// site create/update time so broken selectors fail fast instead of at crawl
// time.
func ValidateSelector(selector string) error {
	if strings.TrimSpace(selector) == "" {
		return nil
	}
	if _, err := cascadia.Parse(selector); err != nil {
		return fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return nil
}

// ValidateSelectorList validates a comma separated list of selectors, the
// storage format of a site's removal list.
func ValidateSelectorList(list string) error {
	for _, sel := range strings.Split(list, ",") {
		if err := ValidateSelector(sel); err != nil {
			return err
		}
	}
	return nil
}
