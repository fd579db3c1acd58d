package crawl

import "strings"

// Normalize maps a raw href seen in the DOM to a canonical absolute URL
// against the site origin.
//
// The cleanup is deliberately minimal: trim whitespace and double quotes,
// drop trailing slashes, and join root-relative paths onto the base. Any
// other href (absolute, scheme-relative, query-only) is returned cleaned
// but otherwise unchanged; no protocol coercion or query canonicalisation
// is attempted.
func Normalize(base, raw string) string {
	if raw == "" {
		return raw
	}

	base = strings.TrimRight(strings.TrimSpace(base), "/")

	link := strings.TrimSpace(raw)
	link = strings.ReplaceAll(link, `"`, "")
	link = strings.TrimRight(link, "/")

	// Scheme-relative hrefs pass through; they already name a host.
	if strings.HasPrefix(link, "//") {
		return link
	}
	if rest, ok := strings.CutPrefix(link, "/"); ok {
		return base + "/" + rest
	}
	return link
}
