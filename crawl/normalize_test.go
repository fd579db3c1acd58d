package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	base := "https://example.com"

	tests := []struct {
		name string
		base string
		raw  string
		want string
	}{
		{"empty href", base, "", ""},
		{"root relative", base, "/posts/1", "https://example.com/posts/1"},
		{"root relative with trailing slash", base, "/posts/1/", "https://example.com/posts/1"},
		{"absolute unchanged", base, "https://other.com/a", "https://other.com/a"},
		{"scheme relative unchanged", base, "//cdn.example.com/img.png", "//cdn.example.com/img.png"},
		{"whitespace trimmed", base, "  /posts/2  ", "https://example.com/posts/2"},
		{"quotes stripped", base, `"/posts/3"`, "https://example.com/posts/3"},
		{"base trailing slash dropped", "https://example.com/", "/posts/4", "https://example.com/posts/4"},
		{"relative path unchanged", base, "posts/5", "posts/5"},
		{"query only unchanged", base, "?page=2", "?page=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.base, tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	base := "https://example.com"
	once := Normalize(base, "/posts/1/")
	twice := Normalize(base, once)
	assert.Equal(t, once, twice)
}
