// Package slugs normalizes page names so lookups tolerate punctuation and case.
package slugs

import (
	"strings"

	goslug "github.com/gosimple/slug"
)

// PageSlug converts a page name to a comparable slug.
//
// Namespaced names ("project/alpha") slug each component and keep the "/".
// Names that slug to nothing (e.g. all punctuation) fall back to a lowercased,
// dash-joined form so distinct pages never collapse to "".
func PageSlug(name string) string {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".md")
	parts := strings.Split(name, "/")
	for i, part := range parts {
		parts[i] = componentSlug(part)
	}
	return strings.Join(parts, "/")
}

// SamePage reports whether two page names refer to the same page by slug.
func SamePage(a, b string) bool {
	sa, sb := PageSlug(a), PageSlug(b)
	return sa != "" && sa == sb
}

func componentSlug(s string) string {
	s = strings.TrimSpace(s)
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.Join(strings.Fields(s), "-"))
	}
	return slugged
}
