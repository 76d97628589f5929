package app

import "strings"

const (
	// listing photo for CMS entries; the CMS schema has no photo field yet
	cmsListImage = "/images/hotels/placeholder.jpg"
	noImage      = "/images/hotels/no-image.jpg"

	maxDetailImages = 5
	// provider photo count below which placeholders are mixed in
	minProviderImages = 4
)

var placeholderPool = []string{
	"/images/hotels/stock-01.jpg",
	"/images/hotels/stock-02.jpg",
	"/images/hotels/stock-03.jpg",
	"/images/hotels/stock-04.jpg",
	"/images/hotels/stock-05.jpg",
	"/images/hotels/stock-06.jpg",
	"/images/hotels/stock-07.jpg",
	"/images/hotels/stock-08.jpg",
}

// placeholderImages returns up to n distinct stock photos. The starting
// position is derived from seed so the same hotel always gets the same set.
func placeholderImages(seed string, n int) []string {
	if n > len(placeholderPool) {
		n = len(placeholderPool)
	}
	start := int(hash64(seed) % uint64(len(placeholderPool)))
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, placeholderPool[(start+i)%len(placeholderPool)])
	}
	return out
}

// detailImages collects distinct non-empty provider URLs in order, tops the
// list up with placeholders when fewer than four remain, and caps it at five.
// The result is never empty.
func detailImages(seed string, urls ...string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, maxDetailImages)
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || len(out) >= maxDetailImages {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	for _, u := range urls {
		add(u)
	}
	if len(out) < minProviderImages {
		for _, u := range placeholderImages(seed, len(placeholderPool)) {
			add(u)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
