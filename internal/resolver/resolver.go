// Package resolver derives canonical 11-character YouTube video IDs
// from arbitrary user-supplied link strings.
package resolver

import "regexp"

// A canonical video ID is exactly 11 characters of [A-Za-z0-9_-].
// urlPattern covers the structured shapes: watch?v=, /embed/, /v/,
// /e/, and short-domain youtu.be links. bareToken only matches a
// whole input that is nothing but an ID.
var (
	urlPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	bareToken  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// Resolve maps a raw link string to its canonical video ID. It is a
// pure function; the same input always yields the same result. A
// structured URL match takes precedence over the bare-token scan, and
// the bare-token scan only accepts inputs that are exactly an ID,
// never a substring. Empty input resolves to not-found.
func Resolve(input string) (string, bool) {
	if input == "" {
		return "", false
	}
	if m := urlPattern.FindStringSubmatch(input); m != nil {
		return m[1], true
	}
	if bareToken.MatchString(input) {
		return input, true
	}
	return "", false
}

// WatchURL returns the canonical watch-page URL for a video ID. New
// records store this normalized form rather than the raw pasted link.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
