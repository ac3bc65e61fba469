// Package hashtag extracts and normalizes hashtags from free-text notes.
// All functions are pure; extraction never fails and malformed input
// degrades to an empty result.
package hashtag

import (
	"regexp"
	"strings"
)

// MaxLen is the maximum length of a canonical tag. Longer runs are not
// tags and are dropped at extraction, never truncated (a truncated tag
// would collide with a tag the user never wrote).
const MaxLen = 50

// A hashtag is '#' followed by a run of [A-Za-z0-9_-], terminated by
// whitespace, one of . , ! ? ; : or end of input. A run terminated by any
// other character is not a tag, which makes "##test" extract exactly
// "test": the leading '#' cannot start a match, and the scan consumes
// "#test" as one token.
var (
	tagPattern   = regexp.MustCompile(`#([A-Za-z0-9_-]+)(?:[\s.,!?;:]|$)`)
	validPattern = regexp.MustCompile(`^#[A-Za-z0-9_-]+$`)
)

// Extract returns the canonical tags found in text, lowercased and
// deduplicated, in first-seen order. Empty or unparseable input yields nil.
func Extract(text string) []string {
	if text == "" || !strings.Contains(text, "#") {
		return nil
	}

	var tags []string
	seen := make(map[string]bool)
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		tag := strings.ToLower(m[1])
		if len(tag) > MaxLen || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// Normalize converts a raw tag spelling to its canonical form: strip the
// leading '#', trim surrounding whitespace, lowercase. Idempotent for all
// inputs; internal whitespace is left alone (a tag containing a space is
// not valid, but normalization must not choke on it).
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "#")
	s = strings.TrimSpace(s)
	return strings.ToLower(s)
}

// Format renders a canonical tag for display with a single leading '#'.
func Format(canonical string) string {
	if strings.HasPrefix(canonical, "#") {
		return canonical
	}
	return "#" + canonical
}

// IsValid reports whether s is a well-formed display tag: exactly one
// leading '#' and a 1-50 char remainder of [A-Za-z0-9_-].
func IsValid(s string) bool {
	return len(s) <= MaxLen+1 && validPattern.MatchString(s)
}
