// Package courseid recovers course codes from free text and link targets
// through layered pattern matching. Rendered text is the more reliable
// carrier, so callers always try FromText before FromHref.
package courseid

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

var (
	// Codes are 2-4 letters followed by 3-4 digits, optionally separated
	// by a space or hyphen: "BSMA1001", "bsma 1001", "CS-2001".
	textRe = regexp.MustCompile(`\b[A-Za-z]{2,4}[ -]?\d{3,4}\b`)

	// Href fallbacks, in priority order.
	hrefIDParamRe = regexp.MustCompile(`[?&#]id=([A-Za-z0-9_-]+)`)
	hrefPathRe    = regexp.MustCompile(`/([A-Za-z]{2,4}\d{3,4})(?:\.|/|$)`)
	hrefLooseRe   = regexp.MustCompile(`([A-Za-z]{2,4}\d{3,4})`)

	separatorsRe = regexp.MustCompile(`[ -]`)
)

// Normalize uppercases a recovered code and strips separators, so the
// same course found as "bsma 1001" and "BSMA-1001" shares one identity.
func Normalize(code string) string {
	return strings.ToUpper(separatorsRe.ReplaceAllString(code, ""))
}

// FromText extracts the first course code found in free text.
func FromText(text string) (string, bool) {
	m := textRe.FindString(text)
	if m == "" {
		return "", false
	}
	return Normalize(m), true
}

// AllFromText extracts every distinct course code in text, preserving
// first-occurrence order.
func AllFromText(text string) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, m := range textRe.FindAllString(text, -1) {
		code := Normalize(m)
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes
}

// FromHref extracts a course code from a link target, trying an explicit
// id= query parameter, then a code-shaped path segment at a path
// boundary, then a loose match anywhere in the string. The first pattern
// to match wins.
func FromHref(href string) (string, bool) {
	if m := hrefIDParamRe.FindStringSubmatch(href); m != nil {
		return Normalize(m[1]), true
	}
	if m := hrefPathRe.FindStringSubmatch(href); m != nil {
		return Normalize(m[1]), true
	}
	if m := hrefLooseRe.FindStringSubmatch(href); m != nil {
		return Normalize(m[1]), true
	}
	return "", false
}

// Fallback derives a stable synthetic identifier from a course title for
// documents that never reveal a code. The same title always hashes to
// the same id, so repeated parses of the document still merge.
func Fallback(title string) string {
	h := fnv.New32a()
	h.Write([]byte(strings.ToUpper(strings.TrimSpace(title))))
	return fmt.Sprintf("COURSE-%08X", h.Sum32())
}
