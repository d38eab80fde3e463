// Package classify scores free-text headings against canonical labels
// using token-set similarity, so that documents phrasing the same concept
// differently ("Fee Structure", "Fees & Structure", "FEE STRUCTURE ")
// still resolve to one canonical id. The canonical tables are plain data
// supplied by the caller; the matching logic is generic.
package classify

import (
	"math"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// LevelDef is one canonical level with its accepted phrasings. Phrasings
// are compared by token-set similarity, so word order and repetition do
// not matter.
type LevelDef struct {
	ID    string   `json:"id" yaml:"id"`
	Title string   `json:"title" yaml:"title"`
	Match []string `json:"match" yaml:"match"`
}

// Classifier scores headings against a fixed level table and locates
// desired sections among detected headings. It is stateless and safe for
// concurrent use.
type Classifier struct {
	levels           []LevelDef
	levelThreshold   int
	sectionThreshold int
	lev              *metrics.Levenshtein
}

// New builds a classifier over the given level table. Thresholds are
// 0-100 scores; a zero threshold falls back to the conventional defaults
// (70 for levels, 65 for section location).
func New(levels []LevelDef, levelThreshold, sectionThreshold int) *Classifier {
	if levelThreshold <= 0 {
		levelThreshold = 70
	}
	if sectionThreshold <= 0 {
		sectionThreshold = 65
	}
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false
	return &Classifier{
		levels:           levels,
		levelThreshold:   levelThreshold,
		sectionThreshold: sectionThreshold,
		lev:              lev,
	}
}

// Levels exposes the configured level table.
func (c *Classifier) Levels() []LevelDef { return c.levels }

// SectionThreshold exposes the configured section acceptance score.
func (c *Classifier) SectionThreshold() int { return c.sectionThreshold }

// Level maps heading text to the best-scoring canonical level id. The
// second return is false when no phrasing clears the acceptance
// threshold; callers treat that as an ordinary unlabeled heading, never
// as an error.
func (c *Classifier) Level(text string) (string, bool) {
	best := 0
	bestID := ""
	for _, ld := range c.levels {
		for _, phrase := range ld.Match {
			if score := c.TokenSetRatio(text, phrase); score > best {
				best = score
				bestID = ld.ID
			}
		}
	}
	if best < c.levelThreshold {
		return "", false
	}
	return bestID, true
}

// LevelTitle returns the canonical title for a level id, or "" when the
// id is not in the table.
func (c *Classifier) LevelTitle(id string) string {
	for _, ld := range c.levels {
		if ld.ID == id {
			return ld.Title
		}
	}
	return ""
}

// LocateSections finds, for each desired section name, the single best
// fuzzy match among the detected headings, returning at most one heading
// index per name. Ties break toward the heading encountered first in
// document order. Headings below the section threshold are ignored.
func (c *Classifier) LocateSections(headings []string, targets []string) map[string]int {
	found := make(map[string]int)
	for _, desired := range targets {
		best := 0
		bestIdx := -1
		for i, h := range headings {
			// Strictly-greater keeps the first heading on equal scores.
			if score := c.TokenSetRatio(desired, h); score > best {
				best = score
				bestIdx = i
			}
		}
		if bestIdx >= 0 && best >= c.sectionThreshold {
			found[desired] = bestIdx
		}
	}
	return found
}

// LocateSection is LocateSections for a single target with an explicit
// threshold, used where individual labels carry their own acceptance
// scores.
func (c *Classifier) LocateSection(headings []string, target string, threshold int) (int, bool) {
	best := 0
	bestIdx := -1
	for i, h := range headings {
		if score := c.TokenSetRatio(target, h); score > best {
			best = score
			bestIdx = i
		}
	}
	if bestIdx < 0 || best < threshold {
		return 0, false
	}
	return bestIdx, true
}

// TokenSetRatio compares the word-token sets of two strings and returns
// a 0-100 similarity. Shared tokens are factored out so that strings
// differing only in word order, duplication, or extra qualifiers score
// high. A string with no tokens scores zero against anything.
func (c *Classifier) TokenSetRatio(a, b string) int {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var inter, diffA, diffB []string
	for _, tok := range ta {
		if contains(tb, tok) {
			inter = append(inter, tok)
		} else {
			diffA = append(diffA, tok)
		}
	}
	for _, tok := range tb {
		if !contains(ta, tok) {
			diffB = append(diffB, tok)
		}
	}

	base := strings.Join(inter, " ")
	s1 := joinNonEmpty(base, strings.Join(diffA, " "))
	s2 := joinNonEmpty(base, strings.Join(diffB, " "))

	score := math.Max(
		strutil.Similarity(base, s1, c.lev),
		math.Max(
			strutil.Similarity(base, s2, c.lev),
			strutil.Similarity(s1, s2, c.lev),
		),
	)
	return int(math.Round(score * 100))
}

// tokenSet lowercases, splits on non-alphanumeric runs, dedupes, and
// sorts the tokens of a string.
func tokenSet(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	seen := make(map[string]bool, len(fields))
	var toks []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			toks = append(toks, f)
		}
	}
	sort.Strings(toks)
	return toks
}

func contains(toks []string, tok string) bool {
	for _, t := range toks {
		if t == tok {
			return true
		}
	}
	return false
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}
