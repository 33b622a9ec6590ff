// Package validation implements the quality gate that generated content must
// pass before it can enter the approval cache.
//
// Validate is pure: it reads only its input and the thresholds it was built
// with, and it runs every check so that several issues may be reported at
// once. The only exception is a missing tier, which yields the single
// terminal issue IssueIncomplete.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/daily-tiers/internal/domain"
)

// Issue codes. These strings are persisted with cache entries and returned by
// the admin API, so they must stay stable.
const (
	IssueIncomplete     = "incomplete"
	IssueDuplicateTiers = "duplicate_tiers"
	IssueErrorMarker    = "error_marker"

	suffixBelowMin       = "_below_min_length"
	suffixExcessNewlines = "_excess_newlines"
)

// Tier names used as issue code prefixes.
const (
	TierShort  = "short"
	TierMedium = "medium"
	TierLong   = "long"
)

// BelowMin returns the issue code for a tier shorter than its minimum.
func BelowMin(tier string) string { return tier + suffixBelowMin }

// ExcessNewlines returns the issue code for a tier with too many line breaks.
func ExcessNewlines(tier string) string { return tier + suffixExcessNewlines }

// defaultMarkers match phrases a generator emits when reporting its own
// failure. They are anchored phrases, not bare keywords, so ordinary prose
// that mentions "error" passes.
var defaultMarkers = []*regexp.Regexp{
	regexp.MustCompile(`生成摘要时出错`),
	regexp.MustCompile(`请检查服务器日志`),
	regexp.MustCompile(`(?i)\bfailed to (generate|parse|call|fetch|connect)\b`),
	regexp.MustCompile(`(?im)^\s*error:\s`),
	regexp.MustCompile(`(?i)\b(internal server error|rate limit exceeded)\b`),
}

// Thresholds configures the length and formatting checks.
type Thresholds struct {
	MinShort        int
	MinMedium       int
	MinLong         int
	MaxNewlineRatio float64
}

// DefaultThresholds returns the production thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{MinShort: 200, MinMedium: 800, MinLong: 1500, MaxNewlineRatio: 0.02}
}

// Result is the outcome of a validation run.
type Result struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// Terminal reports whether the result contains an issue that retrying the
// same generation cannot fix.
func (r Result) Terminal() bool {
	for _, is := range r.Issues {
		if is == IssueIncomplete {
			return true
		}
	}
	return false
}

// Validator checks content against thresholds and failure markers.
type Validator struct {
	t       Thresholds
	markers []*regexp.Regexp
}

// New returns a Validator with the given thresholds and the built-in
// failure-marker patterns.
func New(t Thresholds) *Validator {
	return &Validator{t: t, markers: defaultMarkers}
}

// Validate runs all checks against c.
func (v *Validator) Validate(c domain.Content) Result {
	if !c.Complete() {
		return Result{Valid: false, Issues: []string{IssueIncomplete}}
	}

	tiers := []struct {
		name string
		text string
		min  int
	}{
		{TierShort, c.TierShort, v.t.MinShort},
		{TierMedium, c.TierMedium, v.t.MinMedium},
		{TierLong, c.TierLong, v.t.MinLong},
	}

	issues := []string{}
	for _, tr := range tiers {
		if utf8.RuneCountInString(tr.text) < tr.min {
			issues = append(issues, BelowMin(tr.name))
		}
	}
	if c.TierShort == c.TierMedium || c.TierShort == c.TierLong || c.TierMedium == c.TierLong {
		issues = append(issues, IssueDuplicateTiers)
	}
	for _, tr := range tiers {
		if newlineRatio(tr.text) > v.t.MaxNewlineRatio {
			issues = append(issues, ExcessNewlines(tr.name))
		}
	}
	for _, tr := range tiers {
		if v.hasMarker(tr.text) {
			issues = append(issues, IssueErrorMarker)
			break
		}
	}

	return Result{Valid: len(issues) == 0, Issues: issues}
}

func (v *Validator) hasMarker(s string) bool {
	for _, re := range v.markers {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func newlineRatio(s string) float64 {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return float64(strings.Count(s, "\n")) / float64(n)
}
