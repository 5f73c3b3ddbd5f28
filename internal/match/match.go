// Package match implements fuzzy personnel-name matching. Assignment fields
// in the workbook are free-text ("Dela Cruz, Juan / P. Santos and R. Reyes"),
// so matching tolerates reordered tokens, initials-free subsets, diacritics,
// and several join characters. The dashboard previously carried four diverging
// copies of this; this is the single one.
package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var splitPattern = regexp.MustCompile(`(?i)[,/;&]+|\band\b`)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize produces the comparison form of a name: diacritics stripped,
// non-alphanumerics collapsed to single spaces, lowercased.
func Normalize(name string) string {
	decomposed, _, err := transform.String(stripMarks, name)
	if err != nil {
		decomposed = name
	}
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SplitNames breaks a free-text assignment field into candidate names. Fields
// join multiple people with commas, slashes, semicolons, ampersands, or the
// word "and".
func SplitNames(field string) []string {
	parts := splitPattern.Split(field, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// tokens returns the whitespace tokens of the normalized name, dropping
// single-character tokens so initials never force or break a match.
func tokens(name string) []string {
	fields := strings.Fields(Normalize(name))
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

// NameMatches reports whether userName refers to any of the people listed in
// field. A candidate matches on normalized equality, either-direction
// substring containment, or either-direction token-subset inclusion.
func NameMatches(userName, field string) bool {
	target := Normalize(userName)
	if target == "" {
		return false
	}
	targetTokens := tokens(userName)

	for _, name := range SplitNames(field) {
		candidate := Normalize(name)
		if candidate == "" {
			continue
		}
		if candidate == target {
			return true
		}
		if strings.Contains(candidate, target) || strings.Contains(target, candidate) {
			return true
		}
		candidateTokens := tokens(name)
		if len(targetTokens) == 0 || len(candidateTokens) == 0 {
			continue
		}
		if subset(targetTokens, candidateTokens) || subset(candidateTokens, targetTokens) {
			return true
		}
	}
	return false
}

func subset(inner, outer []string) bool {
	set := make(map[string]struct{}, len(outer))
	for _, tok := range outer {
		set[tok] = struct{}{}
	}
	for _, tok := range inner {
		if _, ok := set[tok]; !ok {
			return false
		}
	}
	return true
}
