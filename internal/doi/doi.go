// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package doi extracts citation identifiers from raw input and from
// persisted publication records.
package doi

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// urlPattern matches DOIs embedded in resolver URLs such as
// "https://doi.org/10.1145/3173574.3173739" or "https://dx.doi.org/...".
var urlPattern = regexp.MustCompile(`(?i)(?:dx\.)?doi\.org/(10\.\d+/[^/\s"'<>]+)`)

// barePattern matches a bare DOI and stops at the next slash, whitespace,
// quote, or angle bracket. Registrant length is not validated.
var barePattern = regexp.MustCompile(`10\.\d+/[^/\s"'<>]+`)

// Extract returns the DOI contained in input. Inputs starting with "http"
// are matched against the resolver URL pattern; inputs starting with "10."
// against the bare pattern. Any other shape yields ok == false.
func Extract(input string) (doi string, ok bool) {
	trimmed := strings.TrimSpace(input)

	if strings.HasPrefix(trimmed, "http") {
		if m := urlPattern.FindStringSubmatch(trimmed); m != nil {
			return m[1], true
		}
	}

	if strings.HasPrefix(trimmed, "10.") {
		if m := barePattern.FindString(trimmed); m != "" {
			return m, true
		}
	}

	return "", false
}

// Key returns the canonical comparison form of a DOI. DOIs are
// case-insensitive, so every map keyed by DOI uses Key.
func Key(doi string) string {
	return strings.ToLower(strings.TrimSpace(doi))
}

// Equal reports whether a and b name the same DOI.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// Slug returns a lower-case, filesystem-safe file stem for doi. Runs of
// characters other than letters and digits collapse to a single '-'.
func Slug(doi string) string {
	foldMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(foldMarks, Key(doi))
	if err != nil {
		folded = Key(doi)
	}

	var b strings.Builder
	dash := false
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
