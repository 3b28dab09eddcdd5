package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/talentpipe/importer/internal/schema"
)

// SuggestMapping proposes a best-effort mapping from raw column headers to
// schema fields using normalized string comparison. Headers with no match
// stay unmapped; the operator maps them manually or they are skipped on
// import. Matching never consults row values, so the suggestion is
// deterministic and independent of data volume.
//
// Tie-break: the first schema field in declared order wins if several
// fields normalize identically (should not occur in a well-formed schema).
func SuggestMapping(headers []string, ent schema.Entity) Mapping {
	m := NewMapping()

	for _, h := range headers {
		nh := NormalizeHeader(h)
		if nh == "" {
			continue
		}
		for _, f := range ent.Fields {
			if nh == NormalizeHeader(f.Name) || nh == NormalizeHeader(f.Label) {
				m = m.Set(h, f.Name)
				break
			}
		}
	}

	return m
}

// NormalizeHeader reduces a header to its comparable core: lowercase,
// diacritics stripped, every non-alphanumeric separator removed.
// "First Name", "first_name", and "FirstName" all normalize to
// "firstname".
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}

	s = stripDiacritics(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripDiacritics decomposes to NFD and drops combining marks, so "Prénom"
// compares equal to "Prenom".
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))

	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}
