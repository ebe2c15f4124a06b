// Package locations implements the slug-addressed geographic hierarchy:
// the codec between display names and URL slugs, the versioned province
// cache, the top-down resolver, and the PSGC filter builder.
package locations

import (
	"regexp"
	"strings"
)

// AllMunicipalities is the URL sentinel meaning "no municipality filter".
const AllMunicipalities = "all"

const allMunicipalitiesLabel = "All Cities/Municipalities"

var (
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
	hyphenRun     = regexp.MustCompile(`-+`)
)

// Slugify converts a display name to its URL slug: lowercase, punctuation
// stripped, whitespace runs hyphenated, repeats and edges trimmed.
// Idempotent; empty input stays empty.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Unslugify approximates the display name for a slug by capitalizing each
// token. Lossy: "davao-del-norte" comes back "Davao Del Norte", not
// "Davao del Norte". Display fallback only, for use until the authoritative
// record is loaded.
func Unslugify(slug string) string {
	if slug == "" {
		return ""
	}
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
