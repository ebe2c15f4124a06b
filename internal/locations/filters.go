package locations

import "github.com/tiangge-ph/tiangge/bulletin"

// BuildFilters converts a resolved context to the PSGC-code query
// parameters the search endpoints accept. A level is included only when its
// record resolved and carries a code; slugs and ids are never emitted. Each
// level is judged on its own: a code-less province with a coded municipality
// still yields the municipality filter.
func BuildFilters(res Resolved) bulletin.SearchFilters {
	var f bulletin.SearchFilters
	if res.Province != nil && res.Province.PSGCCode != "" {
		f.Province = res.Province.PSGCCode
	}
	if res.Municipality != nil && res.Municipality.PSGCCode != "" {
		f.Municipality = res.Municipality.PSGCCode
	}
	if res.Barangay != nil && res.Barangay.PSGCCode != "" {
		f.Barangay = res.Barangay.PSGCCode
	}
	return f
}
