package locations

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/tiangge-ph/tiangge/bulletin"
	"github.com/tiangge-ph/tiangge/internal/metrics"
)

// LocationAPI is the slice of the bulletin API the resolver depends on.
type LocationAPI interface {
	Provinces(ctx context.Context) ([]bulletin.Province, error)
	Municipalities(ctx context.Context, provinceSlug string) ([]bulletin.Municipality, error)
	Barangays(ctx context.Context, municipalityIdentifier string) ([]bulletin.Barangay, error)
}

// Query is one navigation's location path, as taken from the URL:
// /{province}/{municipality}/{barangay}.
type Query struct {
	Province     string
	Municipality string // may be the AllMunicipalities sentinel
	Barangay     string // numeric id or slug
}

// Resolved is the location context for one navigation. A record is nil when
// its level did not resolve; the labels always carry a displayable name,
// falling back to Unslugify of the requested segment.
type Resolved struct {
	Province     *bulletin.Province
	Municipality *bulletin.Municipality
	Barangay     *bulletin.Barangay

	ProvinceLabel     string
	MunicipalityLabel string
	BarangayLabel     string

	// AmbiguousMunicipality is set when more than one municipality in the
	// province shares the requested slug. The first match was used; callers
	// that need a specific one must carry its PSGC code, a slug cannot
	// disambiguate.
	AmbiguousMunicipality bool

	// Suggestion is a near-miss candidate slug when a province or
	// municipality lookup found nothing, empty when nothing is close.
	Suggestion string
}

// Resolver maps URL slugs to canonical records, reading through the
// province cache and fetching the dependent lists per navigation.
type Resolver struct {
	api   LocationAPI
	cache *ProvinceCache
	log   zerolog.Logger

	// generation sequences navigations; a province fetch that completes
	// after a newer navigation has started is served but not written back.
	generation atomic.Uint64
}

func NewResolver(api LocationAPI, cache *ProvinceCache, log zerolog.Logger) *Resolver {
	return &Resolver{
		api:   api,
		cache: cache,
		log:   log.With().Str("component", "resolver").Logger(),
	}
}

// Cache exposes the province cache for maintenance surfaces (admin clear,
// background refresh).
func (r *Resolver) Cache() *ProvinceCache { return r.cache }

// ProvinceIndex returns the reference list for index pages, reading through
// the cache like any other navigation. Nil means the list could not be
// fetched.
func (r *Resolver) ProvinceIndex(ctx context.Context) []bulletin.Province {
	return r.provinces(ctx, r.generation.Add(1))
}

// Resolve builds the location context for q. Resolution is strictly
// top-down: a miss or fetch failure at one level leaves that level and
// everything below it nil. Resolve never fails; errors are logged and the
// returned context is always well-formed.
func (r *Resolver) Resolve(ctx context.Context, q Query) Resolved {
	res := Resolved{
		ProvinceLabel:     Unslugify(q.Province),
		MunicipalityLabel: fallbackMunicipalityLabel(q.Municipality),
		BarangayLabel:     Unslugify(q.Barangay),
	}

	gen := r.generation.Add(1)

	provinces := r.provinces(ctx, gen)
	provinceSlug := strings.ToLower(q.Province)
	for i := range provinces {
		if provinces[i].Slug == provinceSlug {
			res.Province = &provinces[i]
			break
		}
	}
	if res.Province == nil {
		if len(provinces) > 0 {
			metrics.LocationLookupMisses.WithLabelValues("province").Inc()
			res.Suggestion = nearestSlug(provinceSlug, provinceSlugs(provinces))
			r.log.Info().
				Str("province", q.Province).
				Str("suggestion", res.Suggestion).
				Msg("province not found")
		}
		return res
	}
	res.ProvinceLabel = res.Province.Name

	if q.Municipality == "" || q.Municipality == AllMunicipalities {
		return res
	}

	municipalities, err := r.api.Municipalities(ctx, res.Province.Slug)
	if err != nil {
		metrics.LocationFetchFailures.WithLabelValues("municipality").Inc()
		r.log.Error().Err(err).
			Str("province", res.Province.Slug).
			Msg("municipality fetch failed")
		return res
	}

	municipalitySlug := strings.ToLower(q.Municipality)
	var matches []int
	for i := range municipalities {
		if Slugify(municipalities[i].Name) == municipalitySlug {
			matches = append(matches, i)
		}
	}
	switch {
	case len(matches) == 0:
		metrics.LocationLookupMisses.WithLabelValues("municipality").Inc()
		res.Suggestion = nearestSlug(municipalitySlug, municipalitySlugs(municipalities))
		r.log.Info().
			Str("municipality", q.Municipality).
			Str("province", res.Province.Slug).
			Str("suggestion", res.Suggestion).
			Msg("municipality not found")
		return res
	case len(matches) > 1:
		// First match wins. Duplicate names are indistinguishable by slug;
		// precision requires the PSGC code.
		res.AmbiguousMunicipality = true
		metrics.AmbiguousMunicipalities.Inc()
		r.log.Warn().
			Str("municipality", q.Municipality).
			Str("province", res.Province.Slug).
			Int("matches", len(matches)).
			Msg("ambiguous municipality slug, using first match")
	}
	res.Municipality = &municipalities[matches[0]]
	res.MunicipalityLabel = res.Municipality.Name

	if q.Barangay == "" {
		return res
	}

	identifier := res.Municipality.PSGCCode
	if identifier == "" {
		identifier = Slugify(res.Municipality.Name)
	}
	barangays, err := r.api.Barangays(ctx, identifier)
	if err != nil {
		metrics.LocationFetchFailures.WithLabelValues("barangay").Inc()
		r.log.Error().Err(err).
			Str("municipality", identifier).
			Msg("barangay fetch failed")
		return res
	}

	// Numeric id takes precedence; slug is the fallback.
	if id, perr := strconv.ParseInt(q.Barangay, 10, 64); perr == nil {
		for i := range barangays {
			if barangays[i].ID == id {
				res.Barangay = &barangays[i]
				break
			}
		}
	}
	if res.Barangay == nil {
		barangaySlug := strings.ToLower(q.Barangay)
		for i := range barangays {
			if barangays[i].Slug == barangaySlug {
				res.Barangay = &barangays[i]
				break
			}
		}
	}
	if res.Barangay == nil {
		metrics.LocationLookupMisses.WithLabelValues("barangay").Inc()
		r.log.Info().
			Str("barangay", q.Barangay).
			Str("municipality", identifier).
			Msg("barangay not found")
		return res
	}
	res.BarangayLabel = res.Barangay.Name

	return res
}

// provinces returns the reference list, consulting the cache first. On a
// miss the list is fetched and written back, unless a newer navigation
// started while the fetch was in flight: its refetch owns the cache then,
// and this result is only served to the current caller.
func (r *Resolver) provinces(ctx context.Context, gen uint64) []bulletin.Province {
	if cached := r.cache.Provinces(ctx); cached != nil {
		return cached
	}

	list, err := r.api.Provinces(ctx)
	if err != nil {
		metrics.LocationFetchFailures.WithLabelValues("province").Inc()
		r.log.Error().Err(err).Msg("province fetch failed")
		return nil
	}

	if r.generation.Load() != gen {
		metrics.StaleFetchDiscards.Inc()
		r.log.Debug().Uint64("seq", gen).Msg("superseded province fetch not written back")
		return list
	}
	if err := r.cache.SetProvinces(ctx, list); err != nil {
		r.log.Error().Err(err).Msg("province cache write failed")
	}
	return list
}

func fallbackMunicipalityLabel(segment string) string {
	if segment == AllMunicipalities {
		return allMunicipalitiesLabel
	}
	return Unslugify(segment)
}

func provinceSlugs(provinces []bulletin.Province) []string {
	slugs := make([]string, len(provinces))
	for i := range provinces {
		slugs[i] = provinces[i].Slug
	}
	return slugs
}

func municipalitySlugs(municipalities []bulletin.Municipality) []string {
	slugs := make([]string, len(municipalities))
	for i := range municipalities {
		slugs[i] = Slugify(municipalities[i].Name)
	}
	return slugs
}

// nearestSlug returns the candidate within a small edit distance of needle,
// or "" when nothing is plausibly a typo.
func nearestSlug(needle string, candidates []string) string {
	const maxDistance = 2
	best, bestDistance := "", maxDistance+1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(needle, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}
