package bulletin

import "net/url"

// Province is a top-level geographic unit. Slug is unique at this level in
// practice; PSGCCode is the authoritative identifier for filtering.
type Province struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	PSGCCode string `json:"psgc_code"` // empty when the dataset has no code
}

// Municipality belongs to exactly one province. Names collide across
// provinces (several "San Juan"s), so PSGCCode, not a name-derived slug, is
// the disambiguating key. The API stores no slug at this level.
type Municipality struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	PSGCCode string `json:"psgc_code"`
	Type     string `json:"type"` // "City" or "Municipality"
}

// Barangay is the smallest administrative unit. In some large cities
// districts stand in for barangays; IsDistrict marks those.
type Barangay struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	PSGCCode   string `json:"psgc_code"`
	IsDistrict bool   `json:"is_district"`
}

// SearchFilters are the geographic query parameters for the search
// endpoints. Values are PSGC codes; the API accepts neither slugs nor ids
// for these parameters.
type SearchFilters struct {
	Province     string
	Municipality string
	Barangay     string
}

// Values renders the filters as query parameters, skipping empty codes.
func (f SearchFilters) Values() url.Values {
	v := url.Values{}
	if f.Province != "" {
		v.Set("province", f.Province)
	}
	if f.Municipality != "" {
		v.Set("municipality", f.Municipality)
	}
	if f.Barangay != "" {
		v.Set("barangay", f.Barangay)
	}
	return v
}

// Listing is a classified ad as the search endpoint returns it.
type Listing struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Category  string  `json:"category"`
	Barangay  string  `json:"barangay"` // display name, may be empty
	CreatedAt string  `json:"created_at"`
}

// Announcement is a community notice posted to a location's board.
type Announcement struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Pinned    bool   `json:"pinned"`
	CreatedAt string `json:"created_at"`
}

// ListingPage is the paginated envelope for listing searches (nullable
// cursors as pointers).
type ListingPage struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []Listing `json:"results"`
}

// AnnouncementPage is the paginated envelope for announcement searches.
type AnnouncementPage struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []Announcement `json:"results"`
}
