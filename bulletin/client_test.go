package bulletin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestProvincesBareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/provinces", r.URL.Path)
		fmt.Fprint(w, `[{"id":1,"name":"Siquijor","slug":"siquijor","psgc_code":"074"}]`)
	})

	provinces, err := client.Provinces(context.Background())
	require.NoError(t, err)
	require.Len(t, provinces, 1)
	require.Equal(t, "Siquijor", provinces[0].Name)
	require.Equal(t, "074", provinces[0].PSGCCode)
}

func TestProvincesWrappedResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"id":1,"name":"Siquijor","slug":"siquijor","psgc_code":"074"},{"id":2,"name":"Bohol","slug":"bohol","psgc_code":"071"}]}`)
	})

	provinces, err := client.Provinces(context.Background())
	require.NoError(t, err)
	require.Len(t, provinces, 2)
	require.Equal(t, "Bohol", provinces[1].Name)
}

func TestProvincesNullPSGCCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"name":"Siquijor","slug":"siquijor","psgc_code":null}]`)
	})

	provinces, err := client.Provinces(context.Background())
	require.NoError(t, err)
	require.Empty(t, provinces[0].PSGCCode, "null psgc_code should normalize to the empty string")
}

func TestMunicipalitiesPath(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `[{"id":10,"name":"San Juan","psgc_code":"074001000","type":"Municipality"}]`)
	})

	munis, err := client.Municipalities(context.Background(), "siquijor")
	require.NoError(t, err)
	require.Equal(t, "/provinces/siquijor/municipalities", gotPath)
	require.Equal(t, "San Juan", munis[0].Name)
}

func TestBarangaysPath(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"results":[{"id":7,"name":"Poblacion","slug":"poblacion","psgc_code":"074001001","is_district":false}]}`)
	})

	brgys, err := client.Barangays(context.Background(), "074001000")
	require.NoError(t, err)
	require.Equal(t, "/municipalities/074001000/districts-or-barangays", gotPath)
	require.False(t, brgys[0].IsDistrict)
}

func TestBarangaysByMunicipalityID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/barangays", r.URL.Path)
		require.Equal(t, "42", r.URL.Query().Get("municipality"))
		fmt.Fprint(w, `[]`)
	})

	_, err := client.BarangaysByMunicipalityID(context.Background(), 42)
	require.NoError(t, err)
}

func TestSearchListingsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "074", q.Get("province"))
		require.Equal(t, "074001000", q.Get("municipality"))
		require.Empty(t, q.Get("barangay"))
		require.Equal(t, "2", q.Get("page"))
		fmt.Fprint(w, `{"count":1,"next":null,"previous":"http://x/listings?page=1","results":[{"id":5,"title":"Carabao plow","price":1500,"category":"farm","barangay":"Poblacion","created_at":"2024-07-01T09:00:00Z"}]}`)
	})

	page, err := client.SearchListings(context.Background(), SearchFilters{
		Province:     "074",
		Municipality: "074001000",
	}, 2)
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	require.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	require.Equal(t, "Carabao plow", page.Results[0].Title)
}

func TestSearchAnnouncementsDefaultsPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/announcements", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("page"))
		fmt.Fprint(w, `{"count":0,"next":null,"previous":null,"results":[]}`)
	})

	page, err := client.SearchAnnouncements(context.Background(), SearchFilters{}, 0)
	require.NoError(t, err)
	require.Zero(t, page.Count)
}

func TestGetJSONNon200(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusBadGateway)
	})

	_, err := client.Provinces(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
	require.Contains(t, err.Error(), "gone fishing")
}

func TestSearchFiltersValues(t *testing.T) {
	tests := []struct {
		name    string
		filters SearchFilters
		want    map[string]string
	}{
		{
			name:    "empty filters emit nothing",
			filters: SearchFilters{},
			want:    map[string]string{},
		},
		{
			name:    "all three codes",
			filters: SearchFilters{Province: "074", Municipality: "074001000", Barangay: "074001001"},
			want:    map[string]string{"province": "074", "municipality": "074001000", "barangay": "074001001"},
		},
		{
			name:    "municipality only",
			filters: SearchFilters{Municipality: "071935000"},
			want:    map[string]string{"municipality": "071935000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filters.Values()
			if len(got) != len(tt.want) {
				t.Errorf("Values() has %d keys, want %d", len(got), len(tt.want))
			}
			for k, v := range tt.want {
				if got.Get(k) != v {
					t.Errorf("Values()[%q] = %q, want %q", k, got.Get(k), v)
				}
			}
		})
	}
}
