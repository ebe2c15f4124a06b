package locations

import (
	"testing"

	"github.com/tiangge-ph/tiangge/bulletin"
)

func TestBuildFilters(t *testing.T) {
	province := &bulletin.Province{ID: 1, Name: "Siquijor", Slug: "siquijor", PSGCCode: "074"}
	codelessProvince := &bulletin.Province{ID: 2, Name: "Batangas", Slug: "batangas"}
	municipality := &bulletin.Municipality{ID: 10, Name: "Dauin", PSGCCode: "071935000"}
	barangay := &bulletin.Barangay{ID: 7, Name: "Poblacion", Slug: "poblacion", PSGCCode: "074001001"}
	codelessBarangay := &bulletin.Barangay{ID: 8, Name: "Maite", Slug: "maite"}

	tests := []struct {
		name string
		res  Resolved
		want bulletin.SearchFilters
	}{
		{
			name: "nothing resolved",
			res:  Resolved{},
			want: bulletin.SearchFilters{},
		},
		{
			name: "full hierarchy",
			res:  Resolved{Province: province, Municipality: municipality, Barangay: barangay},
			want: bulletin.SearchFilters{Province: "074", Municipality: "071935000", Barangay: "074001001"},
		},
		{
			name: "code-less province still yields municipality filter",
			res:  Resolved{Province: codelessProvince, Municipality: municipality},
			want: bulletin.SearchFilters{Municipality: "071935000"},
		},
		{
			name: "code-less barangay is omitted",
			res:  Resolved{Province: province, Municipality: municipality, Barangay: codelessBarangay},
			want: bulletin.SearchFilters{Province: "074", Municipality: "071935000"},
		},
		{
			name: "province only",
			res:  Resolved{Province: province},
			want: bulletin.SearchFilters{Province: "074"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildFilters(tt.res); got != tt.want {
				t.Errorf("BuildFilters() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildFiltersNeverEmitsSlugsOrIDs(t *testing.T) {
	res := Resolved{
		Province:     &bulletin.Province{ID: 1, Name: "Siquijor", Slug: "siquijor", PSGCCode: "074"},
		Municipality: &bulletin.Municipality{ID: 10, Name: "San Juan", PSGCCode: "074001000"},
	}

	values := BuildFilters(res).Values()
	for key, vals := range values {
		for _, v := range vals {
			if v == "siquijor" || v == "san-juan" || v == "1" || v == "10" {
				t.Errorf("filter %q carries %q; only PSGC codes are allowed", key, v)
			}
		}
	}
}
