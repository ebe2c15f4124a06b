package jobs

const TaskRefreshProvinces = "locations:refresh_provinces"

type RefreshProvincesPayload struct {
	// Force refetches even while the cached list is still valid.
	Force bool `json:"force,omitempty"`
}
