// Package bulletin is the client for the marketplace's REST backend: the
// geographic reference lists (provinces, municipalities, barangays) and the
// listing/announcement search endpoints.
package bulletin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/gregjones/httpcache"
)

const DefaultBaseURL = "https://api.tiangge.ph/v1"

const defaultTimeout = 30 * time.Second

type Client struct {
	http      *http.Client
	baseURL   *url.URL
	userAgent string
}

type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, e.g. for an OAuth2
// token-refreshing client or a test transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(opts ...Option) *Client {
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		// The API sets ETags on its reference lists; an in-memory HTTP cache
		// turns repeat fetches into cheap 304s.
		http: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   defaultTimeout,
		},
		baseURL:   u,
		userAgent: "tiangge-web/1.0",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) newReq(ctx context.Context, p string, q url.Values) (*http.Request, error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	qq := u.Query()
	for k, vs := range q {
		for _, v := range vs {
			qq.Set(k, v)
		}
	}
	u.RawQuery = qq.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, p string, q url.Values, out any) error {
	req, err := c.newReq(ctx, p, q)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", p, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", p, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s: %s", p, resp.Status, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", p, err)
	}
	return nil
}

// unwrapList accepts both shapes the API serves for reference lists: a bare
// JSON array or a {"results": [...]} wrapper. Everything downstream sees one
// canonical shape.
func unwrapList[T any](data []byte) ([]T, error) {
	var bare []T
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	var wrapped struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Results, nil
}

func getList[T any](ctx context.Context, c *Client, p string, q url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, p, q, &raw); err != nil {
		return nil, err
	}
	items, err := unwrapList[T](raw)
	if err != nil {
		return nil, fmt.Errorf("GET %s: decode list: %w", p, err)
	}
	return items, nil
}

// Provinces returns the full province reference list.
func (c *Client) Provinces(ctx context.Context) ([]Province, error) {
	return getList[Province](ctx, c, "/provinces", nil)
}

// Municipalities returns the municipalities of the province with the given
// slug.
func (c *Client) Municipalities(ctx context.Context, provinceSlug string) ([]Municipality, error) {
	p := fmt.Sprintf("/provinces/%s/municipalities", url.PathEscape(provinceSlug))
	return getList[Municipality](ctx, c, p, nil)
}

// Barangays returns the barangays or districts of a municipality. The
// identifier should be the municipality's PSGC code; a slug is accepted as a
// fallback.
func (c *Client) Barangays(ctx context.Context, municipalityIdentifier string) ([]Barangay, error) {
	p := fmt.Sprintf("/municipalities/%s/districts-or-barangays", url.PathEscape(municipalityIdentifier))
	return getList[Barangay](ctx, c, p, nil)
}

// BarangaysByMunicipalityID looks up barangays by the municipality's numeric
// database id, for callers that carried an id instead of a code.
func (c *Client) BarangaysByMunicipalityID(ctx context.Context, id int64) ([]Barangay, error) {
	q := url.Values{}
	q.Set("municipality", strconv.FormatInt(id, 10))
	return getList[Barangay](ctx, c, "/barangays", q)
}

// SearchListings returns a page of listings matching the filters (page
// starts at 1).
func (c *Client) SearchListings(ctx context.Context, filters SearchFilters, page int) (ListingPage, error) {
	if page <= 0 {
		page = 1
	}
	q := filters.Values()
	q.Set("page", strconv.Itoa(page))

	var lp ListingPage
	err := c.getJSON(ctx, "/listings", q, &lp)
	return lp, err
}

// SearchAnnouncements returns a page of announcements matching the filters
// (page starts at 1).
func (c *Client) SearchAnnouncements(ctx context.Context, filters SearchFilters, page int) (AnnouncementPage, error) {
	if page <= 0 {
		page = 1
	}
	q := filters.Values()
	q.Set("page", strconv.Itoa(page))

	var ap AnnouncementPage
	err := c.getJSON(ctx, "/announcements", q, &ap)
	return ap, err
}
