package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/tiangge-ph/tiangge/bulletin"
	"github.com/tiangge-ph/tiangge/internal/config"
	appmw "github.com/tiangge-ph/tiangge/internal/http/middleware"
	"github.com/tiangge-ph/tiangge/internal/jobs"
	"github.com/tiangge-ph/tiangge/internal/locations"
	"github.com/tiangge-ph/tiangge/internal/metrics"
)

// Enqueuer is the slice of the asynq client the gateway uses to hand work to
// the background worker.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Server struct {
	Router     *chi.Mux
	Sess       *scs.SessionManager
	Resolver   *locations.Resolver
	Bulletin   *bulletin.Client
	Jobs       Enqueuer
	AdminToken string
	Log        zerolog.Logger
}

type ServerOptions struct {
	Sess     *scs.SessionManager
	Resolver *locations.Resolver
	Bulletin *bulletin.Client
	Jobs     Enqueuer
	Cfg      config.Config
	Log      zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(appmw.Metrics)

	s := &Server{
		Router:     r,
		Sess:       opts.Sess,
		Resolver:   opts.Resolver,
		Bulletin:   opts.Bulletin,
		Jobs:       opts.Jobs,
		AdminToken: opts.Cfg.AdminToken,
		Log:        opts.Log,
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			s.Log.Error().Err(err).Msg("write health check response")
		}
	})
	r.Handle("/metrics", metrics.Handler())

	// Visitor routes carry a session; health checks and scrapes must not.
	r.Group(func(vr chi.Router) {
		vr.Use(appmw.VisitorID(opts.Sess))
		vr.Get("/api/provinces", s.handleProvinces)
		vr.Get("/browse", s.handleBrowseIndex)
		vr.Get("/browse/{province}", s.handleBrowse)
		vr.Get("/browse/{province}/{municipality}", s.handleBrowse)
		vr.Get("/browse/{province}/{municipality}/{barangay}", s.handleBrowse)
		vr.Get("/bulletins/{province}", s.handleBulletins)
		vr.Get("/bulletins/{province}/{municipality}", s.handleBulletins)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(appmw.RequireAdminToken(s.AdminToken))
		ar.Post("/admin/locations/refresh", s.handleRefreshLocations)
		ar.Delete("/admin/locations/cache", s.handleClearLocationCache)
	})

	return s
}

// locationContext is the resolved-location part of every browse response.
// Records are null below the level that resolved; the labels always carry a
// displayable name.
type locationContext struct {
	Province     *bulletin.Province     `json:"province"`
	Municipality *bulletin.Municipality `json:"municipality,omitempty"`
	Barangay     *bulletin.Barangay     `json:"barangay,omitempty"`

	ProvinceLabel     string `json:"province_label"`
	MunicipalityLabel string `json:"municipality_label,omitempty"`
	BarangayLabel     string `json:"barangay_label,omitempty"`

	AmbiguousMunicipality bool   `json:"ambiguous_municipality,omitempty"`
	Suggestion            string `json:"suggestion,omitempty"`
}

func locationOf(res locations.Resolved) locationContext {
	return locationContext{
		Province:              res.Province,
		Municipality:          res.Municipality,
		Barangay:              res.Barangay,
		ProvinceLabel:         res.ProvinceLabel,
		MunicipalityLabel:     res.MunicipalityLabel,
		BarangayLabel:         res.BarangayLabel,
		AmbiguousMunicipality: res.AmbiguousMunicipality,
		Suggestion:            res.Suggestion,
	}
}

type provincesResponse struct {
	Provinces []bulletin.Province `json:"provinces"`
}

type browseResponse struct {
	Location locationContext      `json:"location"`
	Page     int                  `json:"page"`
	Listings bulletin.ListingPage `json:"listings"`
}

type bulletinsResponse struct {
	Location      locationContext           `json:"location"`
	Page          int                       `json:"page"`
	Announcements bulletin.AnnouncementPage `json:"announcements"`
}

type errorResponse struct {
	Error    string          `json:"error"`
	Location locationContext `json:"location"`
}

func (s *Server) renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Log.Error().Err(err).Msg("encode response failed")
	}
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (s *Server) handleProvinces(w http.ResponseWriter, r *http.Request) {
	provinces := s.Resolver.ProvinceIndex(r.Context())
	if provinces == nil {
		http.Error(w, "could not load provinces", http.StatusBadGateway)
		return
	}
	s.renderJSON(w, http.StatusOK, provincesResponse{Provinces: provinces})
}

func (s *Server) handleBrowseIndex(w http.ResponseWriter, r *http.Request) {
	// Returning visitors land where they left off.
	if p := s.Sess.GetString(r.Context(), "last_province"); p != "" {
		target := "/browse/" + p
		if m := s.Sess.GetString(r.Context(), "last_municipality"); m != "" {
			target += "/" + m
			if b := s.Sess.GetString(r.Context(), "last_barangay"); b != "" {
				target += "/" + b
			}
		}
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	provinces := s.Resolver.ProvinceIndex(r.Context())
	if provinces == nil {
		http.Error(w, "could not load provinces", http.StatusBadGateway)
		return
	}
	s.renderJSON(w, http.StatusOK, provincesResponse{Provinces: provinces})
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	q := locations.Query{
		Province:     chi.URLParam(r, "province"),
		Municipality: chi.URLParam(r, "municipality"),
		Barangay:     chi.URLParam(r, "barangay"),
	}
	res := s.Resolver.Resolve(r.Context(), q)
	if res.Province == nil {
		s.renderJSON(w, http.StatusNotFound, errorResponse{
			Error:    "province not found",
			Location: locationOf(res),
		})
		return
	}
	s.rememberLocation(r.Context(), q)

	page := pageParam(r)
	listings, err := s.Bulletin.SearchListings(r.Context(), locations.BuildFilters(res), page)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("listing search failed")
		http.Error(w, "could not load listings", http.StatusBadGateway)
		return
	}

	s.renderJSON(w, http.StatusOK, browseResponse{
		Location: locationOf(res),
		Page:     page,
		Listings: listings,
	})
}

func (s *Server) handleBulletins(w http.ResponseWriter, r *http.Request) {
	q := locations.Query{
		Province:     chi.URLParam(r, "province"),
		Municipality: chi.URLParam(r, "municipality"),
	}
	res := s.Resolver.Resolve(r.Context(), q)
	if res.Province == nil {
		s.renderJSON(w, http.StatusNotFound, errorResponse{
			Error:    "province not found",
			Location: locationOf(res),
		})
		return
	}

	page := pageParam(r)
	announcements, err := s.Bulletin.SearchAnnouncements(r.Context(), locations.BuildFilters(res), page)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("announcement search failed")
		http.Error(w, "could not load announcements", http.StatusBadGateway)
		return
	}

	s.renderJSON(w, http.StatusOK, bulletinsResponse{
		Location:      locationOf(res),
		Page:          page,
		Announcements: announcements,
	})
}

// rememberLocation stores the raw path segments, not the resolved records, so
// the /browse redirect replays exactly what the visitor last requested.
func (s *Server) rememberLocation(ctx context.Context, q locations.Query) {
	s.Sess.Put(ctx, "last_province", q.Province)
	if q.Municipality != "" {
		s.Sess.Put(ctx, "last_municipality", q.Municipality)
	} else {
		s.Sess.Remove(ctx, "last_municipality")
	}
	if q.Barangay != "" {
		s.Sess.Put(ctx, "last_barangay", q.Barangay)
	} else {
		s.Sess.Remove(ctx, "last_barangay")
	}
}

func (s *Server) handleRefreshLocations(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	payload, err := json.Marshal(jobs.RefreshProvincesPayload{Force: force})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("marshal refresh payload")
		http.Error(w, "could not queue refresh", http.StatusInternalServerError)
		return
	}
	task := asynq.NewTask(jobs.TaskRefreshProvinces, payload)

	info, err := s.Jobs.Enqueue(task,
		asynq.Queue("critical"),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("enqueue refresh failed")
		http.Error(w, "could not queue refresh", http.StatusInternalServerError)
		return
	}

	hlog.FromRequest(r).Info().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Bool("force", force).
		Msg("province refresh queued")
	s.renderJSON(w, http.StatusAccepted, map[string]any{
		"queued":  true,
		"task_id": info.ID,
	})
}

func (s *Server) handleClearLocationCache(w http.ResponseWriter, r *http.Request) {
	if err := s.Resolver.Cache().Clear(r.Context()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("clear province cache failed")
		http.Error(w, "could not clear cache", http.StatusInternalServerError)
		return
	}
	hlog.FromRequest(r).Info().Msg("province cache cleared")
	s.renderJSON(w, http.StatusOK, map[string]any{"cleared": true})
}
