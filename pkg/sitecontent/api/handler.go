package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"

	"github.com/tendant/refenti-content/pkg/sitecontent"
	"github.com/tendant/refenti-content/pkg/sitecontent/listcache"
	"github.com/tendant/refenti-content/pkg/sitecontent/metrics"
)

// Handler serves the public site API, the admin API and the public object route
type Handler struct {
	service sitecontent.Service
	cache   listcache.Cache
	auth    *jwtauth.JWTAuth
	prom    *metrics.Prom
	logger  *slog.Logger
}

// Option configures a Handler
type Option func(*Handler)

// WithCache serves public lists through c
func WithCache(c listcache.Cache) Option {
	return func(h *Handler) {
		if c != nil {
			h.cache = c
		}
	}
}

// WithAuth enables the admin API behind bearer tokens signed by auth
func WithAuth(auth *jwtauth.JWTAuth) Option {
	return func(h *Handler) {
		h.auth = auth
	}
}

// WithMetrics records request metrics
func WithMetrics(p *metrics.Prom) Option {
	return func(h *Handler) {
		h.prom = p
	}
}

// WithLogger sets the request and error logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a Handler. Without WithCache lists are not cached; without
// WithAuth the admin API is not mounted.
func New(service sitecontent.Service, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		cache:   listcache.Nop{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the full router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	if h.prom != nil {
		r.Use(h.prom.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		renderData(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		h.publicRoutes(r)
		if h.auth != nil {
			r.Mount("/admin", h.adminRoutes())
		}
	})

	r.Get("/storage/v1/object/public/{bucket}/*", h.ServeObject)
	return r
}

func (h *Handler) publicRoutes(r chi.Router) {
	r.Get("/projects", h.ListProjects)
	r.Get("/projects/{id}", h.GetProject)
	r.Get("/events", h.ListEvents)
	r.Get("/events/{id}", h.GetEvent)
	r.Get("/news", h.ListNews)
	r.Get("/news/{id}", h.GetNews)
	r.Post("/inquiries", h.SubmitInquiry)
}

func (h *Handler) adminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(h.auth))
	r.Use(jwtauth.Authenticator)

	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.CreateProject)
		r.Put("/{id}", h.UpdateProject)
		r.Delete("/{id}", h.DeleteProject)
		h.assetRoutes(r, sitecontent.KindProjects)
	})
	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
		r.Put("/{id}/featured", h.SetEventFeatured)
		r.Post("/{id}/featured/toggle", h.ToggleEventFeatured)
		h.assetRoutes(r, sitecontent.KindEvents)
	})
	r.Route("/news", func(r chi.Router) {
		r.Post("/", h.CreateNews)
		r.Put("/{id}", h.UpdateNews)
		r.Delete("/{id}", h.DeleteNews)
		h.assetRoutes(r, sitecontent.KindNews)
	})

	r.Post("/uploads/{kind}/{id}/{slot}", h.UploadAsset)
	r.Get("/assets/{kind}/{id}", h.ListAssets)

	r.Get("/inquiries", h.ListInquiries)
	r.Delete("/inquiries/{id}", h.DeleteInquiry)

	r.Post("/cache/invalidate", h.InvalidateCache)
	return r
}

func (h *Handler) assetRoutes(r chi.Router, kind sitecontent.AssetKind) {
	r.Post("/{id}/assets/{slot}", h.attachAsset(kind))
	r.Delete("/{id}/assets/{slot}", h.removeAsset(kind))
}

// requestLogger logs one line per request with the chi request id
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.logger.Info("HTTP request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
