package api

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/chartboard/internal/chartservice"
	"github.com/starford/chartboard/internal/render"
)

// Options configures NewRouter.
type Options struct {
	Title string
	// Debug enables the live-reload script on the page and mounts the
	// profiler at /debug.
	Debug       bool
	AuthEnabled bool
	Token       string
	// Static is served at /static/. Nil disables static assets.
	Static fs.FS
	// Events, if non-nil, is mounted at GET /api/events.
	Events http.Handler
}

// NewRouter creates a chi router with the page, the static assets, the
// health checks and the /api routes.
func NewRouter(svc *chartservice.Service, renderer *render.Renderer, opts Options) chi.Router {
	h := NewHandler(svc, renderer, opts.Title, opts.Debug && opts.Events != nil)

	r := chi.NewRouter()

	r.Get("/", h.Index)

	if opts.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(opts.Static)))
	}

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)

	r.Route("/api", func(r chi.Router) {
		// The page itself is public, so its change feed is too.
		if opts.Events != nil {
			r.Get("/events", opts.Events.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(opts.AuthEnabled, opts.Token))
			r.Get("/dataset", h.Dataset)
			r.Get("/columns", h.Columns)
			r.Get("/counts", h.Counts)
		})
	})

	if opts.Debug {
		r.Mount("/debug", middleware.Profiler())
	}

	return r
}
