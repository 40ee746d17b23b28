// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/chartboard/internal/api"
	"github.com/starford/chartboard/internal/chartservice"
	"github.com/starford/chartboard/internal/mcpserver"
	"github.com/starford/chartboard/internal/render"
	"github.com/starford/chartboard/internal/sse"
	"github.com/starford/chartboard/internal/storage"
	"github.com/starford/chartboard/internal/watch"
	"github.com/starford/chartboard/web"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.EffectiveLogLevel(),
	}))
}

// newProvider builds the dataset source selected by cfg. The returned
// closer releases any connection the source holds.
func newProvider(cfg *SourceConfig) (storage.Provider, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Kind {
	case SourceSQL:
		s, err := storage.OpenSQL(cfg.SQL.Driver, cfg.SQL.DSN, cfg.SQL.Query)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		f, err := storage.NewFile(cfg.CSV.Path, storage.FileOptions{
			Encoding:  cfg.CSV.Encoding,
			Delimiter: cfg.CSV.DelimiterRune(),
			Comment:   cfg.CSV.CommentRune(),
		})
		if err != nil {
			return nil, noop, err
		}
		return f, noop, nil
	}
}

// diskOrEmbedded returns os.DirFS(dir) when dir is an existing directory,
// and embedded otherwise. The second result is the directory actually used,
// empty for embedded.
func diskOrEmbedded(dir string, embedded fs.FS, logger *slog.Logger) (fs.FS, string) {
	if dir == "" {
		return embedded, ""
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logger.Warn("directory not found, using embedded copy", slog.String("dir", dir))
		return embedded, ""
	}
	return os.DirFS(dir), dir
}

// Run starts the HTTP server with the given options and blocks until ctx is
// cancelled or a termination signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("source", cfg.Source.Kind),
		slog.Bool("debug", cfg.App.Debug),
		slog.Bool("auto_reload", cfg.App.AutoReload),
		slog.String("log_level", cfg.App.EffectiveLogLevel().String()))

	store, closeStore, err := newProvider(&cfg.Source)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}
	defer closeStore()

	svc := chartservice.NewService(store)
	if _, err := svc.Dataset(ctx); err != nil {
		// Not fatal: the page reports 500 until the source is readable.
		logger.Warn("initial dataset load failed", slog.String("source", store.Describe()), slog.String("error", err.Error()))
	}

	templates, templateDir := diskOrEmbedded(cfg.Templates.Dir, web.Templates(), logger)
	static, _ := diskOrEmbedded(cfg.Templates.StaticDir, web.Static(), logger)

	renderer := render.New(templates, cfg.Templates.Name, cfg.App.AutoReload)
	if err := renderer.Check(); err != nil {
		return fmt.Errorf("init templates: %w", err)
	}

	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	appRouter := api.NewRouter(svc, renderer, api.Options{
		Title:       cfg.App.Title,
		Debug:       cfg.App.Debug,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Static:      static,
		Events:      broker,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/", appRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	var datasetPath string
	if f, ok := store.(*storage.File); ok {
		datasetPath = f.Path()
	}
	if datasetPath != "" || templateDir != "" {
		g.Go(func() error {
			err := watch.Watch(gCtx, watch.Options{
				DatasetPath: datasetPath,
				TemplateDir: templateDir,
			}, logger, func(kind, path string) {
				if kind == watch.KindTemplate {
					renderer.Invalidate()
				}
				broker.PublishChange(kind, path)
			})
			if err != nil {
				// Serving works without the watcher, only live reload is lost.
				logger.Warn("watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Open event streams never finish on their own.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group's context so the watcher stops after a
// signal-initiated shutdown.
var errShutdown = errors.New("shutdown requested")

// Export writes the dataset's JSON payload, exactly as embedded in the page,
// to w.
func Export(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	store, closeStore, err := newProvider(&app.config.Source)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}
	defer closeStore()

	cd, err := chartservice.NewService(store).ChartJSON(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := w.Write(append(cd.JSON, '\n')); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	app.logger().Debug("export finished", slog.Int("rows", cd.Rows), slog.String("checksum", cd.Checksum))
	return nil
}

// RunMCP serves the MCP tools over stdin/stdout. Logs go to the configured
// log output, which must not be stdout.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.logOutput == os.Stdout {
		app.logOutput = os.Stderr
	}
	logger := app.logger()
	slog.SetDefault(logger)

	store, closeStore, err := newProvider(&app.config.Source)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}
	defer closeStore()

	logger.Info("MCP server starting", slog.String("source", store.Describe()), slog.String("version", app.version))

	srv := mcpserver.New(chartservice.NewService(store), app.version)
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
