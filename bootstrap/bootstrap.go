// Package bootstrap wires the configuration, logging, error reporting, views, the monsters
// resource and the HTTP server into a runnable application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/lmittmann/tint"
	"github.com/prior-it/bestiary/config"
	"github.com/prior-it/bestiary/core"
	"github.com/prior-it/bestiary/memory"
	"github.com/prior-it/bestiary/monsters"
	"github.com/prior-it/bestiary/server"
	"github.com/prior-it/bestiary/views"
)

const (
	reloadDelay  = 100 * time.Millisecond
	sentryFlush  = 2 * time.Second
	cookieMaxAge = 3600
)

// App is a fully wired application. Call Run to start serving.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Renderer views.Renderer
	Monsters core.MonsterService
	Server   *server.Server
}

// New wires all components for cfg. Sentry is initialised here when it is enabled.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap needs a config.Config value")
	}
	if logger == nil {
		logger = slog.Default()
	}

	renderer, err := views.New(cfg.Views)
	if err != nil {
		return nil, fmt.Errorf("cannot create the view renderer: %w", err)
	}
	service := memory.NewMonsterService()

	var middlewares []func(http.Handler) http.Handler
	var onShutdown []func(ctx context.Context)

	if cfg.Sentry.Enabled && Sentry(cfg, logger) {
		sentryHandler := sentryhttp.New(sentryhttp.Options{
			Repanic:         true,
			WaitForDelivery: true,
			Timeout:         5 * time.Second, //nolint:mnd
		})
		middlewares = append(middlewares, sentryHandler.Handle)
		onShutdown = append(onShutdown, func(_ context.Context) {
			sentry.Flush(sentryFlush)
		})
	}

	// Fully disable caching in debug mode
	if cfg.App.Debug {
		middlewares = append(middlewares, middleware.NoCache)
	}

	srv, err := server.New(server.Options{
		Config:     cfg,
		Logger:     logger,
		Renderer:   renderer,
		Monsters:   monsters.Router(service, renderer, SessionStore(cfg)),
		Middleware: middlewares,
		OnShutdown: onShutdown,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create the server: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Renderer: renderer,
		Monsters: service,
		Server:   srv,
	}, nil
}

// Run starts the server and blocks until it has shut down, see [server.Server.Start].
// In debug mode the views are reloaded whenever a file below the views root changes.
func (app *App) Run(ctx context.Context, listener net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if reloader, ok := app.Renderer.(views.Reloader); ok && app.Config.App.Debug {
		watcher, err := views.NewWatcher(app.Config.Views.Root, reloadDelay, func() {
			app.Logger.Info("Views changed, reloading")
			reloader.Reset()
		})
		if err != nil {
			app.Logger.Warn("Views will not be reloaded", "error", err)
		} else {
			go watcher.WithLogger(app.Logger).Run(ctx)
		}
	}

	return app.Server.Start(ctx, listener)
}

// Logger creates the application logger and sets it as the default slog logger.
// Plaintext logs are colourised, JSON logs are meant for log collectors.
func Logger(cfg *config.Config, w io.Writer) *slog.Logger {
	addSource := cfg.Log.Verbose && cfg.App.Debug
	var handler slog.Handler
	switch cfg.Log.Format {
	case config.LogFormatPlaintext:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      cfg.Log.Level.ToSlog(),
			AddSource:  addSource,
			TimeFormat: time.TimeOnly,
			NoColor:    cfg.IsTest(),
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     cfg.Log.Level.ToSlog(),
			AddSource: addSource,
		})
	}
	logger := slog.New(handler).With("app", cfg.App.Name)
	slog.SetDefault(logger)
	return logger
}

// Sentry initialises the Sentry client and reports whether that succeeded.
func Sentry(cfg *config.Config, logger *slog.Logger) bool {
	logger.Debug("Trying to initialise Sentry")
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Debug:            cfg.App.Debug,
		AttachStacktrace: true,
		SampleRate:       cfg.Sentry.SampleRate,
		EnableTracing:    cfg.Sentry.TracesRate > 0,
		TracesSampleRate: cfg.Sentry.TracesRate,
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			if ctx.Span.Name == "GET /ping" {
				return 0.0
			}
			return cfg.Sentry.TracesRate
		}),
		ServerName:  cfg.App.Name,
		Release:     cfg.App.Version,
		Environment: string(cfg.App.Env),
	}); err != nil {
		logger.Error("Sentry initialization failed", "error", err)
		return false
	}
	logger.Debug("Sentry initialised")
	return true
}

// SessionStore returns the cookie store used for flash messages, or nil when the authentication
// or encryption key is missing.
func SessionStore(cfg *config.Config) sessions.Store {
	if len(cfg.App.AuthenticationKey) == 0 || len(cfg.App.EncryptionKey) == 0 {
		return nil
	}
	store := sessions.NewCookieStore(
		[]byte(cfg.App.AuthenticationKey),
		[]byte(cfg.App.EncryptionKey),
	)
	store.MaxAge(cookieMaxAge)
	switch {
	case cfg.IsTest():
		store.Options.Secure = false
		store.Options.HttpOnly = false
		store.Options.SameSite = http.SameSiteNoneMode
	case cfg.App.Debug:
		store.Options.Secure = true
		store.Options.HttpOnly = true
		store.Options.SameSite = http.SameSiteNoneMode
	default:
		store.Options.Secure = true
		store.Options.HttpOnly = true
		store.Options.SameSite = http.SameSiteLaxMode
	}
	return store
}
