package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/prior-it/bestiary/config"
)

// Debug is middleware that can be inserted anywhere and will print some useful debug information
// about the current request.
func Debug(printFullRequest bool) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if printFullRequest {
				slog.Debug("Debug middleware", "request", r)
			} else {
				slog.Debug("Debug middleware", "method", r.Method, "path", r.URL.Path)
			}

			h.ServeHTTP(w, r)
		})
	}
}

// HTTPLogger is middleware that will log HTTP requests, including context that might be added by
// the handler itself by calling [Exchange.LogField].
func HTTPLogger(cfg *config.Config) func(http.Handler) http.Handler {
	sourceFieldName := ""
	if cfg.Log.Verbose || cfg.App.Debug {
		sourceFieldName = "source"
	}
	logger := httplog.NewLogger(cfg.App.Name, httplog.Options{
		LogLevel: cfg.Log.Level.ToSlog(),
		JSON:     cfg.Log.Format == config.LogFormatJSON,
		Concise:  !cfg.Log.Verbose,
		Tags: map[string]string{
			"version": cfg.App.Version,
			"env":     string(cfg.App.Env),
		},
		RequestHeaders:  cfg.Log.Verbose,
		ResponseHeaders: cfg.Log.Verbose,
		QuietDownRoutes: []string{
			"/",
			"/favicon.ico",
			"/ping",
		},
		QuietDownPeriod: 10 * time.Second, //nolint:mnd
		SourceFieldName: sourceFieldName,
	})
	return httplog.RequestLogger(logger)
}

// defaultMiddleware returns the middleware every request passes through before the static files
// and the router.
func defaultMiddleware(cfg *config.Config) []func(http.Handler) http.Handler {
	middlewares := []func(http.Handler) http.Handler{
		middleware.Recoverer,
		middleware.RealIP,
		middleware.RequestID,
		HTTPLogger(cfg),
		middleware.GetHead,
	}
	if cfg.App.RequestTimeout > 0 {
		middlewares = append(middlewares, middleware.Timeout(
			time.Duration(cfg.App.RequestTimeout)*time.Second,
		))
	}
	if cfg.App.Debug {
		middlewares = append(middlewares, Debug(cfg.Log.Verbose))
	}
	return middlewares
}
