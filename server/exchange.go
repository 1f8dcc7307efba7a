package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/prior-it/bestiary/views"
)

// Exchange holds a single request and its response.
type Exchange struct {
	Writer   http.ResponseWriter
	Request  *http.Request
	logger   *slog.Logger
	renderer views.Renderer
}

// LogField will add the specified field and its value to the current request's log entry.
//
// # Example
//
//	ex.LogField("template", slog.StringValue(name))
func (ex *Exchange) LogField(field string, value slog.Value) {
	httplog.LogEntrySetField(ex.Context(), field, value)
}

// Context returns the request's context.
//
// The context is canceled when the client's connection closes, the request is canceled (with
// HTTP/2), or when the ServeHTTP method returns.
func (ex *Exchange) Context() context.Context {
	return ex.Request.Context()
}

// Render renders the named view as an HTML page with status 200.
// If rendering fails nothing has been written yet, so the error handler can still respond.
func (ex *Exchange) Render(name string, data any) error {
	ex.LogField("view", slog.StringValue(name))
	return ex.RenderStatus(http.StatusOK, name, data)
}

// RenderStatus renders the named view as an HTML page with the specified status code.
func (ex *Exchange) RenderStatus(code int, name string, data any) error {
	return ex.renderer.Render(ex.Context(), &lazyWriter{ex: ex, code: code}, name, data)
}

// lazyWriter only commits the status and content type once the renderer starts writing the body.
type lazyWriter struct {
	ex      *Exchange
	code    int
	started bool
}

func (lw *lazyWriter) Write(p []byte) (int, error) {
	if !lw.started {
		lw.started = true
		lw.ex.Writer.Header().Set("Content-Type", "text/html; charset=utf-8")
		lw.ex.Writer.WriteHeader(lw.code)
	}
	return lw.ex.Writer.Write(p)
}
