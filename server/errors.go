package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/prior-it/bestiary/core"
)

// ErrorStatus returns the status code and public message for err.
// Anything that is not a known domain error is an internal server error. That includes
// views.ErrTemplateNotFound: a missing view is a deployment problem, not a bad request.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, core.ErrBadRequest):
		return http.StatusBadRequest, "bad request"
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal server error"
}

// RespondError answers a failed request with the status and public message of err, as JSON when
// the client prefers it and as plain text otherwise. Server errors are logged as errors, all
// others only at debug level.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code, msg := ErrorStatus(err)
	if code >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Server error", "error", err, "path", r.URL.Path)
	} else {
		logger.DebugContext(r.Context(), "Request error", "error", err, "path", r.URL.Path)
	}
	render.Status(r, code)
	if render.GetAcceptedContentType(r) == render.ContentTypeJSON {
		render.JSON(w, r, map[string]string{"error": msg})
		return
	}
	render.PlainText(w, r, msg)
}

func DefaultErrorHandler(ex *Exchange, err error) {
	RespondError(ex.Writer, ex.Request, ex.logger, err)
}

func DefaultNotFoundHandler(ex *Exchange) {
	render.Status(ex.Request, http.StatusNotFound)
	render.PlainText(ex.Writer, ex.Request, http.StatusText(http.StatusNotFound))
}
