package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matzehuels/deptree/pkg/deps"
	deperrors "github.com/matzehuels/deptree/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      deperrors.Code `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
}

// handlerFunc is an http.HandlerFunc that reports failures by returning
// them. [Server.handle] turns the error into a JSON response.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		e := classify(err)
		status := deperrors.HTTPStatus(e.Code)
		if status >= 500 {
			s.opts.Logger.Error("request failed", "path", r.URL.Path, "code", e.Code, "err", err)
		} else {
			s.opts.Logger.Debug("request rejected", "path", r.URL.Path, "code", e.Code, "err", err)
		}
		writeJSON(w, status, errorBody{Error: errorDetail{
			Code:      e.Code,
			Message:   message(e),
			RequestID: RequestIDFrom(r.Context()),
		}})
	}
}

// classify maps resolver and context errors onto error codes.
func classify(err error) *deperrors.Error {
	var coded *deperrors.Error
	switch {
	case errors.As(err, &coded):
		return coded
	case errors.Is(err, deps.ErrNotFound):
		return deperrors.Wrap(deperrors.ErrCodePackageNotFound, err, "package not found")
	case errors.Is(err, deps.ErrNoMatchingVersion):
		return deperrors.Wrap(deperrors.ErrCodeVersionNotFound, err, "no version satisfies the request")
	case errors.Is(err, deps.ErrTransient):
		return deperrors.Wrap(deperrors.ErrCodeNetwork, err, "registry unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return deperrors.Wrap(deperrors.ErrCodeTimeout, err, "resolution timed out")
	case errors.Is(err, context.Canceled):
		return deperrors.Wrap(deperrors.ErrCodeCanceled, err, "request canceled")
	default:
		return deperrors.Wrap(deperrors.ErrCodeInternal, err, "internal error")
	}
}

// message is the client-facing text. Internal causes are not exposed.
func message(e *deperrors.Error) string {
	if e.Cause == nil || e.Code == deperrors.ErrCodeInternal {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func errNoRoute(r *http.Request) error {
	return deperrors.New(deperrors.ErrCodeNotFound, "no route for %s", r.URL.Path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
