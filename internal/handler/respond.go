package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"attractions-web/internal/domain"
	"attractions-web/internal/middleware"
	"attractions-web/internal/observability"
	"attractions-web/internal/service"
)

// statusClientClosedRequest is logged when the browser goes away mid-request.
const statusClientClosedRequest = 499

// Error codes returned alongside the message so the browser can branch without string matching.
const (
	CodeValidation     = "validation"
	CodeAuthRequired   = "auth_required"
	CodeAuth           = "auth_rejected"
	CodeTogglePending  = "toggle_pending"
	CodeNoAdjacentPage = "no_adjacent_page"
	CodeSuperseded     = "superseded"
	CodeNotFound       = "not_found"
	CodeUpstream       = "upstream"
	CodeTimeout        = "timeout"
	CodeInternal       = "internal"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Workspaces hands out the workspace of a browser profile.
type Workspaces interface {
	Get(profileID string) (*service.Workspace, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeError maps err onto a status code and logs server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := domain.UserMessage(err)

	logger := observability.FromContext(r.Context())
	switch {
	case status == statusClientClosedRequest:
		logger.Debug("request cancelled", slog.String("path", r.URL.Path))
		return
	case status >= http.StatusInternalServerError:
		logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()))
	default:
		logger.Debug("request rejected",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()))
	}

	if code == CodeInternal {
		message = "Internal server error"
	}
	writeErrorMessage(w, status, code, message)
}

func classify(err error) (int, string) {
	var derr *domain.Error
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized, CodeAuthRequired
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized, CodeAuth
	case errors.Is(err, domain.ErrTogglePending):
		return http.StatusConflict, CodeTogglePending
	case errors.Is(err, domain.ErrNoAdjacentPage):
		return http.StatusConflict, CodeNoAdjacentPage
	case errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict, CodeSuperseded
	case errors.Is(err, domain.ErrHTTP) && errors.As(err, &derr) && derr.Status == http.StatusNotFound:
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, CodeInternal
	case timedOut(err):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, domain.ErrHTTP), errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, CodeUpstream
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// timedOut covers both context deadlines and http.Client timeouts.
func timedOut(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// workspace resolves the caller's workspace or writes the failure.
func workspace(w http.ResponseWriter, r *http.Request, workspaces Workspaces) (*service.Workspace, bool) {
	profileID, ok := middleware.ProfileID(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, CodeValidation, "Missing browser profile")
		return nil, false
	}
	ws, err := workspaces.Get(profileID)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return ws, true
}

func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeErrorMessage(w, http.StatusBadRequest, CodeValidation, "Invalid attraction id")
		return 0, false
	}
	return id, true
}
