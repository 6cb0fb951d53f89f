package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/route-tycoon/internal/advisor"
	"github.com/jwebster45206/route-tycoon/internal/gameplay"
	"github.com/jwebster45206/route-tycoon/pkg/state"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest         = "bad_request"
	CodeInvalidGameID      = "invalid_game_id"
	CodeGameNotFound       = "game_not_found"
	CodeGameBusy           = "game_busy"
	CodeInsufficientFunds  = "insufficient_funds"
	CodeUnknownRoute       = "unknown_route"
	CodeUnknownCity        = "unknown_city"
	CodeDuplicateRoute     = "duplicate_route"
	CodeSameCity           = "same_city"
	CodeCityLocked         = "city_locked"
	CodeRouteLocked        = "route_locked"
	CodeInvalidZone        = "invalid_zone"
	CodeZoneUnlocked       = "zone_unlocked"
	CodeSuggestionInFlight = "suggestion_in_flight"
	CodeSuggestionFailed   = "suggestion_failed"
	CodeNoSuggestions      = "no_suggestions"
	CodeInternal           = "internal_error"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{gameplay.ErrGameNotFound, http.StatusNotFound, CodeGameNotFound},
	{gameplay.ErrGameBusy, http.StatusConflict, CodeGameBusy},
	{state.ErrInsufficientFunds, http.StatusConflict, CodeInsufficientFunds},
	{state.ErrUnknownRoute, http.StatusNotFound, CodeUnknownRoute},
	{state.ErrUnknownCity, http.StatusNotFound, CodeUnknownCity},
	{state.ErrDuplicateRoute, http.StatusConflict, CodeDuplicateRoute},
	{state.ErrCityLocked, http.StatusConflict, CodeCityLocked},
	{state.ErrRouteLocked, http.StatusConflict, CodeRouteLocked},
	{state.ErrZoneUnlocked, http.StatusConflict, CodeZoneUnlocked},
	{state.ErrSameCity, http.StatusBadRequest, CodeSameCity},
	{state.ErrInvalidZone, http.StatusBadRequest, CodeInvalidZone},
	{advisor.ErrSuggestionInFlight, http.StatusConflict, CodeSuggestionInFlight},
	{advisor.ErrSuggestionFailed, http.StatusBadGateway, CodeSuggestionFailed},
}

// statusFor maps a domain error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, code, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, logger, status, ErrorResponse{Error: msg, Code: code})
}

// writeDomainError maps err and writes it. Internal errors are logged and
// their text is not exposed.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		logger.Error("Request failed", "error", err)
		msg = "internal server error"
	case code == CodeSuggestionFailed:
		msg = advisor.FailureMessage
	default:
		logger.Debug("Request rejected", "error", err, "code", code)
	}
	writeError(w, logger, status, code, msg)
}
