// Package handler contains the HTTP handlers of the admin and operator
// REST API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eventdraw/drawbot/internal/domain"
)

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// DataResponse represents a response with a data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	buf := getBuffer()
	defer putBuffer(buf)

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// User-facing error messages derived from domain errors
const (
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgInvalidRequestError = "Invalid request. Please check your inputs."
	ErrMsgInvalidBodyError    = "Invalid request body"

	ErrMsgEventNotFoundError      = "Event not found"
	ErrMsgInvalidStatusError      = "Invalid event status transition"
	ErrMsgParticipantNotFoundErr  = "Participant not found"
	ErrMsgAlreadyRegisteredError  = "Contact is already registered for this event"
	ErrMsgDrawConfigMissingError  = "Draw is not configured for this event"
	ErrMsgDrawAlreadyStartedErr   = "Draw was already started. Update the draw settings to run it again."
	ErrMsgWinnerNotFoundError     = "That number has not won"
	ErrMsgPrizeAlreadyClaimedErr  = "Prize was already claimed"
	ErrMsgOperatorTokenMissingErr = "No operator token has been issued yet"
)

// mapServiceErrorToUserMessage maps domain errors to HTTP status codes
// and messages an API consumer can act on.
func mapServiceErrorToUserMessage(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		return http.StatusNotFound, ErrMsgEventNotFoundError
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusConflict, ErrMsgInvalidStatusError
	case errors.Is(err, domain.ErrParticipantNotFound):
		return http.StatusNotFound, ErrMsgParticipantNotFoundErr
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return http.StatusConflict, ErrMsgAlreadyRegisteredError
	case errors.Is(err, domain.ErrDrawConfigMissing):
		return http.StatusPreconditionFailed, ErrMsgDrawConfigMissingError
	case errors.Is(err, domain.ErrDrawAlreadyStarted):
		return http.StatusConflict, ErrMsgDrawAlreadyStartedErr
	case errors.Is(err, domain.ErrWinnerNotFound):
		return http.StatusNotFound, ErrMsgWinnerNotFoundError
	case errors.Is(err, domain.ErrPrizeAlreadyClaimed):
		return http.StatusConflict, ErrMsgPrizeAlreadyClaimedErr
	case errors.Is(err, domain.ErrTokenNotFound):
		return http.StatusNotFound, ErrMsgOperatorTokenMissingErr
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrMsgInvalidRequestError
	default:
		return http.StatusInternalServerError, ErrMsgGenericServerError
	}
}

// respondServiceError logs the raw error and answers with its mapping
func respondServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	status, message := mapServiceErrorToUserMessage(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	} else {
		log.Warn("Request rejected", "error", err, "status", status)
	}
	respondError(w, status, message)
}
