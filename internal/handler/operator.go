package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eventdraw/drawbot/internal/logger"
	"github.com/eventdraw/drawbot/internal/participant"
	"github.com/eventdraw/drawbot/internal/repository"
)

// LookupResponse is the operator view of a participant
type LookupResponse struct {
	ShortID     int    `json:"short_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// shortIDFromRequest parses the {shortID} URL parameter
func shortIDFromRequest(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "shortID"))
}

// HandleLookupParticipant resolves a draw number at the prize desk
func HandleLookupParticipant(participants participant.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		shortID, err := shortIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		p, err := participants.FindByShortID(r.Context(), shortID)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}

		respondJSON(w, http.StatusOK, LookupResponse{
			ShortID:     p.ShortID,
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			PhoneNumber: p.PhoneNumber,
		})
	}
}

// ClaimRequest identifies the prize being handed out
type ClaimRequest struct {
	EventID string `json:"event_id" validate:"required,uuid"`
}

// HandleClaimPrize marks a winner's prize as handed out
func HandleClaimPrize(participants participant.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		shortID, err := shortIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		var req ClaimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn("Failed to decode claim request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidBodyError)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondError(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}
		eventID, err := uuid.Parse(req.EventID)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		info, err := participants.ClaimPrize(r.Context(), eventID, shortID)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}
		respondJSON(w, http.StatusOK, info)
	}
}

// TokenResponse carries a freshly rotated operator token
type TokenResponse struct {
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// HandleRotateOperatorToken issues a new operator token, invalidating
// the previous one.
func HandleRotateOperatorToken(tokens repository.Token) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		token := uuid.NewString()
		now := time.Now()
		if err := tokens.RotateOperatorToken(r.Context(), token, now); err != nil {
			respondServiceError(w, log, err)
			return
		}

		log.Info("Operator token rotated")
		respondJSON(w, http.StatusOK, TokenResponse{Token: token, UpdatedAt: now})
	}
}

// HandleGetOperatorToken returns the current operator token so an admin
// can hand it to the prize desk.
func HandleGetOperatorToken(tokens repository.Token) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := tokens.GetOperatorToken(r.Context())
		if err != nil {
			respondServiceError(w, logger.FromContext(r.Context()), err)
			return
		}
		respondJSON(w, http.StatusOK, TokenResponse{Token: token})
	}
}

// HandleVerifyOperatorToken lets the prize desk check its token before
// scanning numbers. The token middleware has already validated it by
// the time this runs.
func HandleVerifyOperatorToken() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}
