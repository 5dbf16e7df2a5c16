package handler

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/draw"
	"github.com/eventdraw/drawbot/internal/logger"
	"github.com/eventdraw/drawbot/internal/repository"
)

// DrawConfigRequest represents the draw settings upsert
type DrawConfigRequest struct {
	IntroMessage   *string `json:"intro_message" validate:"omitempty,max=4000"`
	WinnerNumber   *int    `json:"winner_number" validate:"omitempty,min=1,max=1000"`
	DrawInterval   *int    `json:"draw_interval" validate:"omitempty,min=1,max=168"`
	DrawDuration   *int    `json:"draw_duration" validate:"omitempty,min=1,max=100"`
	WinnersMessage *string `json:"winners_message" validate:"omitempty,max=4000"`
}

// HandleUpsertDrawConfig creates or updates the draw settings of an
// event. Any update re-arms a completed draw.
func HandleUpsertDrawConfig(configs repository.DrawConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		eventID, err := eventIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		var req DrawConfigRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn("Failed to decode draw config request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidBodyError)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondError(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		patch := domain.DrawConfigPatch{
			IntroMessage:   req.IntroMessage,
			WinnerNumber:   req.WinnerNumber,
			DrawInterval:   req.DrawInterval,
			DrawDuration:   req.DrawDuration,
			WinnersMessage: req.WinnersMessage,
		}
		if err := configs.UpsertDrawConfig(r.Context(), eventID, patch); err != nil {
			respondServiceError(w, log, err)
			return
		}

		cfg, err := configs.GetDrawConfig(r.Context(), eventID)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}
		respondJSON(w, http.StatusOK, cfg)
	}
}

// HandleGetDrawConfig returns the draw settings of an event
func HandleGetDrawConfig(configs repository.DrawConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		eventID, err := eventIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		cfg, err := configs.GetDrawConfig(r.Context(), eventID)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}
		respondJSON(w, http.StatusOK, cfg)
	}
}

// HandleStartDraw triggers the scheduled prize draw for an event
func HandleStartDraw(draws draw.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		eventID, err := eventIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		if err := draws.StartDraw(r.Context(), eventID); err != nil {
			respondServiceError(w, log, err)
			return
		}
		respondJSON(w, http.StatusAccepted, SuccessResponse{Message: "draw scheduled"})
	}
}

// HandleListWinners returns the winner ledger of an event
func HandleListWinners(draws draw.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		eventID, err := eventIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		winners, err := draws.ListWinners(r.Context(), eventID)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: winners})
	}
}

// HandleExportParticipants streams the participant list as CSV for the
// on-site check-in desk.
func HandleExportParticipants(participants repository.Participant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		eventID, err := eventIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		list, err := participants.ListParticipants(r.Context(), eventID)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "participants-"+eventID.String()+".csv"))

		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"short_id", "last_name", "first_name", "phone_number"})
		for _, p := range list {
			_ = cw.Write([]string{
				strconv.Itoa(p.ShortID),
				p.LastName,
				p.FirstName,
				p.PhoneNumber,
			})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			log.Error("Failed to write participant CSV", "error", err)
		}
	}
}
