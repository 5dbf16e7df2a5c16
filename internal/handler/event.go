package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/eventsvc"
	"github.com/eventdraw/drawbot/internal/logger"
)

// CreateEventRequest represents the request to create an event
type CreateEventRequest struct {
	Title          string `json:"title" validate:"required,min=1,max=200"`
	Description    string `json:"description" validate:"max=4000"`
	Schedule       string `json:"schedule" validate:"max=4000"`
	PartnerMessage string `json:"partner_message" validate:"max=4000"`
	MapLink        string `json:"map_link" validate:"omitempty,url"`
	RulesLink      string `json:"rules_link" validate:"omitempty,url"`
	PolicyLink     string `json:"policy_link" validate:"omitempty,url"`
	PrizeTableLink string `json:"prize_table_link" validate:"omitempty,url"`
}

// SetStatusRequest represents the request to change an event's status
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=created active finished"`
}

// eventIDFromRequest parses the {eventID} URL parameter
func eventIDFromRequest(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "eventID"))
}

// HandleCreateEvent handles event creation
func HandleCreateEvent(events eventsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req CreateEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn("Failed to decode create event request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidBodyError)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondError(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		e := &domain.Event{
			Title:          req.Title,
			Description:    req.Description,
			Schedule:       req.Schedule,
			PartnerMessage: req.PartnerMessage,
			MapLink:        req.MapLink,
			RulesLink:      req.RulesLink,
			PolicyLink:     req.PolicyLink,
			PrizeTableLink: req.PrizeTableLink,
		}
		if err := events.Create(r.Context(), e); err != nil {
			respondServiceError(w, log, err)
			return
		}

		respondJSON(w, http.StatusCreated, e)
	}
}

// HandleListEvents returns all events
func HandleListEvents(events eventsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := events.List(r.Context())
		if err != nil {
			respondServiceError(w, logger.FromContext(r.Context()), err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: list})
	}
}

// HandleGetEvent returns a single event
func HandleGetEvent(events eventsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		id, err := eventIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		e, err := events.Get(r.Context(), id)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}
		respondJSON(w, http.StatusOK, e)
	}
}

// HandleUpdateEvent applies a partial update to an event
func HandleUpdateEvent(events eventsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		id, err := eventIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		var patch domain.EventPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			log.Warn("Failed to decode event patch", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidBodyError)
			return
		}

		if err := events.Update(r.Context(), id, patch); err != nil {
			respondServiceError(w, log, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "event updated"})
	}
}

// HandleSetEventStatus transitions an event's lifecycle state
func HandleSetEventStatus(events eventsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		id, err := eventIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		var req SetStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn("Failed to decode status request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidBodyError)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondError(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		if err := events.SetStatus(r.Context(), id, domain.EventStatus(req.Status)); err != nil {
			respondServiceError(w, log, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "status updated"})
	}
}

// AnnounceRequest represents a broadcast to all known contacts
type AnnounceRequest struct {
	Message  string `json:"message" validate:"required,min=1,max=4000"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

// AnnounceResponse reports how many contacts the broadcast targets
type AnnounceResponse struct {
	Recipients int `json:"recipients"`
}

// HandleAnnounce queues a broadcast message to every known contact
func HandleAnnounce(events eventsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req AnnounceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn("Failed to decode announce request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidBodyError)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondError(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		count, err := events.Announce(r.Context(), req.Message, req.ImageURL)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}
		respondJSON(w, http.StatusAccepted, AnnounceResponse{Recipients: count})
	}
}

// HandleNotifyParticipants queues an ad-hoc message to every registered
// participant of one event.
func HandleNotifyParticipants(events eventsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		id, err := eventIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		var req AnnounceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Warn("Failed to decode notification request", "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidBodyError)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondError(w, http.StatusBadRequest, FormatValidationError(err))
			return
		}

		count, err := events.NotifyParticipants(r.Context(), id, req.Message, req.ImageURL)
		if err != nil {
			respondServiceError(w, log, err)
			return
		}
		respondJSON(w, http.StatusAccepted, AnnounceResponse{Recipients: count})
	}
}
