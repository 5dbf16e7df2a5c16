package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus represents the lifecycle state of an event
type EventStatus string

const (
	EventStatusCreated  EventStatus = "created"
	EventStatusActive   EventStatus = "active"
	EventStatusFinished EventStatus = "finished"
)

// Valid reports whether the status is one of the known lifecycle states
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusCreated, EventStatusActive, EventStatusFinished:
		return true
	}
	return false
}

// Event represents a single prize-drawing campaign with its own
// participant pool and schedule
type Event struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	Schedule       string      `json:"schedule,omitempty"`
	PartnerMessage string      `json:"partner_message,omitempty"`
	MapLink        string      `json:"map_link,omitempty"`
	RulesLink      string      `json:"rules_link,omitempty"`
	PolicyLink     string      `json:"policy_link,omitempty"`
	PrizeTableLink string      `json:"prize_table_link,omitempty"`
	Status         EventStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// EventPatch holds optional fields for a partial event update.
// Nil fields are left untouched.
type EventPatch struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	Schedule       *string `json:"schedule,omitempty"`
	PartnerMessage *string `json:"partner_message,omitempty"`
	MapLink        *string `json:"map_link,omitempty"`
	RulesLink      *string `json:"rules_link,omitempty"`
	PolicyLink     *string `json:"policy_link,omitempty"`
	PrizeTableLink *string `json:"prize_table_link,omitempty"`
}
