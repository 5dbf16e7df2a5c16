package domain

import (
	"time"

	"github.com/google/uuid"
)

// DrawConfig holds the per-event prize draw settings. At most one
// config exists per event. DrawInterval is expressed in hours between
// rounds; DrawDuration is the number of rounds to schedule.
type DrawConfig struct {
	EventID        uuid.UUID `json:"event_id"`
	IntroMessage   string    `json:"intro_message"`
	WinnerNumber   int       `json:"winner_number"`
	DrawInterval   int       `json:"draw_interval"`
	DrawDuration   int       `json:"draw_duration"`
	WinnersMessage string    `json:"winners_message"`
	Completed      bool      `json:"completed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DrawConfigPatch holds optional fields for a partial draw config
// update. Nil fields are left untouched. Completed is managed by the
// draw service, not through patches.
type DrawConfigPatch struct {
	IntroMessage   *string `json:"intro_message,omitempty"`
	WinnerNumber   *int    `json:"winner_number,omitempty"`
	DrawInterval   *int    `json:"draw_interval,omitempty"`
	DrawDuration   *int    `json:"draw_duration,omitempty"`
	WinnersMessage *string `json:"winners_message,omitempty"`
}

// WinnerRecord ties a participant short id to an event as persistent
// proof that the short id has already won. The (EventID, ShortID) pair
// is unique, which makes repeated insertion attempts idempotent.
type WinnerRecord struct {
	EventID   uuid.UUID `json:"event_id"`
	ShortID   int       `json:"short_id"`
	Claimed   bool      `json:"claimed"`
	CreatedAt time.Time `json:"created_at"`
}

// WinnerInfo is the external reporting view of a winner record joined
// with its participant.
type WinnerInfo struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ShortID      int    `json:"short_id"`
	PrizeClaimed bool   `json:"prize_claimed"`
}

// DrawRoundPayload is the typed payload carried by a scheduled draw
// round job. Rounds are independent one-shot jobs; recurrence is
// modeled as N separately scheduled payloads.
type DrawRoundPayload struct {
	EventID        uuid.UUID `json:"event_id"`
	Round          int       `json:"round"`
	WinnerNumber   int       `json:"winner_number"`
	WinnersMessage string    `json:"winners_message"`
}
