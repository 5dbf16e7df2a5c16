package domain

import (
	"time"

	"github.com/google/uuid"
)

// ShortID bounds for the human-presentable participant code.
// Six digits keeps the code readable at a prize desk.
const (
	ShortIDMin = 100000
	ShortIDMax = 999999
)

// Contact is an external messaging identity capable of receiving
// notifications. A contact exists independently of any event.
type Contact struct {
	ID         uuid.UUID `json:"id"`
	Platform   string    `json:"platform"`
	PlatformID string    `json:"platform_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Participant is a registrant tied to one event and one contact.
// ShortID is unique per event and is what operators use for prize
// redemption lookups.
type Participant struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	ContactID   uuid.UUID `json:"contact_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	ShortID     int       `json:"short_id"`
	CreatedAt   time.Time `json:"created_at"`
}
