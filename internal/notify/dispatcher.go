// Package notify implements the notification fan-out used by draw
// rounds and admin announcements.
package notify

import (
	"context"
	"sync"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/logger"
)

// Messenger delivers a single message to a single contact.
// Implementations live next to their transport (internal/discord).
type Messenger interface {
	Send(ctx context.Context, contact domain.Contact, message string, imageURL string) error
}

// NopMessenger logs and drops every message. Used when no chat
// transport is configured, so draws still run in API-only deployments.
type NopMessenger struct{}

func (NopMessenger) Send(ctx context.Context, contact domain.Contact, message string, _ string) error {
	logger.FromContext(ctx).Info("Dropping notification, no messenger configured",
		"contact_id", contact.ID,
		"platform", contact.Platform)
	return nil
}

// Failure records one delivery that did not go through
type Failure struct {
	Contact domain.Contact
	Err     error
}

// Dispatcher fans a message out to a set of contacts
type Dispatcher struct {
	messenger Messenger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(messenger Messenger) *Dispatcher {
	return &Dispatcher{messenger: messenger}
}

// Dispatch attempts delivery to every contact concurrently and waits
// for all sends to settle. A failed send is logged and reported in the
// result; it never prevents delivery to the remaining contacts and
// never fails the batch. Retrying is left to the caller or operator.
func (d *Dispatcher) Dispatch(ctx context.Context, contacts []domain.Contact, message, imageURL string) []Failure {
	if len(contacts) == 0 {
		return nil
	}

	log := logger.FromContext(ctx)

	var (
		mu       sync.Mutex
		failures []Failure
		wg       sync.WaitGroup
	)

	for _, contact := range contacts {
		wg.Add(1)
		go func(c domain.Contact) {
			defer wg.Done()

			if err := d.messenger.Send(ctx, c, message, imageURL); err != nil {
				log.Error("Failed to deliver notification",
					"contact_id", c.ID,
					"platform", c.Platform,
					"error", err)

				mu.Lock()
				failures = append(failures, Failure{Contact: c, Err: err})
				mu.Unlock()
			}
		}(contact)
	}

	wg.Wait()

	if len(failures) > 0 {
		log.Warn("Notification fan-out finished with failures",
			"total", len(contacts),
			"failed", len(failures))
	}
	return failures
}
