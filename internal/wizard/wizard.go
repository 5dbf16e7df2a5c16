// Package wizard implements the step-by-step registration conversation
// driven over direct messages: last name, first name, phone number,
// then a confirmation before the participant is enrolled.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/logger"
	"github.com/eventdraw/drawbot/internal/participant"
)

// Step identifies the current question of a registration session
type Step int

const (
	StepLastName Step = iota
	StepFirstName
	StepPhone
	StepConfirm
)

// SessionTTL is how long an idle session survives before Input treats
// it as expired.
const SessionTTL = 30 * time.Minute

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{6,18}$`)

// ErrNoSession is returned by Input when the contact has no active
// registration session.
var ErrNoSession = errors.New("no active registration session")

const (
	promptLastName  = "Let's get you registered. What is your last name?"
	promptFirstName = "And your first name?"
	promptPhone     = "What phone number can we reach you on?"
	promptCancelled = "Registration cancelled. Send /register to start over."
	promptExpired   = "Your registration session expired. Send /register to start over."
)

type session struct {
	eventID  uuid.UUID
	step     Step
	reg      participant.Registration
	lastSeen time.Time
}

// Wizard tracks one registration session per messaging identity
type Wizard struct {
	mu           sync.Mutex
	sessions     map[string]*session
	participants participant.Service
}

// New creates a new registration wizard
func New(participants participant.Service) *Wizard {
	return &Wizard{
		sessions:     make(map[string]*session),
		participants: participants,
	}
}

func sessionKey(platform, platformID string) string {
	return platform + ":" + platformID
}

// Start opens a session for the contact and returns the first prompt.
// A contact already registered for the event is turned away before any
// questions are asked; an existing session is restarted.
func (w *Wizard) Start(ctx context.Context, eventID uuid.UUID, platform, platformID, displayName string) (string, error) {
	existing, err := w.participants.FindByPlatformID(ctx, eventID, platform, platformID)
	if err == nil && existing != nil {
		return fmt.Sprintf("You are already registered. Your draw number is %d.", existing.ShortID),
			domain.ErrAlreadyRegistered
	}
	if err != nil && !errors.Is(err, domain.ErrParticipantNotFound) && !errors.Is(err, domain.ErrContactNotFound) {
		return "", err
	}

	w.mu.Lock()
	w.sessions[sessionKey(platform, platformID)] = &session{
		eventID: eventID,
		step:    StepLastName,
		reg: participant.Registration{
			Platform:    platform,
			PlatformID:  platformID,
			DisplayName: displayName,
		},
		lastSeen: time.Now(),
	}
	w.mu.Unlock()

	logger.FromContext(ctx).Debug("Registration session started",
		"event_id", eventID, "platform", platform)
	return promptLastName, nil
}

// Cancel drops the contact's session. Reports whether one existed.
func (w *Wizard) Cancel(platform, platformID string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := sessionKey(platform, platformID)
	if _, ok := w.sessions[key]; !ok {
		return "", false
	}
	delete(w.sessions, key)
	return promptCancelled, true
}

// Active reports whether the contact has a live session
func (w *Wizard) Active(platform, platformID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.sessions[sessionKey(platform, platformID)]
	return ok && time.Since(s.lastSeen) <= SessionTTL
}

// Input feeds one message into the contact's session and returns the
// next prompt. done is true once the session ended, successfully or not.
// The step transition runs entirely under the wizard lock; the chat
// transport delivers messages on separate goroutines, so two quick
// messages from the same contact race here otherwise.
func (w *Wizard) Input(ctx context.Context, platform, platformID, text string) (reply string, done bool, err error) {
	key := sessionKey(platform, platformID)
	text = strings.TrimSpace(text)

	w.mu.Lock()
	s, ok := w.sessions[key]
	if ok && time.Since(s.lastSeen) > SessionTTL {
		delete(w.sessions, key)
		w.mu.Unlock()
		return promptExpired, true, nil
	}
	if !ok {
		w.mu.Unlock()
		return "", false, ErrNoSession
	}
	s.lastSeen = time.Now()

	var confirmed bool
	reply, confirmed, err = s.advance(text)
	if !confirmed {
		w.mu.Unlock()
		return reply, false, err
	}

	// Enrollment happens outside the lock. The session is removed
	// first, so a re-sent "yes" cannot double-register.
	eventID, reg := s.eventID, s.reg
	delete(w.sessions, key)
	w.mu.Unlock()

	return w.enroll(ctx, eventID, reg)
}

// advance applies one message to the session. confirmed reports that
// the contact accepted the summary and enrollment should proceed.
// Callers must hold the wizard lock.
func (s *session) advance(text string) (reply string, confirmed bool, err error) {
	switch s.step {
	case StepLastName:
		if text == "" {
			return "Please enter your last name.", false, nil
		}
		s.reg.LastName = text
		s.step = StepFirstName
		return promptFirstName, false, nil

	case StepFirstName:
		if text == "" {
			return "Please enter your first name.", false, nil
		}
		s.reg.FirstName = text
		s.step = StepPhone
		return promptPhone, false, nil

	case StepPhone:
		if !phonePattern.MatchString(text) {
			return "That does not look like a phone number. Try again, digits only.", false, nil
		}
		s.reg.PhoneNumber = text
		s.step = StepConfirm
		return fmt.Sprintf("Please confirm: %s %s, phone %s. Reply yes or no.",
			s.reg.FirstName, s.reg.LastName, s.reg.PhoneNumber), false, nil

	case StepConfirm:
		switch strings.ToLower(text) {
		case "yes", "y":
			return "", true, nil
		case "no", "n":
			s.step = StepLastName
			s.reg.FirstName, s.reg.LastName, s.reg.PhoneNumber = "", "", ""
			return "No problem, let's start over. " + promptLastName, false, nil
		default:
			return "Reply yes to confirm or no to start over.", false, nil
		}
	}
	return "", false, fmt.Errorf("unexpected wizard step %d", s.step)
}

func (w *Wizard) enroll(ctx context.Context, eventID uuid.UUID, reg participant.Registration) (string, bool, error) {
	p, err := w.participants.Register(ctx, eventID, reg)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyRegistered) {
			return "You are already registered for this event.", true, nil
		}
		return "Something went wrong, please try again later.", true, err
	}

	return fmt.Sprintf("You're in! Your draw number is %d. Keep it safe, you'll need it to claim a prize.", p.ShortID),
		true, nil
}
