package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Event errors
	ErrMsgEventNotFound = "event not found"
	ErrMsgInvalidStatus = "invalid event status"

	// Participant errors
	ErrMsgParticipantNotFound = "participant not found"
	ErrMsgAlreadyRegistered   = "contact already registered for event"
	ErrMsgShortIDTaken        = "short id already taken for event"
	ErrMsgContactNotFound     = "contact not found"

	// Draw errors
	ErrMsgDrawConfigMissing   = "draw configuration not found"
	ErrMsgDrawAlreadyStarted  = "draw already started"
	ErrMsgDuplicateWinner     = "winner already recorded"
	ErrMsgWinnerNotFound      = "winner record not found"
	ErrMsgPrizeAlreadyClaimed = "prize already claimed"

	// Scheduler errors
	ErrMsgUnknownJobKind = "unknown job kind"

	// Token errors
	ErrMsgTokenNotFound = "operator token not found"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// Event errors
	ErrEventNotFound = errors.New(ErrMsgEventNotFound)
	ErrInvalidStatus = errors.New(ErrMsgInvalidStatus)

	// Participant errors
	ErrParticipantNotFound = errors.New(ErrMsgParticipantNotFound)
	ErrAlreadyRegistered   = errors.New(ErrMsgAlreadyRegistered)
	ErrShortIDTaken        = errors.New(ErrMsgShortIDTaken)
	ErrContactNotFound     = errors.New(ErrMsgContactNotFound)

	// Draw errors
	ErrDrawConfigMissing   = errors.New(ErrMsgDrawConfigMissing)
	ErrDrawAlreadyStarted  = errors.New(ErrMsgDrawAlreadyStarted)
	ErrDuplicateWinner     = errors.New(ErrMsgDuplicateWinner)
	ErrWinnerNotFound      = errors.New(ErrMsgWinnerNotFound)
	ErrPrizeAlreadyClaimed = errors.New(ErrMsgPrizeAlreadyClaimed)

	// Scheduler errors
	ErrUnknownJobKind = errors.New(ErrMsgUnknownJobKind)

	// Token errors
	ErrTokenNotFound = errors.New(ErrMsgTokenNotFound)

	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)
