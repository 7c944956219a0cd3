package services

import "errors"

// Shared service errors, mapped onto HTTP statuses in the handlers layer.
var (
	// Not found.
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrCourtNotFound      = errors.New("court not found")

	// Validation.
	ErrValidation = errors.New("validation failed")

	// State machine violations. Rejections are all-or-nothing: the match
	// graph is never left partially mutated.
	ErrInvalidStateTransition = errors.New("invalid match state transition")
	ErrMatchNotReady          = errors.New("match is waiting for both slots to fill")
	ErrInvalidScore           = errors.New("score is not valid for this match")

	// Bracket lifecycle.
	ErrTournamentNotDraft = errors.New("tournament has already been activated")
	ErrBracketLocked      = errors.New("bracket cannot be regenerated once a match has completed")
)
