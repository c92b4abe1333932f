// services/errors.go
package services

import (
	"errors"
)

// Precondition violations. Each carries the exact violated precondition so
// calling layers can distinguish retriable misuse from structural failure.
// They are rejected synchronously and leave no side effect.
var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrInvalidGameType    = errors.New("unknown game type")
	ErrWagerTooLow        = errors.New("wager below minimum")
	ErrWagerTooHigh       = errors.New("wager above maximum")
	ErrWagerMismatch      = errors.New("wager mismatch")
	ErrMatchNotJoinable   = errors.New("match is not open for joining")
	ErrSelfJoin           = errors.New("creator cannot join their own match")
	ErrNotAPlayer         = errors.New("not a player")
	ErrInvalidCommitment  = errors.New("commitment must be a 32-byte digest")
	ErrNotCommitPhase     = errors.New("match is not in the commit phase")
	ErrAlreadyCommitted   = errors.New("already committed")
	ErrNotRevealPhase     = errors.New("match is not in the reveal phase")
	ErrAlreadyRevealed    = errors.New("already revealed")
	ErrEmptyMove          = errors.New("move payload required")
	ErrCommitmentMismatch = errors.New("reveal does not match commitment")
	ErrMatchNotResolvable = errors.New("match is not in a resolvable state")
	ErrWinnerNotPlayer    = errors.New("winner is not a match player")
	ErrNotCreator         = errors.New("only the match creator may cancel")
	ErrMatchNotCancellable = errors.New("only an unjoined match can be cancelled")
	ErrMatchTerminal      = errors.New("match already in a terminal state")
	ErrTimeoutNotElapsed  = errors.New("timeout has not elapsed")

	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentNameRequired   = errors.New("tournament name required")
	ErrInvalidCapacity          = errors.New("capacity must be 2, 4, 8 or 16")
	ErrInvalidEntryFee          = errors.New("entry fee must be positive")
	ErrRegistrationClosed       = errors.New("tournament is not open for registration")
	ErrTournamentFull           = errors.New("tournament is full")
	ErrAlreadyRegistered        = errors.New("already registered")
	ErrEntryFeeMismatch         = errors.New("entry fee mismatch")
	ErrTournamentNotActive      = errors.New("tournament is not active")
	ErrBracketMatchNotFound     = errors.New("bracket match not found")
	ErrBracketMatchCompleted    = errors.New("bracket match already completed")
	ErrWinnerNotContestant      = errors.New("winner is not a contestant in this bracket match")
	ErrTournamentNotCancellable = errors.New("tournament can no longer be cancelled")

	ErrNotResolver   = errors.New("caller is not an authorized resolver")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// ErrInsufficientFunds is the transfer-failure case: the enclosing operation
// rolls back entirely and the condition must be surfaced to an operator.
var ErrInsufficientFunds = errors.New("insufficient wallet balance")

var preconditionErrors = []error{
	ErrInvalidGameType, ErrWagerTooLow, ErrWagerTooHigh, ErrWagerMismatch,
	ErrMatchNotJoinable, ErrSelfJoin, ErrNotAPlayer, ErrInvalidCommitment,
	ErrNotCommitPhase, ErrAlreadyCommitted, ErrNotRevealPhase,
	ErrAlreadyRevealed, ErrEmptyMove, ErrCommitmentMismatch,
	ErrMatchNotResolvable, ErrWinnerNotPlayer, ErrNotCreator,
	ErrMatchNotCancellable, ErrMatchTerminal, ErrTimeoutNotElapsed,
	ErrTournamentNameRequired, ErrInvalidCapacity, ErrInvalidEntryFee,
	ErrRegistrationClosed, ErrTournamentFull, ErrAlreadyRegistered,
	ErrEntryFeeMismatch, ErrTournamentNotActive, ErrBracketMatchCompleted,
	ErrWinnerNotContestant, ErrTournamentNotCancellable, ErrInvalidAmount,
}

// IsPrecondition reports whether err is a synchronous precondition
// violation (as opposed to a not-found, auth, transfer or internal error).
func IsPrecondition(err error) bool {
	for _, pe := range preconditionErrors {
		if errors.Is(err, pe) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err refers to a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMatchNotFound) ||
		errors.Is(err, ErrTournamentNotFound) ||
		errors.Is(err, ErrBracketMatchNotFound)
}
