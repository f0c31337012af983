package services

import (
	"errors"
)

// Ledger error kinds. Every mutating operation fails with exactly one of
// these (possibly wrapped) and leaves no partial state behind.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidOdds       = errors.New("invalid odds")
	ErrEventClosed       = errors.New("event closed")
	ErrEventNotClosed    = errors.New("event not closed")
	ErrEventNotResolved  = errors.New("event not resolved")
	ErrBetInactive       = errors.New("bet inactive")
	ErrCapacityExceeded  = errors.New("bet index capacity exceeded")
	ErrTransferFailed    = errors.New("transfer failed")
	ErrOutcomeExists     = errors.New("outcome already exists")
	ErrOutcomeNotWinning = errors.New("outcome not winning")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrNotFound, "not_found"},
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidInput, "invalid_input"},
	{ErrInvalidOdds, "invalid_odds"},
	{ErrEventClosed, "event_closed"},
	{ErrEventNotClosed, "event_not_closed"},
	{ErrEventNotResolved, "event_not_resolved"},
	{ErrBetInactive, "bet_inactive"},
	{ErrCapacityExceeded, "capacity_exceeded"},
	{ErrTransferFailed, "transfer_failed"},
	{ErrOutcomeExists, "outcome_exists"},
	{ErrOutcomeNotWinning, "outcome_not_winning"},
}

// ErrorKind returns a stable label for err: "ok" for nil, the ledger kind
// it wraps, or "internal".
func ErrorKind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
