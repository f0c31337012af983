package services

import (
	"fmt"

	"event-escrow/internal/models"
)

// requireIdentity rejects callers that are not a well-formed identity.
func requireIdentity(role string, id models.Identity) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %s %q is not a valid identity", ErrInvalidInput, role, id)
	}
	return nil
}

func requireCreator(event *models.Event, caller models.Identity) error {
	if caller != event.Creator {
		return fmt.Errorf("%w: only the creator of event %d may do this", ErrUnauthorized, event.ID)
	}
	return nil
}

func requireCreatorOrOracle(event *models.Event, caller models.Identity) error {
	if caller != event.Creator && caller != event.Oracle {
		return fmt.Errorf("%w: only the creator or oracle of event %d may do this", ErrUnauthorized, event.ID)
	}
	return nil
}

func requireOracle(event *models.Event, caller models.Identity) error {
	if caller != event.Oracle {
		return fmt.Errorf("%w: only the oracle of event %d may do this", ErrUnauthorized, event.ID)
	}
	return nil
}

func requireBettor(bet *models.Bet, caller models.Identity) error {
	if caller != bet.Bettor {
		return fmt.Errorf("%w: bet %d belongs to another bettor", ErrUnauthorized, bet.ID)
	}
	return nil
}

func (s *EscrowService) requireAdmin(caller models.Identity) error {
	if caller != s.cfg.Admin {
		return fmt.Errorf("%w: only the administrator may do this", ErrUnauthorized)
	}
	return nil
}
