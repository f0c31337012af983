package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"event-escrow/internal/models"
)

// AddOutcome attaches an outcome with fixed odds (x100) to an event. Only the
// event's creator may add outcomes. Outcome ids are chosen by the caller and
// must be unique within the event.
func (s *EscrowService) AddOutcome(
	ctx context.Context,
	eventID, outcomeID uint64,
	description string,
	odds uint64,
	caller models.Identity,
) error {
	description = strings.TrimSpace(description)

	return s.mutate(ctx, "add_outcome", func(ctx context.Context) error {
		event, err := s.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := requireCreator(event, caller); err != nil {
			return err
		}
		if description == "" {
			return fmt.Errorf("%w: outcome description is required", ErrInvalidInput)
		}
		if odds < MinOdds {
			return fmt.Errorf("%w: odds %d below minimum %d", ErrInvalidOdds, odds, MinOdds)
		}

		_, err = s.repo.GetOutcome(ctx, eventID, outcomeID)
		if err == nil {
			return fmt.Errorf("%w: outcome %d of event %d", ErrOutcomeExists, outcomeID, eventID)
		}
		if !isMissing(err) {
			return fmt.Errorf("failed to check outcome: %w", err)
		}

		outcome := &models.Outcome{
			EventID:     eventID,
			OutcomeID:   outcomeID,
			Description: description,
			Odds:        odds,
			Status:      models.OutcomeStatusPending,
		}
		if err := s.repo.CreateOutcome(ctx, outcome); err != nil {
			return fmt.Errorf("failed to create outcome: %w", err)
		}

		log.Printf("[EscrowService] Outcome %d added to event %d at odds %d", outcomeID, eventID, odds)
		return nil
	})
}

// markWinner flips an outcome to WON. It is only called from ResolveEvent,
// inside the resolving transaction.
func (s *EscrowService) markWinner(ctx context.Context, eventID, outcomeID uint64) error {
	if err := s.repo.MarkOutcomeWon(ctx, eventID, outcomeID); err != nil {
		return notFound(err, "outcome %d of event %d", outcomeID, eventID)
	}
	return nil
}
