package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"event-escrow/internal/models"

	"gorm.io/gorm"
)

// CreateEvent registers a new event and returns its id. The betting window
// runs until startHeight, which must lie in the future; endHeight must come
// after startHeight. The caller becomes the event's creator.
func (s *EscrowService) CreateEvent(
	ctx context.Context,
	name, category string,
	startHeight, endHeight uint64,
	oracle, caller models.Identity,
) (uint64, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if name == "" {
		return 0, fmt.Errorf("%w: event name is required", ErrInvalidInput)
	}
	if category == "" {
		return 0, fmt.Errorf("%w: event category is required", ErrInvalidInput)
	}
	if endHeight <= startHeight {
		return 0, fmt.Errorf("%w: end height %d must be after start height %d", ErrInvalidInput, endHeight, startHeight)
	}
	if err := requireIdentity("oracle", oracle); err != nil {
		return 0, err
	}
	if err := requireIdentity("creator", caller); err != nil {
		return 0, err
	}

	var eventID uint64
	err := s.mutate(ctx, "create_event", func(ctx context.Context) error {
		height, err := s.currentHeight(ctx)
		if err != nil {
			return err
		}
		if startHeight <= height {
			return fmt.Errorf("%w: start height %d is not after current height %d", ErrInvalidInput, startHeight, height)
		}

		id, err := s.repo.NextID(ctx, models.CounterEvents)
		if err != nil {
			return fmt.Errorf("failed to allocate event id: %w", err)
		}

		event := &models.Event{
			ID:             id,
			Name:           name,
			Category:       category,
			StartHeight:    startHeight,
			EndHeight:      endHeight,
			CreationHeight: height,
			Status:         models.EventStatusActive,
			Creator:        caller,
			Oracle:         oracle,
		}
		if err := s.repo.CreateEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}

		eventID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[EscrowService] Event %d created by %s (window closes at %d, oracle %s)",
		eventID, caller, startHeight, oracle)
	return eventID, nil
}

// CloseEvent stops betting on an active event. Only its creator or oracle may
// close it, and only once.
func (s *EscrowService) CloseEvent(ctx context.Context, eventID uint64, caller models.Identity) error {
	return s.mutate(ctx, "close_event", func(ctx context.Context) error {
		event, err := s.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := requireCreatorOrOracle(event, caller); err != nil {
			return err
		}
		if !event.Status.CanAdvanceTo(models.EventStatusClosed) {
			return fmt.Errorf("%w: event %d is %s", ErrEventClosed, eventID, event.Status)
		}

		now := time.Now()
		err = s.repo.UpdateEventStatus(ctx, eventID, models.EventStatusActive, map[string]interface{}{
			"status":    models.EventStatusClosed,
			"closed_at": &now,
		})
		if err != nil {
			return fmt.Errorf("failed to close event: %w", err)
		}

		log.Printf("[EscrowService] Event %d closed by %s", eventID, caller)
		return nil
	})
}

// ResolveEvent declares the winning outcome of a closed event. Only the
// event's oracle may resolve it. The event and the winning outcome change
// status together.
func (s *EscrowService) ResolveEvent(
	ctx context.Context,
	eventID, winningOutcomeID uint64,
	caller models.Identity,
) error {
	return s.mutate(ctx, "resolve_event", func(ctx context.Context) error {
		event, err := s.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if _, err := s.GetOutcome(ctx, eventID, winningOutcomeID); err != nil {
			return err
		}
		if err := requireOracle(event, caller); err != nil {
			return err
		}
		if event.Status != models.EventStatusClosed {
			return fmt.Errorf("%w: event %d is %s", ErrEventNotClosed, eventID, event.Status)
		}

		now := time.Now()
		err = s.repo.UpdateEventStatus(ctx, eventID, models.EventStatusClosed, map[string]interface{}{
			"status":             models.EventStatusResolved,
			"winning_outcome_id": winningOutcomeID,
			"resolved_at":        &now,
		})
		if err != nil {
			return fmt.Errorf("failed to resolve event: %w", err)
		}

		if err := s.markWinner(ctx, eventID, winningOutcomeID); err != nil {
			return err
		}

		log.Printf("[EscrowService] Event %d resolved by %s, winning outcome %d", eventID, caller, winningOutcomeID)
		return nil
	})
}

func isMissing(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
