package services

import (
	"context"
	"fmt"
	"log"

	"event-escrow/internal/models"
)

// Fee returns the current platform fee rate (x1000).
func (s *EscrowService) Fee(ctx context.Context) (uint64, error) {
	rate, found, err := s.repo.GetFeeRate(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get fee rate: %w", err)
	}
	if !found {
		return s.cfg.DefaultFeeRate, nil
	}
	return rate, nil
}

// SetFee changes the platform fee rate. Only the configured administrator may
// call it and the rate may not exceed MaxFeeRate. Bets already placed keep
// the payout computed at their placement.
func (s *EscrowService) SetFee(ctx context.Context, newRate uint64, caller models.Identity) error {
	if newRate > MaxFeeRate {
		return fmt.Errorf("%w: fee rate %d exceeds cap %d", ErrInvalidInput, newRate, MaxFeeRate)
	}
	if err := s.requireAdmin(caller); err != nil {
		return err
	}

	return s.mutate(ctx, "set_fee", func(ctx context.Context) error {
		if err := s.repo.SetFeeRate(ctx, newRate, caller); err != nil {
			return fmt.Errorf("failed to set fee rate: %w", err)
		}
		log.Printf("[EscrowService] Fee rate set to %d by %s", newRate, caller)
		return nil
	})
}
