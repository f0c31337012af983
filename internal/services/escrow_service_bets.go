package services

import (
	"context"
	"fmt"
	"log"

	"event-escrow/internal/models"
)

// PlaceBet escrows amount from bettor on an outcome of an active event whose
// betting window is still open, and returns the new bet's id. The payout is
// fixed now from the outcome's odds and the current fee rate.
//
// The stake transfer, the bet record, the bettor's index entry and the bet
// counter commit together. If the transferer cannot join the transaction and
// a write after the transfer fails, the stake is refunded before returning.
func (s *EscrowService) PlaceBet(
	ctx context.Context,
	eventID, outcomeID, amount uint64,
	bettor models.Identity,
) (uint64, error) {
	if amount == 0 {
		return 0, fmt.Errorf("%w: bet amount must be positive", ErrInvalidInput)
	}
	if err := requireIdentity("bettor", bettor); err != nil {
		return 0, err
	}

	var (
		betID       uint64
		transferred bool
	)
	err := s.mutate(ctx, "place_bet", func(ctx context.Context) error {
		event, err := s.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		outcome, err := s.GetOutcome(ctx, eventID, outcomeID)
		if err != nil {
			return err
		}
		if event.Status != models.EventStatusActive {
			return fmt.Errorf("%w: event %d is %s", ErrEventClosed, eventID, event.Status)
		}
		height, err := s.currentHeight(ctx)
		if err != nil {
			return err
		}
		if height >= event.StartHeight {
			return fmt.Errorf("%w: event %d started at height %d (now %d)", ErrEventClosed, eventID, event.StartHeight, height)
		}

		placed, err := s.repo.CountUserBets(ctx, bettor)
		if err != nil {
			return fmt.Errorf("failed to count bets: %w", err)
		}
		if placed >= int64(s.cfg.BetIndexCapacity) {
			return fmt.Errorf("%w: %s already has %d bets", ErrCapacityExceeded, bettor, placed)
		}

		feeRate, err := s.Fee(ctx)
		if err != nil {
			return err
		}
		payout, err := ComputePayout(amount, outcome.Odds, feeRate)
		if err != nil {
			return err
		}

		id, err := s.repo.NextID(ctx, models.CounterBets)
		if err != nil {
			return fmt.Errorf("failed to allocate bet id: %w", err)
		}

		if err := s.transferer.Transfer(ctx, amount, bettor, s.cfg.Custodian); err != nil {
			return fmt.Errorf("%w: escrow %d from %s: %w", ErrTransferFailed, amount, bettor, err)
		}
		transferred = true

		bet := &models.Bet{
			ID:              id,
			EventID:         eventID,
			OutcomeID:       outcomeID,
			Bettor:          bettor,
			Amount:          amount,
			Odds:            outcome.Odds,
			FeeRate:         feeRate,
			GrossPayout:     payout.Gross,
			PromisedPayout:  payout.Net,
			Status:          models.BetStatusActive,
			PlacementHeight: height,
		}
		if err := s.repo.CreateBet(ctx, bet); err != nil {
			return fmt.Errorf("failed to create bet: %w", err)
		}
		if err := s.repo.AppendUserBet(ctx, bettor, int(placed), id); err != nil {
			return fmt.Errorf("failed to index bet: %w", err)
		}

		betID = id
		return nil
	})
	if err != nil {
		if transferred && !joinsTransaction(s.transferer) {
			s.compensate(ctx, amount, s.cfg.Custodian, bettor, "refund stake")
		}
		return 0, err
	}

	s.metrics.ObserveEscrow(amount)
	log.Printf("[EscrowService] Bet %d placed by %s: %d on outcome %d of event %d",
		betID, bettor, amount, outcomeID, eventID)
	return betID, nil
}

// compensate reverses a transfer made by an operation whose writes rolled
// back. A failure here leaves the ledger and the value store out of step and
// is logged for manual reconciliation.
func (s *EscrowService) compensate(ctx context.Context, amount uint64, from, to models.Identity, reason string) {
	if err := s.transferer.Transfer(context.WithoutCancel(ctx), amount, from, to); err != nil {
		log.Printf("[EscrowService] RECONCILE: failed to %s of %d from %s to %s: %v", reason, amount, from, to, err)
		return
	}
	log.Printf("[EscrowService] Compensated rolled-back operation: %s of %d to %s", reason, amount, to)
}
