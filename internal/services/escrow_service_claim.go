package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"event-escrow/internal/models"
)

// ClaimWinnings pays a winning bet's promised payout from the custodian to its
// bettor and marks the bet claimed. A bet can be claimed once.
func (s *EscrowService) ClaimWinnings(ctx context.Context, betID uint64, caller models.Identity) error {
	var (
		bet         *models.Bet
		transferred bool
	)
	err := s.mutate(ctx, "claim_winnings", func(ctx context.Context) error {
		var err error
		bet, err = s.GetBet(ctx, betID)
		if err != nil {
			return err
		}
		if err := requireBettor(bet, caller); err != nil {
			return err
		}
		if bet.Status != models.BetStatusActive {
			return fmt.Errorf("%w: bet %d is %s", ErrBetInactive, betID, bet.Status)
		}

		event, err := s.GetEvent(ctx, bet.EventID)
		if err != nil {
			return err
		}
		if event.Status != models.EventStatusResolved {
			return fmt.Errorf("%w: event %d is %s", ErrEventNotResolved, event.ID, event.Status)
		}
		outcome, err := s.GetOutcome(ctx, bet.EventID, bet.OutcomeID)
		if err != nil {
			return err
		}
		if outcome.Status != models.OutcomeStatusWon {
			return fmt.Errorf("%w: outcome %d of event %d", ErrOutcomeNotWinning, bet.OutcomeID, bet.EventID)
		}

		if bet.PromisedPayout > 0 {
			if err := s.transferer.Transfer(ctx, bet.PromisedPayout, s.cfg.Custodian, bet.Bettor); err != nil {
				return fmt.Errorf("%w: payout %d to %s: %w", ErrTransferFailed, bet.PromisedPayout, bet.Bettor, err)
			}
			transferred = true
		}

		now := time.Now()
		bet.ClaimedAt = &now
		if err := s.repo.MarkBetClaimed(ctx, bet); err != nil {
			if isMissing(err) {
				return fmt.Errorf("%w: bet %d", ErrBetInactive, betID)
			}
			return fmt.Errorf("failed to mark bet claimed: %w", err)
		}
		bet.Status = models.BetStatusClaimed
		return nil
	})
	if err != nil {
		if transferred && !joinsTransaction(s.transferer) {
			s.compensate(ctx, bet.PromisedPayout, bet.Bettor, s.cfg.Custodian, "reverse payout")
		}
		return err
	}

	s.metrics.ObservePayout(bet.PromisedPayout)
	log.Printf("[EscrowService] Bet %d claimed by %s: paid %d", betID, caller, bet.PromisedPayout)
	return nil
}
