package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"event-escrow/internal/lock"
	"event-escrow/internal/metrics"
	"event-escrow/internal/models"
	"event-escrow/internal/repository"

	"gorm.io/gorm"
)

// DefaultBetIndexCapacity bounds how many bets one identity may place.
const DefaultBetIndexCapacity = 100

// EscrowConfig holds the roles and limits of an EscrowService.
type EscrowConfig struct {
	// Custodian holds escrowed stake and funds payouts.
	Custodian models.Identity
	// Admin is the only identity allowed to change the fee rate.
	Admin models.Identity
	// DefaultFeeRate applies until SetFee is first called.
	DefaultFeeRate uint64
	// BetIndexCapacity bounds each identity's bet index.
	BetIndexCapacity int
}

// EscrowService is the event/outcome/bet state machine. Every mutating
// operation takes the writer lock and runs in one database transaction
// together with its escrow transfer.
type EscrowService struct {
	repo       *repository.Repository
	clock      Clock
	transferer Transferer
	locker     lock.Locker
	metrics    *metrics.EscrowMetrics
	cfg        EscrowConfig
}

func NewEscrowService(
	repo *repository.Repository,
	clock Clock,
	transferer Transferer,
	cfg EscrowConfig,
) (*EscrowService, error) {
	if !cfg.Custodian.Valid() {
		return nil, fmt.Errorf("invalid custodian identity %q", cfg.Custodian)
	}
	if !cfg.Admin.Valid() {
		return nil, fmt.Errorf("invalid administrator identity %q", cfg.Admin)
	}
	if cfg.DefaultFeeRate > MaxFeeRate {
		return nil, fmt.Errorf("default fee rate %d exceeds cap %d", cfg.DefaultFeeRate, MaxFeeRate)
	}
	if cfg.BetIndexCapacity <= 0 {
		cfg.BetIndexCapacity = DefaultBetIndexCapacity
	}

	return &EscrowService{
		repo:       repo,
		clock:      clock,
		transferer: transferer,
		locker:     lock.NewLocal(),
		cfg:        cfg,
	}, nil
}

// SetLocker replaces the in-process writer lock, e.g. with a Redis lock
// shared by several replicas.
func (s *EscrowService) SetLocker(l lock.Locker) {
	s.locker = l
}

// SetMetrics attaches a metrics recorder.
func (s *EscrowService) SetMetrics(m *metrics.EscrowMetrics) {
	s.metrics = m
}

// Custodian returns the identity holding escrowed funds.
func (s *EscrowService) Custodian() models.Identity {
	return s.cfg.Custodian
}

// mutate runs fn as one atomic ledger operation: under the writer lock and
// inside a single transaction.
func (s *EscrowService) mutate(ctx context.Context, operation string, fn func(ctx context.Context) error) (err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveOperation(operation, ErrorKind(err), time.Since(started).Seconds())
	}()

	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire writer lock: %w", err)
	}
	defer unlock()

	return s.repo.Transaction(ctx, fn)
}

func (s *EscrowService) currentHeight(ctx context.Context) (uint64, error) {
	height, err := s.clock.CurrentHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read current height: %w", err)
	}
	return height, nil
}

// notFound maps a missing record to ErrNotFound and wraps anything else.
func notFound(err error, format string, args ...interface{}) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// GetEvent retrieves an event by ID
func (s *EscrowService) GetEvent(ctx context.Context, eventID uint64) (*models.Event, error) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "event %d", eventID)
	}
	return event, nil
}

// GetOutcome retrieves an outcome by its composite key
func (s *EscrowService) GetOutcome(ctx context.Context, eventID, outcomeID uint64) (*models.Outcome, error) {
	outcome, err := s.repo.GetOutcome(ctx, eventID, outcomeID)
	if err != nil {
		return nil, notFound(err, "outcome %d of event %d", outcomeID, eventID)
	}
	return outcome, nil
}

// ListEventOutcomes retrieves every outcome of an existing event
func (s *EscrowService) ListEventOutcomes(ctx context.Context, eventID uint64) ([]*models.Outcome, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.GetEventOutcomes(ctx, eventID)
}

// ListEvents retrieves events newest first, optionally filtered by status
func (s *EscrowService) ListEvents(
	ctx context.Context,
	status models.EventStatus,
	limit, offset int,
) ([]*models.Event, int64, error) {
	switch status {
	case "", models.EventStatusActive, models.EventStatusClosed, models.EventStatusResolved:
	default:
		return nil, 0, fmt.Errorf("%w: unknown event status %q", ErrInvalidInput, status)
	}
	return s.repo.ListEvents(ctx, status, limit, offset)
}

// GetBet retrieves a bet by ID
func (s *EscrowService) GetBet(ctx context.Context, betID uint64) (*models.Bet, error) {
	bet, err := s.repo.GetBetByID(ctx, betID)
	if err != nil {
		return nil, notFound(err, "bet %d", betID)
	}
	return bet, nil
}

// GetUserBets returns the ids of a bettor's bets in placement order
func (s *EscrowService) GetUserBets(ctx context.Context, bettor models.Identity) ([]uint64, error) {
	ids, err := s.repo.GetUserBetIDs(ctx, bettor)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets of %s: %w", bettor, err)
	}
	return ids, nil
}

// GetUserBetRecords returns a bettor's full bet records in placement order
func (s *EscrowService) GetUserBetRecords(ctx context.Context, bettor models.Identity) ([]*models.Bet, error) {
	bets, err := s.repo.GetUserBets(ctx, bettor)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets of %s: %w", bettor, err)
	}
	return bets, nil
}

// CloseExpiredEvents closes, acting as oracle, every active event it
// adjudicates whose end height has been reached. It returns the number of
// events closed.
func (s *EscrowService) CloseExpiredEvents(ctx context.Context, oracle models.Identity, limit int) (int, error) {
	height, err := s.currentHeight(ctx)
	if err != nil {
		return 0, err
	}

	events, err := s.repo.GetExpiredActiveEvents(ctx, oracle, height, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get expired events: %w", err)
	}

	closed := 0
	for _, event := range events {
		if err := s.CloseEvent(ctx, event.ID, oracle); err != nil {
			log.Printf("[EscrowService] Failed to close expired event %d: %v", event.ID, err)
			continue
		}
		closed++
	}
	return closed, nil
}
