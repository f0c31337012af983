package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"event-escrow/internal/database"
	"event-escrow/internal/models"
	"event-escrow/internal/repository"
	"event-escrow/internal/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testStartHeight = 100
	testEndHeight   = 200
	bankroll        = 100000
)

type fakeClock struct {
	mu     sync.Mutex
	height uint64
}

func (c *fakeClock) CurrentHeight(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height, nil
}

func (c *fakeClock) set(height uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = height
}

// memTransferer keeps balances outside the database, like an external
// value store.
type memTransferer struct {
	mu       sync.Mutex
	balances map[models.Identity]uint64
	err      error
}

func newMemTransferer() *memTransferer {
	return &memTransferer{balances: make(map[models.Identity]uint64)}
}

func (m *memTransferer) Transfer(ctx context.Context, amount uint64, from, to models.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.balances[from] < amount {
		return wallet.ErrInsufficientFunds
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

func (m *memTransferer) balance(id models.Identity) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[id]
}

type testEnv struct {
	db        *gorm.DB
	repo      *repository.Repository
	ledger    *wallet.Ledger
	clock     *fakeClock
	svc       *EscrowService
	admin     models.Identity
	custodian models.Identity
	creator   models.Identity
	oracle    models.Identity
	bettor    models.Identity
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newIdentity() models.Identity {
	return models.Identity(solana.NewWallet().PublicKey().String())
}

// newTestEnv builds a service over an in-memory database. A nil transferer
// selects the database-backed custody ledger.
func newTestEnv(t *testing.T, transferer Transferer, capacity int) *testEnv {
	db := setupTestDB(t)
	env := &testEnv{
		db:        db,
		repo:      repository.NewRepository(db),
		ledger:    wallet.NewLedger(db),
		clock:     &fakeClock{height: 10},
		admin:     newIdentity(),
		custodian: newIdentity(),
		creator:   newIdentity(),
		oracle:    newIdentity(),
		bettor:    newIdentity(),
	}
	if transferer == nil {
		transferer = env.ledger
	}

	svc, err := NewEscrowService(env.repo, env.clock, transferer, EscrowConfig{
		Custodian:        env.custodian,
		Admin:            env.admin,
		DefaultFeeRate:   DefaultFeeRate,
		BetIndexCapacity: capacity,
	})
	if err != nil {
		t.Fatalf("NewEscrowService: %v", err)
	}
	env.svc = svc

	ctx := context.Background()
	if err := env.ledger.Credit(ctx, env.custodian, bankroll); err != nil {
		t.Fatalf("fund custodian: %v", err)
	}
	if err := env.ledger.Credit(ctx, env.bettor, 10000); err != nil {
		t.Fatalf("fund bettor: %v", err)
	}
	return env
}

// openEvent creates an event with outcome 1 at 2.50x and outcome 2 at 1.80x.
func (e *testEnv) openEvent(t *testing.T) uint64 {
	ctx := context.Background()
	eventID, err := e.svc.CreateEvent(ctx, "Final", "football", testStartHeight, testEndHeight, e.oracle, e.creator)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := e.svc.AddOutcome(ctx, eventID, 1, "Home wins", 250, e.creator); err != nil {
		t.Fatalf("AddOutcome 1: %v", err)
	}
	if err := e.svc.AddOutcome(ctx, eventID, 2, "Away wins", 180, e.creator); err != nil {
		t.Fatalf("AddOutcome 2: %v", err)
	}
	return eventID
}

func (e *testEnv) settle(t *testing.T, eventID, winner uint64) {
	ctx := context.Background()
	if err := e.svc.CloseEvent(ctx, eventID, e.creator); err != nil {
		t.Fatalf("CloseEvent: %v", err)
	}
	if err := e.svc.ResolveEvent(ctx, eventID, winner, e.oracle); err != nil {
		t.Fatalf("ResolveEvent: %v", err)
	}
}

func (e *testEnv) balance(t *testing.T, id models.Identity) uint64 {
	b, err := e.ledger.Balance(context.Background(), id)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	return b
}

func TestNewEscrowServiceValidatesConfig(t *testing.T) {
	repo := repository.NewRepository(setupTestDB(t))
	clock := &fakeClock{}
	good := newIdentity()

	cases := []struct {
		name string
		cfg  EscrowConfig
	}{
		{"bad custodian", EscrowConfig{Custodian: "nope", Admin: good}},
		{"bad admin", EscrowConfig{Custodian: good, Admin: ""}},
		{"fee above cap", EscrowConfig{Custodian: good, Admin: good, DefaultFeeRate: MaxFeeRate + 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewEscrowService(repo, clock, newMemTransferer(), tc.cfg); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}

func TestFullBetLifecycle(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	if eventID != 1 {
		t.Errorf("expected first event id 1, got %d", eventID)
	}

	betID, err := env.svc.PlaceBet(ctx, eventID, 1, 1000, env.bettor)
	if err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	if betID != 1 {
		t.Errorf("expected first bet id 1, got %d", betID)
	}

	bet, err := env.svc.GetBet(ctx, betID)
	if err != nil {
		t.Fatalf("GetBet: %v", err)
	}
	if bet.GrossPayout != 2500 || bet.PromisedPayout != 2438 {
		t.Errorf("expected gross 2500 and net 2438, got %d and %d", bet.GrossPayout, bet.PromisedPayout)
	}
	if bet.Status != models.BetStatusActive || bet.PlacementHeight != 10 {
		t.Errorf("unexpected bet state %+v", bet)
	}
	if got := env.balance(t, env.bettor); got != 9000 {
		t.Errorf("expected bettor balance 9000 after staking, got %d", got)
	}
	if got := env.balance(t, env.custodian); got != bankroll+1000 {
		t.Errorf("expected custodian balance %d, got %d", bankroll+1000, got)
	}

	env.clock.set(testEndHeight)
	env.settle(t, eventID, 1)

	if err := env.svc.ClaimWinnings(ctx, betID, env.bettor); err != nil {
		t.Fatalf("ClaimWinnings: %v", err)
	}
	if got := env.balance(t, env.bettor); got != 9000+2438 {
		t.Errorf("expected bettor balance %d, got %d", 9000+2438, got)
	}
	if got := env.balance(t, env.custodian); got != bankroll+1000-2438 {
		t.Errorf("expected custodian balance %d, got %d", bankroll+1000-2438, got)
	}

	bet, _ = env.svc.GetBet(ctx, betID)
	if bet.Status != models.BetStatusClaimed || bet.ClaimedAt == nil {
		t.Errorf("expected claimed bet, got %+v", bet)
	}

	outcome, _ := env.svc.GetOutcome(ctx, eventID, 1)
	if outcome.Status != models.OutcomeStatusWon {
		t.Errorf("expected winning outcome WON, got %s", outcome.Status)
	}
	event, _ := env.svc.GetEvent(ctx, eventID)
	if event.Status != models.EventStatusResolved || event.WinningOutcomeID == nil || *event.WinningOutcomeID != 1 {
		t.Errorf("unexpected resolved event %+v", event)
	}

	err = env.svc.ClaimWinnings(ctx, betID, env.bettor)
	if !errors.Is(err, ErrBetInactive) {
		t.Errorf("expected ErrBetInactive on second claim, got %v", err)
	}
	if got := env.balance(t, env.bettor); got != 9000+2438 {
		t.Errorf("second claim moved funds: bettor balance %d", got)
	}
}

func TestCreateEventValidation(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()

	cases := []struct {
		name       string
		evName     string
		category   string
		start, end uint64
		oracle     models.Identity
	}{
		{"empty name", " ", "football", 100, 200, env.oracle},
		{"empty category", "Final", "", 100, 200, env.oracle},
		{"start in the past", "Final", "football", 10, 200, env.oracle},
		{"end before start", "Final", "football", 100, 100, env.oracle},
		{"bad oracle", "Final", "football", 100, 200, "oracle"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.CreateEvent(ctx, tc.evName, tc.category, tc.start, tc.end, tc.oracle, env.creator)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if id, _ := env.repo.CurrentID(ctx, models.CounterEvents); id != 0 {
		t.Errorf("rejected events advanced the counter to %d", id)
	}
}

func TestEventIDsAreSequential(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()

	for want := uint64(1); want <= 3; want++ {
		id, err := env.svc.CreateEvent(ctx, "Match", "tennis", 50, 60, env.oracle, env.creator)
		if err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
		if id != want {
			t.Errorf("expected event id %d, got %d", want, id)
		}
	}
}

func TestAddOutcomeErrors(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	err := env.svc.AddOutcome(ctx, 999, 1, "Nobody", 200, env.creator)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing event, got %v", err)
	}
	if _, err := env.svc.GetOutcome(ctx, 999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("outcome of missing event was stored: %v", err)
	}

	err = env.svc.AddOutcome(ctx, eventID, 3, "Draw", 300, env.oracle)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for non-creator, got %v", err)
	}

	err = env.svc.AddOutcome(ctx, eventID, 3, "Draw", 99, env.creator)
	if !errors.Is(err, ErrInvalidOdds) {
		t.Errorf("expected ErrInvalidOdds, got %v", err)
	}

	err = env.svc.AddOutcome(ctx, eventID, 3, "  ", 300, env.creator)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty description, got %v", err)
	}

	err = env.svc.AddOutcome(ctx, eventID, 1, "Home wins again", 900, env.creator)
	if !errors.Is(err, ErrOutcomeExists) {
		t.Errorf("expected ErrOutcomeExists, got %v", err)
	}
	outcome, _ := env.svc.GetOutcome(ctx, eventID, 1)
	if outcome.Odds != 250 {
		t.Errorf("duplicate outcome overwrote odds: %d", outcome.Odds)
	}

	outcomes, err := env.svc.ListEventOutcomes(ctx, eventID)
	if err != nil {
		t.Fatalf("ListEventOutcomes: %v", err)
	}
	if len(outcomes) != 2 || outcomes[0].OutcomeID != 1 || outcomes[1].OutcomeID != 2 {
		t.Errorf("unexpected outcomes %+v", outcomes)
	}
}

func TestBettingWindow(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	env.clock.set(testStartHeight - 1)
	if _, err := env.svc.PlaceBet(ctx, eventID, 2, 100, env.bettor); err != nil {
		t.Fatalf("PlaceBet before start: %v", err)
	}

	env.clock.set(testStartHeight)
	_, err := env.svc.PlaceBet(ctx, eventID, 2, 100, env.bettor)
	if !errors.Is(err, ErrEventClosed) {
		t.Errorf("expected ErrEventClosed at start height, got %v", err)
	}

	if got := env.balance(t, env.bettor); got != 9900 {
		t.Errorf("expected one stake escrowed, bettor balance %d", got)
	}
}

func TestPlaceBetOnClosedEvent(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	if err := env.svc.CloseEvent(ctx, eventID, env.oracle); err != nil {
		t.Fatalf("CloseEvent: %v", err)
	}

	_, err := env.svc.PlaceBet(ctx, eventID, 1, 100, env.bettor)
	if !errors.Is(err, ErrEventClosed) {
		t.Errorf("expected ErrEventClosed, got %v", err)
	}
}

func TestPlaceBetValidation(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	if _, err := env.svc.PlaceBet(ctx, eventID, 1, 0, env.bettor); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero amount, got %v", err)
	}
	if _, err := env.svc.PlaceBet(ctx, 42, 1, 10, env.bettor); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing event, got %v", err)
	}
	if _, err := env.svc.PlaceBet(ctx, eventID, 9, 10, env.bettor); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing outcome, got %v", err)
	}
}

func TestPlaceBetInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	_, err := env.svc.PlaceBet(ctx, eventID, 1, 10001, env.bettor)
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if !errors.Is(err, wallet.ErrInsufficientFunds) {
		t.Errorf("expected underlying ErrInsufficientFunds, got %v", err)
	}

	if id, _ := env.repo.CurrentID(ctx, models.CounterBets); id != 0 {
		t.Errorf("failed bet advanced the counter to %d", id)
	}
	if ids, _ := env.svc.GetUserBets(ctx, env.bettor); len(ids) != 0 {
		t.Errorf("failed bet was indexed: %v", ids)
	}
	if got := env.balance(t, env.bettor); got != 10000 {
		t.Errorf("expected bettor balance unchanged, got %d", got)
	}
}

func TestPlaceBetTransferFailureWritesNothing(t *testing.T) {
	transferer := newMemTransferer()
	boom := errors.New("value store unavailable")
	transferer.err = boom
	env := newTestEnv(t, transferer, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	_, err := env.svc.PlaceBet(ctx, eventID, 1, 100, env.bettor)
	if !errors.Is(err, ErrTransferFailed) || !errors.Is(err, boom) {
		t.Fatalf("expected ErrTransferFailed wrapping the store error, got %v", err)
	}

	var count int64
	env.db.Model(&models.Bet{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no bets, found %d", count)
	}
	if id, _ := env.repo.CurrentID(ctx, models.CounterBets); id != 0 {
		t.Errorf("failed bet advanced the counter to %d", id)
	}
}

func TestPlaceBetRefundsStakeWhenWriteFails(t *testing.T) {
	transferer := newMemTransferer()
	env := newTestEnv(t, transferer, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)
	transferer.balances[env.bettor] = 500

	// Occupy the id the next bet will be given.
	if err := env.db.Create(&models.Bet{ID: 1, EventID: eventID, OutcomeID: 1, Bettor: env.oracle}).Error; err != nil {
		t.Fatalf("seed bet: %v", err)
	}

	if _, err := env.svc.PlaceBet(ctx, eventID, 1, 200, env.bettor); err == nil {
		t.Fatal("expected bet creation to fail")
	}

	if got := transferer.balance(env.bettor); got != 500 {
		t.Errorf("expected stake refunded to 500, got %d", got)
	}
	if got := transferer.balance(env.custodian); got != 0 {
		t.Errorf("expected custodian to hold nothing, got %d", got)
	}
}

func TestBetIndexCapacity(t *testing.T) {
	env := newTestEnv(t, nil, 2)
	ctx := context.Background()
	eventID := env.openEvent(t)

	first, _ := env.svc.PlaceBet(ctx, eventID, 1, 10, env.bettor)
	second, _ := env.svc.PlaceBet(ctx, eventID, 2, 20, env.bettor)

	_, err := env.svc.PlaceBet(ctx, eventID, 1, 30, env.bettor)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if got := env.balance(t, env.bettor); got != 10000-30 {
		t.Errorf("rejected bet moved funds: balance %d", got)
	}

	ids, err := env.svc.GetUserBets(ctx, env.bettor)
	if err != nil {
		t.Fatalf("GetUserBets: %v", err)
	}
	if len(ids) != 2 || ids[0] != first || ids[1] != second {
		t.Errorf("expected bets [%d %d] in placement order, got %v", first, second, ids)
	}

	bets, err := env.svc.GetUserBetRecords(ctx, env.bettor)
	if err != nil {
		t.Fatalf("GetUserBetRecords: %v", err)
	}
	if len(bets) != 2 || bets[0].Amount != 10 || bets[1].Amount != 20 {
		t.Errorf("unexpected bet records %+v", bets)
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	err := env.svc.ResolveEvent(ctx, eventID, 1, env.oracle)
	if !errors.Is(err, ErrEventNotClosed) {
		t.Errorf("expected ErrEventNotClosed resolving an active event, got %v", err)
	}

	if err := env.svc.CloseEvent(ctx, eventID, env.creator); err != nil {
		t.Fatalf("CloseEvent: %v", err)
	}
	if err := env.svc.CloseEvent(ctx, eventID, env.creator); !errors.Is(err, ErrEventClosed) {
		t.Errorf("expected ErrEventClosed closing twice, got %v", err)
	}

	if err := env.svc.ResolveEvent(ctx, eventID, 1, env.oracle); err != nil {
		t.Fatalf("ResolveEvent: %v", err)
	}
	if err := env.svc.ResolveEvent(ctx, eventID, 2, env.oracle); !errors.Is(err, ErrEventNotClosed) {
		t.Errorf("expected ErrEventNotClosed resolving twice, got %v", err)
	}
	if err := env.svc.CloseEvent(ctx, eventID, env.oracle); !errors.Is(err, ErrEventClosed) {
		t.Errorf("expected ErrEventClosed closing a resolved event, got %v", err)
	}

	event, _ := env.svc.GetEvent(ctx, eventID)
	if event.Status != models.EventStatusResolved || *event.WinningOutcomeID != 1 {
		t.Errorf("resolved event changed: %+v", event)
	}
	loser, _ := env.svc.GetOutcome(ctx, eventID, 2)
	if loser.Status != models.OutcomeStatusPending {
		t.Errorf("expected losing outcome to stay PENDING, got %s", loser.Status)
	}
}

func TestOnlyAuthorizedCallers(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)
	stranger := newIdentity()

	if err := env.svc.CloseEvent(ctx, eventID, stranger); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized closing as stranger, got %v", err)
	}
	if err := env.svc.CloseEvent(ctx, 77, env.creator); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound closing missing event, got %v", err)
	}

	if err := env.svc.CloseEvent(ctx, eventID, env.creator); err != nil {
		t.Fatalf("CloseEvent: %v", err)
	}
	if err := env.svc.ResolveEvent(ctx, eventID, 1, env.creator); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized resolving as creator, got %v", err)
	}
	if err := env.svc.ResolveEvent(ctx, eventID, 5, env.oracle); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing outcome, got %v", err)
	}

	event, _ := env.svc.GetEvent(ctx, eventID)
	if event.Status != models.EventStatusClosed {
		t.Errorf("rejected resolution changed status to %s", event.Status)
	}
}

func TestClaimErrors(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	winning, _ := env.svc.PlaceBet(ctx, eventID, 1, 100, env.bettor)
	losing, _ := env.svc.PlaceBet(ctx, eventID, 2, 100, env.bettor)

	if err := env.svc.ClaimWinnings(ctx, winning, env.bettor); !errors.Is(err, ErrEventNotResolved) {
		t.Errorf("expected ErrEventNotResolved, got %v", err)
	}
	if err := env.svc.ClaimWinnings(ctx, 404, env.bettor); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	env.settle(t, eventID, 1)

	if err := env.svc.ClaimWinnings(ctx, winning, env.oracle); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized claiming another's bet, got %v", err)
	}
	if err := env.svc.ClaimWinnings(ctx, losing, env.bettor); !errors.Is(err, ErrOutcomeNotWinning) {
		t.Errorf("expected ErrOutcomeNotWinning, got %v", err)
	}

	bet, _ := env.svc.GetBet(ctx, losing)
	if bet.Status != models.BetStatusActive {
		t.Errorf("losing bet changed status to %s", bet.Status)
	}
}

func TestClaimFailsWhenCustodianCannotPay(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	betID, err := env.svc.PlaceBet(ctx, eventID, 1, 10000, env.bettor)
	if err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	env.settle(t, eventID, 1)

	// Drain the custodian below the promised payout.
	drain := env.balance(t, env.custodian) - 100
	if err := env.ledger.Transfer(ctx, drain, env.custodian, env.admin); err != nil {
		t.Fatalf("drain custodian: %v", err)
	}

	err = env.svc.ClaimWinnings(ctx, betID, env.bettor)
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	bet, _ := env.svc.GetBet(ctx, betID)
	if bet.Status != models.BetStatusActive {
		t.Errorf("unpaid bet was marked %s", bet.Status)
	}
}

func TestFeeController(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()

	rate, err := env.svc.Fee(ctx)
	if err != nil || rate != DefaultFeeRate {
		t.Fatalf("expected default fee %d, got %d (%v)", DefaultFeeRate, rate, err)
	}

	if err := env.svc.SetFee(ctx, 150, env.admin); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput above the cap, got %v", err)
	}
	if err := env.svc.SetFee(ctx, 50, env.creator); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for non-admin, got %v", err)
	}
	if rate, _ := env.svc.Fee(ctx); rate != DefaultFeeRate {
		t.Errorf("rejected updates changed the fee to %d", rate)
	}

	if err := env.svc.SetFee(ctx, MaxFeeRate, env.admin); err != nil {
		t.Fatalf("SetFee: %v", err)
	}
	if rate, _ := env.svc.Fee(ctx); rate != MaxFeeRate {
		t.Errorf("expected fee %d, got %d", MaxFeeRate, rate)
	}
	if err := env.svc.SetFee(ctx, 0, env.admin); err != nil {
		t.Fatalf("SetFee(0): %v", err)
	}
	if rate, _ := env.svc.Fee(ctx); rate != 0 {
		t.Errorf("expected fee 0, got %d", rate)
	}
}

func TestFeeChangeKeepsPromisedPayout(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	betID, _ := env.svc.PlaceBet(ctx, eventID, 1, 1000, env.bettor)
	if err := env.svc.SetFee(ctx, MaxFeeRate, env.admin); err != nil {
		t.Fatalf("SetFee: %v", err)
	}
	env.settle(t, eventID, 1)

	if err := env.svc.ClaimWinnings(ctx, betID, env.bettor); err != nil {
		t.Fatalf("ClaimWinnings: %v", err)
	}
	if got := env.balance(t, env.bettor); got != 9000+2438 {
		t.Errorf("expected payout fixed at placement (2438), bettor balance %d", got)
	}
}

func TestListEvents(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	first := env.openEvent(t)
	second := env.openEvent(t)
	if err := env.svc.CloseEvent(ctx, first, env.creator); err != nil {
		t.Fatalf("CloseEvent: %v", err)
	}

	all, total, err := env.svc.ListEvents(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if total != 2 || len(all) != 2 || all[0].ID != second {
		t.Errorf("expected newest first out of 2, got total %d %+v", total, all)
	}

	closed, total, _ := env.svc.ListEvents(ctx, models.EventStatusClosed, 10, 0)
	if total != 1 || len(closed) != 1 || closed[0].ID != first {
		t.Errorf("expected only event %d closed, got %+v", first, closed)
	}

	if _, _, err := env.svc.ListEvents(ctx, "PAUSED", 10, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestCloseExpiredEvents(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	expired := env.openEvent(t)
	later, err := env.svc.CreateEvent(ctx, "Later", "football", 300, 400, env.oracle, env.creator)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	foreign, err := env.svc.CreateEvent(ctx, "Other", "football", 100, 200, newIdentity(), env.creator)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	env.clock.set(testEndHeight)
	closed, err := env.svc.CloseExpiredEvents(ctx, env.oracle, 10)
	if err != nil {
		t.Fatalf("CloseExpiredEvents: %v", err)
	}
	if closed != 1 {
		t.Errorf("expected 1 event closed, got %d", closed)
	}

	for id, want := range map[uint64]models.EventStatus{
		expired: models.EventStatusClosed,
		later:   models.EventStatusActive,
		foreign: models.EventStatusActive,
	} {
		event, _ := env.svc.GetEvent(ctx, id)
		if event.Status != want {
			t.Errorf("event %d: expected %s, got %s", id, want, event.Status)
		}
	}
}

func TestConcurrentBetsGetDistinctIDs(t *testing.T) {
	env := newTestEnv(t, nil, 0)
	ctx := context.Background()
	eventID := env.openEvent(t)

	const n = 10
	var wg sync.WaitGroup
	ids := make(chan uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := env.svc.PlaceBet(ctx, eventID, 1, 10, env.bettor)
			if err != nil {
				t.Errorf("PlaceBet: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("bet id %d handed out twice", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d bets, got %d", n, len(seen))
	}
	if got := env.balance(t, env.bettor); got != 10000-n*10 {
		t.Errorf("expected bettor balance %d, got %d", 10000-n*10, got)
	}
}
