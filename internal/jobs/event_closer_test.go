package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"event-escrow/internal/database"
	"event-escrow/internal/models"
	"event-escrow/internal/repository"
	"event-escrow/internal/services"
	"event-escrow/internal/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type atomicClock struct {
	height atomic.Uint64
}

func (c *atomicClock) CurrentHeight(ctx context.Context) (uint64, error) {
	return c.height.Load(), nil
}

func newIdentity() models.Identity {
	return models.Identity(solana.NewWallet().PublicKey().String())
}

func setupService(t *testing.T, clock services.Clock) *services.EscrowService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	admin := newIdentity()
	svc, err := services.NewEscrowService(repository.NewRepository(db), clock, wallet.NewLedger(db), services.EscrowConfig{
		Custodian: admin,
		Admin:     admin,
	})
	if err != nil {
		t.Fatalf("NewEscrowService: %v", err)
	}
	return svc
}

func TestEventCloserClosesExpiredEvents(t *testing.T) {
	clock := &atomicClock{}
	svc := setupService(t, clock)
	ctx := context.Background()
	operator, creator := newIdentity(), newIdentity()

	eventID, err := svc.CreateEvent(ctx, "Race", "f1", 5, 10, operator, creator)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	closer := NewEventCloser(svc, operator, time.Second)
	if n := closer.closeExpiredEvents(); n != 0 {
		t.Errorf("expected nothing closed before end height, got %d", n)
	}

	clock.height.Store(10)
	if n := closer.closeExpiredEvents(); n != 1 {
		t.Errorf("expected 1 event closed, got %d", n)
	}

	event, err := svc.GetEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if event.Status != models.EventStatusClosed {
		t.Errorf("expected CLOSED, got %s", event.Status)
	}

	if n := closer.closeExpiredEvents(); n != 0 {
		t.Errorf("expected closed event to be skipped, got %d", n)
	}
}

func TestEventCloserStops(t *testing.T) {
	svc := setupService(t, &atomicClock{})
	closer := NewEventCloser(svc, newIdentity(), 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		closer.Start()
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	closer.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("event closer did not stop")
	}
}
