package jobs

import (
	"context"
	"log"
	"time"

	"event-escrow/internal/models"
	"event-escrow/internal/services"
)

// eventCloserBatch bounds how many events one tick closes
const eventCloserBatch = 100

// EventCloser closes active events whose end height has passed, acting as
// their oracle
type EventCloser struct {
	escrowService *services.EscrowService
	oracle        models.Identity
	interval      time.Duration
	stopChan      chan struct{}
}

// NewEventCloser creates a new event closer job
func NewEventCloser(escrowService *services.EscrowService, oracle models.Identity, interval time.Duration) *EventCloser {
	return &EventCloser{
		escrowService: escrowService,
		oracle:        oracle,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the event closing loop
func (ec *EventCloser) Start() {
	log.Printf("[EventCloser] Starting event closer job (oracle: %s, interval: %v)", ec.oracle, ec.interval)

	ticker := time.NewTicker(ec.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ec.closeExpiredEvents()
		case <-ec.stopChan:
			log.Println("[EventCloser] Stopping event closer job")
			return
		}
	}
}

// Stop stops the event closing loop
func (ec *EventCloser) Stop() {
	close(ec.stopChan)
}

func (ec *EventCloser) closeExpiredEvents() int {
	ctx, cancel := context.WithTimeout(context.Background(), ec.interval)
	defer cancel()

	closed, err := ec.escrowService.CloseExpiredEvents(ctx, ec.oracle, eventCloserBatch)
	if err != nil {
		log.Printf("[EventCloser] Error closing expired events: %v", err)
		return 0
	}

	if closed > 0 {
		log.Printf("[EventCloser] Closed %d events", closed)
	}
	return closed
}
