package blockchain

import (
	"context"
	"sync"
	"time"
)

// SlotSource reports a chain height that may, across RPC nodes, briefly step
// backwards.
type SlotSource interface {
	GetSlot(ctx context.Context) (uint64, error)
}

// SlotClock reports chain slots as ledger heights. It never returns a height
// lower than one it has already returned.
type SlotClock struct {
	source SlotSource

	mu   sync.Mutex
	last uint64
}

func NewSlotClock(source SlotSource) *SlotClock {
	return &SlotClock{source: source}
}

func (c *SlotClock) CurrentHeight(ctx context.Context) (uint64, error) {
	slot, err := c.source.GetSlot(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if slot > c.last {
		c.last = slot
	}
	return c.last, nil
}

// IntervalClock derives heights from wall time: one height per interval
// elapsed since genesis. It suits single-node deployments without a chain.
type IntervalClock struct {
	genesis  time.Time
	interval time.Duration
	now      func() time.Time
}

func NewIntervalClock(genesis time.Time, interval time.Duration) *IntervalClock {
	if interval <= 0 {
		interval = time.Second
	}
	return &IntervalClock{genesis: genesis, interval: interval, now: time.Now}
}

func (c *IntervalClock) CurrentHeight(ctx context.Context) (uint64, error) {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 {
		return 0, nil
	}
	return uint64(elapsed / c.interval), nil
}
