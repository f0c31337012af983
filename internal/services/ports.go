package services

import (
	"context"

	"event-escrow/internal/models"
)

// Clock reports the current height. Heights never decrease.
type Clock interface {
	CurrentHeight(ctx context.Context) (uint64, error)
}

// Transferer moves value between accounts. A transfer either completes or
// fails as a whole; the ledger never retries it.
type Transferer interface {
	Transfer(ctx context.Context, amount uint64, from, to models.Identity) error
}

// TransactionalTransferer is a Transferer whose movements join the database
// transaction carried by ctx and roll back with it.
type TransactionalTransferer interface {
	Transferer
	JoinsTransaction() bool
}

func joinsTransaction(t Transferer) bool {
	tt, ok := t.(TransactionalTransferer)
	return ok && tt.JoinsTransaction()
}
