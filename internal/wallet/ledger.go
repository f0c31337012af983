// Package wallet keeps custodial account balances and moves value between
// them. It is the value-transfer backend of the escrow ledger.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-escrow/internal/database"
	"event-escrow/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrSameAccount       = errors.New("source and destination are the same account")
)

// Ledger stores balances in the accounts table. Transfers made with a context
// that carries a database transaction join it and roll back with it.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// JoinsTransaction reports that transfers share the caller's transaction.
func (l *Ledger) JoinsTransaction() bool {
	return true
}

// run executes fn in the caller's transaction or, without one, in its own.
func (l *Ledger) run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if database.InTx(ctx) {
		return fn(database.TxFromContext(ctx, l.db))
	}
	return l.db.WithContext(ctx).Transaction(fn)
}

// Transfer debits from and credits to. It fails without effect if from holds
// less than amount.
func (l *Ledger) Transfer(ctx context.Context, amount uint64, from, to models.Identity) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrSameAccount
	}

	return l.run(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&models.Account{}).
			Where("address = ? AND balance >= ?", from, amount).
			Updates(map[string]interface{}{
				"balance":    gorm.Expr("balance - ?", amount),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to debit %s: %w", from, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s cannot cover %d", ErrInsufficientFunds, from, amount)
		}

		if err := credit(tx, to, amount); err != nil {
			return err
		}

		return tx.Create(&models.EscrowTransaction{
			ID:              uuid.New(),
			TransactionType: models.EscrowTransactionTypeTransfer,
			FromAddress:     from,
			ToAddress:       to,
			Amount:          amount,
		}).Error
	})
}

// Credit adds amount to an account, creating it if needed.
func (l *Ledger) Credit(ctx context.Context, to models.Identity, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	return l.run(ctx, func(tx *gorm.DB) error {
		if err := credit(tx, to, amount); err != nil {
			return err
		}
		return tx.Create(&models.EscrowTransaction{
			ID:              uuid.New(),
			TransactionType: models.EscrowTransactionTypeCredit,
			ToAddress:       to,
			Amount:          amount,
		}).Error
	})
}

func credit(tx *gorm.DB, to models.Identity, amount uint64) error {
	account := models.Account{Address: to, Balance: amount}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("accounts.balance + ?", amount),
			"updated_at": time.Now(),
		}),
	}).Create(&account).Error
	if err != nil {
		return fmt.Errorf("failed to credit %s: %w", to, err)
	}
	return nil
}

// Balance returns an account's balance; unknown accounts hold zero.
func (l *Ledger) Balance(ctx context.Context, address models.Identity) (uint64, error) {
	var account models.Account
	err := database.TxFromContext(ctx, l.db).Where("address = ?", address).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// History returns the most recent movements touching an account.
func (l *Ledger) History(ctx context.Context, address models.Identity, limit int) ([]*models.EscrowTransaction, error) {
	var txs []*models.EscrowTransaction
	err := database.TxFromContext(ctx, l.db).
		Where("from_address = ? OR to_address = ?", address, address).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}
