package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a custodial balance held by the escrow platform.
type Account struct {
	Address   Identity  `gorm:"primaryKey;size:64" json:"address"`
	Balance   uint64    `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

type EscrowTransactionType string

const (
	EscrowTransactionTypeTransfer EscrowTransactionType = "TRANSFER"
	EscrowTransactionTypeCredit   EscrowTransactionType = "CREDIT"
)

// EscrowTransaction journals one value movement between accounts. From is
// empty for administrator credits.
type EscrowTransaction struct {
	ID              uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionType EscrowTransactionType `gorm:"size:20;not null" json:"transaction_type"`
	FromAddress     Identity              `gorm:"size:64;index" json:"from_address,omitempty"`
	ToAddress       Identity              `gorm:"size:64;not null;index" json:"to_address"`
	Amount          uint64                `gorm:"not null" json:"amount"`
	CreatedAt       time.Time             `json:"created_at"`
}

func (EscrowTransaction) TableName() string {
	return "escrow_transactions"
}

// CreditAccountRequest represents an administrator deposit into an account
type CreditAccountRequest struct {
	Address string `json:"address" binding:"required"`
	Amount  uint64 `json:"amount" binding:"required,gt=0"`
}
