package models

import "time"

const (
	CounterEvents = "events"
	CounterBets   = "bets"
)

// Counter is a monotonic id sequence. Value holds the last id handed out.
type Counter struct {
	Name      string    `gorm:"primaryKey;size:50" json:"name"`
	Value     uint64    `gorm:"not null;default:0" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Counter) TableName() string {
	return "ledger_counters"
}

// FeeConfig is the singleton platform fee row. Rate is x1000 (25 = 2.5%).
type FeeConfig struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Rate      uint64    `gorm:"not null" json:"rate"`
	UpdatedBy Identity  `gorm:"size:64" json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FeeConfig) TableName() string {
	return "fee_config"
}

// SetFeeRequest represents an administrator fee update
type SetFeeRequest struct {
	Rate *uint64 `json:"rate" binding:"required"`
}
