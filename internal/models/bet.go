package models

import (
	"time"
)

type BetStatus string

const (
	BetStatusActive  BetStatus = "ACTIVE"
	BetStatusClaimed BetStatus = "CLAIMED"
)

// Bet is stake escrowed on one outcome. PromisedPayout is computed at
// placement and never changes afterwards.
type Bet struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	EventID         uint64     `gorm:"not null;index" json:"event_id"`
	OutcomeID       uint64     `gorm:"not null" json:"outcome_id"`
	Bettor          Identity   `gorm:"size:64;not null;index" json:"bettor"`
	Amount          uint64     `gorm:"not null" json:"amount"`
	Odds            uint64     `gorm:"not null" json:"odds"`
	FeeRate         uint64     `gorm:"not null" json:"fee_rate"`
	GrossPayout     uint64     `gorm:"not null" json:"gross_payout"`
	PromisedPayout  uint64     `gorm:"not null" json:"promised_payout"`
	Status          BetStatus  `gorm:"size:20;not null;default:ACTIVE;index" json:"status"`
	PlacementHeight uint64     `gorm:"not null" json:"placement_height"`
	CreatedAt       time.Time  `json:"created_at"`
	ClaimedAt       *time.Time `json:"claimed_at,omitempty"`
}

func (Bet) TableName() string {
	return "bets"
}

// UserBetIndexEntry is one slot of a bettor's append-only bet list.
type UserBetIndexEntry struct {
	Bettor   Identity `gorm:"primaryKey;size:64" json:"bettor"`
	Position int      `gorm:"primaryKey;autoIncrement:false" json:"position"`
	BetID    uint64   `gorm:"not null;uniqueIndex" json:"bet_id"`
}

func (UserBetIndexEntry) TableName() string {
	return "user_bet_index"
}

// PlaceBetRequest represents a request to stake on an outcome
type PlaceBetRequest struct {
	EventID   uint64 `json:"event_id" binding:"required"`
	OutcomeID uint64 `json:"outcome_id"`
	Amount    uint64 `json:"amount"`
}
