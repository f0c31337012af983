package models

import (
	"time"
)

type EventStatus string

const (
	EventStatusActive   EventStatus = "ACTIVE"
	EventStatusClosed   EventStatus = "CLOSED"
	EventStatusResolved EventStatus = "RESOLVED"
)

// rank orders statuses along the lifecycle; transitions only move forward.
func (s EventStatus) rank() int {
	switch s {
	case EventStatusActive:
		return 1
	case EventStatusClosed:
		return 2
	case EventStatusResolved:
		return 3
	}
	return 0
}

// CanAdvanceTo reports whether next is the immediate successor of s.
func (s EventStatus) CanAdvanceTo(next EventStatus) bool {
	return s.rank() > 0 && next.rank() == s.rank()+1
}

type OutcomeStatus string

const (
	OutcomeStatusPending OutcomeStatus = "PENDING"
	OutcomeStatusWon     OutcomeStatus = "WON"
)

// Event is a schedulable occurrence with a betting window that closes at
// StartHeight. It is adjudicated by its Oracle.
type Event struct {
	ID               uint64      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name             string      `gorm:"size:255;not null" json:"name"`
	Category         string      `gorm:"size:100;not null;index" json:"category"`
	StartHeight      uint64      `gorm:"not null" json:"start_height"`
	EndHeight        uint64      `gorm:"not null;index" json:"end_height"`
	CreationHeight   uint64      `gorm:"not null" json:"creation_height"`
	Status           EventStatus `gorm:"size:20;not null;default:ACTIVE;index" json:"status"`
	Creator          Identity    `gorm:"size:64;not null;index" json:"creator"`
	Oracle           Identity    `gorm:"size:64;not null;index" json:"oracle"`
	WinningOutcomeID *uint64     `json:"winning_outcome_id,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	ClosedAt         *time.Time  `json:"closed_at,omitempty"`
	ResolvedAt       *time.Time  `json:"resolved_at,omitempty"`
}

func (Event) TableName() string {
	return "events"
}

// Outcome is one possible resolution of an event. It is keyed by
// (EventID, OutcomeID) and carries odds fixed at creation (x100).
type Outcome struct {
	EventID     uint64        `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	OutcomeID   uint64        `gorm:"primaryKey;autoIncrement:false" json:"outcome_id"`
	Description string        `gorm:"size:500;not null" json:"description"`
	Odds        uint64        `gorm:"not null" json:"odds"`
	Status      OutcomeStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Outcome) TableName() string {
	return "outcomes"
}

// CreateEventRequest represents a request to create a new event
type CreateEventRequest struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category" binding:"required"`
	StartHeight uint64 `json:"start_height" binding:"required"`
	EndHeight   uint64 `json:"end_height" binding:"required"`
	Oracle      string `json:"oracle" binding:"required"`
}

// AddOutcomeRequest represents a request to add an outcome to an event
type AddOutcomeRequest struct {
	OutcomeID   uint64 `json:"outcome_id"`
	Description string `json:"description" binding:"required"`
	Odds        uint64 `json:"odds"`
}

// ResolveEventRequest names the winning outcome of a closed event
type ResolveEventRequest struct {
	WinningOutcomeID uint64 `json:"winning_outcome_id"`
}
