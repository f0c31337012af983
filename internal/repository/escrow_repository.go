package repository

import (
	"context"
	"errors"
	"fmt"

	"event-escrow/internal/database"
	"event-escrow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const feeConfigID = 1

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// conn returns the transaction carried by ctx, or the base handle.
func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return database.TxFromContext(ctx, r.db)
}

// Transaction runs fn inside a single database transaction. The context passed
// to fn carries the transaction, so every repository call and every
// collaborator that reads it joins the same unit of work.
func (r *Repository) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if database.InTx(ctx) {
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(database.WithTx(ctx, tx))
	})
}

// NextID increments the named counter and returns the new value. The first id
// handed out is 1.
func (r *Repository) NextID(ctx context.Context, name string) (uint64, error) {
	db := r.conn(ctx)

	var counter models.Counter
	err := db.Where("name = ?", name).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = models.Counter{Name: name, Value: 1}
		if err := db.Create(&counter).Error; err != nil {
			return 0, err
		}
		return counter.Value, nil
	}
	if err != nil {
		return 0, err
	}

	next := counter.Value + 1
	result := db.Model(&models.Counter{}).
		Where("name = ? AND value = ?", name, counter.Value).
		Update("value", next)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("counter %s advanced concurrently", name)
	}
	return next, nil
}

// CurrentID returns the last id handed out by the named counter.
func (r *Repository) CurrentID(ctx context.Context, name string) (uint64, error) {
	var counter models.Counter
	err := r.conn(ctx).Where("name = ?", name).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// CreateEvent creates a new event
func (r *Repository) CreateEvent(ctx context.Context, event *models.Event) error {
	return r.conn(ctx).Create(event).Error
}

// GetEventByID retrieves an event by ID
func (r *Repository) GetEventByID(ctx context.Context, eventID uint64) (*models.Event, error) {
	var event models.Event
	err := r.conn(ctx).Where("id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEventStatus moves an event from one status to the next. It fails with
// gorm.ErrRecordNotFound if the event is no longer in the expected status.
func (r *Repository) UpdateEventStatus(
	ctx context.Context,
	eventID uint64,
	from models.EventStatus,
	updates map[string]interface{},
) error {
	result := r.conn(ctx).
		Model(&models.Event{}).
		Where("id = ? AND status = ?", eventID, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListEvents retrieves events, newest first, optionally filtered by status
func (r *Repository) ListEvents(
	ctx context.Context,
	status models.EventStatus,
	limit int,
	offset int,
) ([]*models.Event, int64, error) {
	byStatus := func(db *gorm.DB) *gorm.DB {
		if status != "" {
			return db.Where("status = ?", status)
		}
		return db
	}

	var total int64
	err := r.conn(ctx).Model(&models.Event{}).
		Scopes(byStatus).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var events []*models.Event
	err = r.conn(ctx).
		Scopes(byStatus).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// GetExpiredActiveEvents retrieves active events adjudicated by oracle whose
// end height has been reached
func (r *Repository) GetExpiredActiveEvents(
	ctx context.Context,
	oracle models.Identity,
	height uint64,
	limit int,
) ([]*models.Event, error) {
	var events []*models.Event
	err := r.conn(ctx).
		Where("status = ? AND oracle = ? AND end_height <= ?", models.EventStatusActive, oracle, height).
		Order("end_height ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// CreateOutcome creates a new outcome
func (r *Repository) CreateOutcome(ctx context.Context, outcome *models.Outcome) error {
	return r.conn(ctx).Create(outcome).Error
}

// GetOutcome retrieves an outcome by its composite key
func (r *Repository) GetOutcome(ctx context.Context, eventID, outcomeID uint64) (*models.Outcome, error) {
	var outcome models.Outcome
	err := r.conn(ctx).
		Where("event_id = ? AND outcome_id = ?", eventID, outcomeID).
		First(&outcome).Error
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// GetEventOutcomes retrieves all outcomes of an event
func (r *Repository) GetEventOutcomes(ctx context.Context, eventID uint64) ([]*models.Outcome, error) {
	var outcomes []*models.Outcome
	err := r.conn(ctx).
		Where("event_id = ?", eventID).
		Order("outcome_id ASC").
		Find(&outcomes).Error
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// MarkOutcomeWon sets an outcome's status to WON
func (r *Repository) MarkOutcomeWon(ctx context.Context, eventID, outcomeID uint64) error {
	result := r.conn(ctx).
		Model(&models.Outcome{}).
		Where("event_id = ? AND outcome_id = ?", eventID, outcomeID).
		Update("status", models.OutcomeStatusWon)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateBet creates a new bet
func (r *Repository) CreateBet(ctx context.Context, bet *models.Bet) error {
	return r.conn(ctx).Create(bet).Error
}

// GetBetByID retrieves a bet by ID
func (r *Repository) GetBetByID(ctx context.Context, betID uint64) (*models.Bet, error) {
	var bet models.Bet
	err := r.conn(ctx).Where("id = ?", betID).First(&bet).Error
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

// MarkBetClaimed moves an active bet to CLAIMED. It fails with
// gorm.ErrRecordNotFound if the bet is not active.
func (r *Repository) MarkBetClaimed(ctx context.Context, bet *models.Bet) error {
	result := r.conn(ctx).
		Model(&models.Bet{}).
		Where("id = ? AND status = ?", bet.ID, models.BetStatusActive).
		Updates(map[string]interface{}{
			"status":     models.BetStatusClaimed,
			"claimed_at": bet.ClaimedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountUserBets counts entries in a bettor's bet index
func (r *Repository) CountUserBets(ctx context.Context, bettor models.Identity) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.UserBetIndexEntry{}).
		Where("bettor = ?", bettor).
		Count(&count).Error
	return count, err
}

// AppendUserBet appends betID at the given position of a bettor's index
func (r *Repository) AppendUserBet(ctx context.Context, bettor models.Identity, position int, betID uint64) error {
	return r.conn(ctx).Create(&models.UserBetIndexEntry{
		Bettor:   bettor,
		Position: position,
		BetID:    betID,
	}).Error
}

// GetUserBetIDs returns a bettor's bet ids in placement order
func (r *Repository) GetUserBetIDs(ctx context.Context, bettor models.Identity) ([]uint64, error) {
	var ids []uint64
	err := r.conn(ctx).Model(&models.UserBetIndexEntry{}).
		Where("bettor = ?", bettor).
		Order("position ASC").
		Pluck("bet_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetUserBets returns a bettor's bets in placement order
func (r *Repository) GetUserBets(ctx context.Context, bettor models.Identity) ([]*models.Bet, error) {
	var bets []*models.Bet
	err := r.conn(ctx).
		Select("bets.*").
		Joins("JOIN user_bet_index ON user_bet_index.bet_id = bets.id").
		Where("user_bet_index.bettor = ?", bettor).
		Order("user_bet_index.position ASC").
		Find(&bets).Error
	if err != nil {
		return nil, err
	}
	return bets, nil
}

// GetFeeRate returns the stored fee rate. found is false when no rate has
// been set yet.
func (r *Repository) GetFeeRate(ctx context.Context) (rate uint64, found bool, err error) {
	var cfg models.FeeConfig
	err = r.conn(ctx).Where("id = ?", feeConfigID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return cfg.Rate, true, nil
}

// SetFeeRate upserts the singleton fee row
func (r *Repository) SetFeeRate(ctx context.Context, rate uint64, updatedBy models.Identity) error {
	cfg := models.FeeConfig{
		ID:        feeConfigID,
		Rate:      rate,
		UpdatedBy: updatedBy,
	}
	return r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_by", "updated_at"}),
	}).Create(&cfg).Error
}
