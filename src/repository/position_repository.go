package repository

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskengine/src/database"
	"riskengine/src/model"
)

type PositionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPositionRepository() *PositionRepository {
	return &PositionRepository{db: database.MainDB, now: time.Now}
}

func (r *PositionRepository) WithDB(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db, now: r.clock()}
}

func (r *PositionRepository) clock() func() time.Time {
	if r.now == nil {
		return time.Now
	}
	return r.now
}

func (r *PositionRepository) Create(ctx context.Context, pos *model.Position) error {
	if err := r.db.WithContext(ctx).Create(pos).Error; err != nil {
		return fmt.Errorf("create position: %w", err)
	}
	return nil
}

// ListOpen returns every open position across all accounts.
func (r *PositionRepository) ListOpen(ctx context.Context) ([]model.Position, error) {
	var positions []model.Position
	err := r.db.WithContext(ctx).
		Where("is_open = ?", true).
		Order("id ASC").
		Find(&positions).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "ListOpen",
		}).WithError(err).Error("Failed to list open positions")
		return nil, fmt.Errorf("list open positions: %w", err)
	}
	return positions, nil
}

func (r *PositionRepository) ListOpenByAccount(ctx context.Context, accountID uint) ([]model.Position, error) {
	var positions []model.Position
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND is_open = ?", accountID, true).
		Order("id ASC").
		Find(&positions).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "PositionRepository",
			"op":         "ListOpenByAccount",
			"account_id": accountID,
		}).WithError(err).Error("Failed to list open positions")
		return nil, fmt.Errorf("list open positions for account %d: %w", accountID, err)
	}
	return positions, nil
}

// MarkClosed flags the position closed with reason. It does not place any
// closing order. Closing an already closed position is a no-op; an unknown
// id returns gorm.ErrRecordNotFound.
func (r *PositionRepository) MarkClosed(ctx context.Context, id uint, reason string) error {
	log := logger.WithFields(map[string]interface{}{
		"repo":   "PositionRepository",
		"op":     "MarkClosed",
		"id":     id,
		"reason": reason,
	})

	res := r.db.WithContext(ctx).
		Model(&model.Position{}).
		Where("id = ? AND is_open = ?", id, true).
		Updates(map[string]interface{}{
			"is_open":      false,
			"close_reason": reason,
			"closed_at":    r.clock()().UTC(),
		})
	if res.Error != nil {
		log.WithError(res.Error).Error("Failed to close position")
		return fmt.Errorf("close position %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// Closed by a concurrent stop or a regular close in between.
		var exists int64
		if err := r.db.WithContext(ctx).Model(&model.Position{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return fmt.Errorf("close position %d: %w", id, err)
		}
		if exists == 0 {
			log.Warn("Position not found")
			return fmt.Errorf("close position %d: %w", id, gorm.ErrRecordNotFound)
		}
		log.Info("Position already closed")
		return nil
	}

	log.Info("Position closed")
	return nil
}

// UpdateCurrentPrice marks every open position in symbol to price.
func (r *PositionRepository) UpdateCurrentPrice(ctx context.Context, symbol string, price float64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Position{}).
		Where("symbol = ? AND is_open = ?", symbol, true).
		Update("current_price", price)
	if res.Error != nil {
		return 0, fmt.Errorf("update current price for %s: %w", symbol, res.Error)
	}
	return res.RowsAffected, nil
}
