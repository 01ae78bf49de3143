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

// FillRepository reads and writes executed fills. Fills are returned in
// execution order, which is the order the trade reconstructor expects.
type FillRepository struct {
	db *gorm.DB
}

func NewFillRepository() *FillRepository {
	return &FillRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *FillRepository) WithDB(db *gorm.DB) *FillRepository {
	return &FillRepository{db: db}
}

func (r *FillRepository) Create(ctx context.Context, fill *model.Fill) error {
	if err := r.db.WithContext(ctx).Create(fill).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":   "FillRepository",
			"op":     "Create",
			"symbol": fill.Symbol,
			"side":   fill.Side,
		}).WithError(err).Error("Failed to create fill")
		return fmt.Errorf("create fill: %w", err)
	}
	return nil
}

// ListByAccount returns the filled fills of an account with FilledAt >= since.
// A zero since returns the full history.
func (r *FillRepository) ListByAccount(ctx context.Context, accountID uint, since time.Time) ([]model.Fill, error) {
	log := logger.WithFields(map[string]interface{}{
		"repo":       "FillRepository",
		"op":         "ListByAccount",
		"account_id": accountID,
		"since":      since,
	})
	log.Debug("Listing fills")

	q := r.db.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountID, model.FillStatusFilled)
	if !since.IsZero() {
		q = q.Where("filled_at >= ?", since)
	}

	var fills []model.Fill
	if err := q.Order("filled_at ASC, id ASC").Find(&fills).Error; err != nil {
		log.WithError(err).Error("Failed to list fills")
		return nil, fmt.Errorf("list fills for account %d: %w", accountID, err)
	}
	return fills, nil
}
