package repository

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskengine/src/database"
	"riskengine/src/model"
)

// RiskEventRepository is the append-only audit log of risk decisions.
type RiskEventRepository struct {
	db *gorm.DB
}

func NewRiskEventRepository() *RiskEventRepository {
	return &RiskEventRepository{db: database.MainDB}
}

func (r *RiskEventRepository) WithDB(db *gorm.DB) *RiskEventRepository {
	return &RiskEventRepository{db: db}
}

// Record inserts the event. Events are never updated.
func (r *RiskEventRepository) Record(ctx context.Context, event *model.RiskEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "RiskEventRepository",
			"op":    "Record",
			"rule":  event.Rule,
			"level": event.Level,
		}).WithError(err).Error("Failed to record risk event")
		return fmt.Errorf("record risk event: %w", err)
	}
	return nil
}

// ListRecent returns up to limit events, newest first. accountID 0 lists
// all accounts.
func (r *RiskEventRepository) ListRecent(ctx context.Context, accountID uint, limit int) ([]model.RiskEvent, error) {
	q := r.db.WithContext(ctx)
	if accountID != 0 {
		q = q.Where("account_id = ?", accountID)
	}
	if limit <= 0 {
		limit = 100
	}

	var events []model.RiskEvent
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list risk events: %w", err)
	}
	return events, nil
}
