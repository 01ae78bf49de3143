package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"riskengine/src/database"
	"riskengine/src/model"
)

type StrategyRepository struct {
	db *gorm.DB
}

func NewStrategyRepository() *StrategyRepository {
	return &StrategyRepository{db: database.MainDB}
}

func (r *StrategyRepository) WithDB(db *gorm.DB) *StrategyRepository {
	return &StrategyRepository{db: db}
}

func (r *StrategyRepository) Create(ctx context.Context, s *model.Strategy) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("create strategy: %w", err)
	}
	return nil
}

// FindByID returns (nil, nil) if the strategy does not exist.
func (r *StrategyRepository) FindByID(ctx context.Context, id uint) (*model.Strategy, error) {
	var s model.Strategy
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find strategy %d: %w", id, err)
	}
	return &s, nil
}
