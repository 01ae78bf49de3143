package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"riskengine/src/database"
	"riskengine/src/model"
)

// TradeRepository stores reconstructed round trips. Trades are immutable so
// saving an id that already exists is a no-op.
type TradeRepository struct {
	db *gorm.DB
}

func NewTradeRepository() *TradeRepository {
	return &TradeRepository{db: database.MainDB}
}

func (r *TradeRepository) WithDB(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

func (r *TradeRepository) SaveAll(ctx context.Context, trades []model.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(trades, 200).Error
	if err != nil {
		return fmt.Errorf("save trades: %w", err)
	}
	return nil
}

func (r *TradeRepository) ListByAccount(ctx context.Context, accountID uint) ([]model.Trade, error) {
	var trades []model.Trade
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("exit_time ASC").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("list trades for account %d: %w", accountID, err)
	}
	return trades, nil
}
