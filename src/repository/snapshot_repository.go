package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskengine/src/database"
	"riskengine/src/model"
)

// AccountSnapshot is an account with its open positions and recent fills,
// read at one point in time.
type AccountSnapshot struct {
	Account       *model.Account
	OpenPositions []model.Position
	Fills         []model.Fill
}

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{db: database.MainDB}
}

func (r *SnapshotRepository) WithDB(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Load reads the account, its open positions and its fills since `since`
// in one read-only repeatable-read transaction. A missing account yields
// (nil, nil).
func (r *SnapshotRepository) Load(ctx context.Context, accountID uint, since time.Time) (*AccountSnapshot, error) {
	var snap *AccountSnapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, err := (&AccountRepository{}).WithDB(tx).FindByID(ctx, accountID)
		if err != nil || acct == nil {
			return err
		}

		positions, err := (&PositionRepository{}).WithDB(tx).ListOpenByAccount(ctx, accountID)
		if err != nil {
			return err
		}

		fills, err := (&FillRepository{}).WithDB(tx).ListByAccount(ctx, accountID, since)
		if err != nil {
			return err
		}

		snap = &AccountSnapshot{Account: acct, OpenPositions: positions, Fills: fills}
		return nil
	}, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "SnapshotRepository",
			"op":         "Load",
			"account_id": accountID,
		}).WithError(err).Error("Failed to load account snapshot")
		return nil, fmt.Errorf("load snapshot for account %d: %w", accountID, err)
	}
	return snap, nil
}
