package repository

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskengine/src/database"
	"riskengine/src/model"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{db: database.MainDB}
}

func (r *AccountRepository) WithDB(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, acct *model.Account) error {
	if err := r.db.WithContext(ctx).Create(acct).Error; err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// FindByID returns (nil, nil) if the account does not exist.
func (r *AccountRepository) FindByID(ctx context.Context, id uint) (*model.Account, error) {
	var acct model.Account
	err := r.db.WithContext(ctx).First(&acct, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo": "AccountRepository",
				"op":   "FindByID",
				"id":   id,
			}).Info("Account not found")
			return nil, nil
		}
		return nil, fmt.Errorf("find account %d: %w", id, err)
	}
	return &acct, nil
}

// UpdateBalances stores a new balance/equity pair.
func (r *AccountRepository) UpdateBalances(ctx context.Context, id uint, balance, equity float64) error {
	err := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"balance": balance, "equity": equity}).Error
	if err != nil {
		return fmt.Errorf("update balances for account %d: %w", id, err)
	}
	return nil
}

func (r *AccountRepository) ListActive(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list active accounts: %w", err)
	}
	return accounts, nil
}
