// Package migrations applies one-off data fixes that AutoMigrate cannot
// express, recording each in a ledger table so it runs once per database.
package migrations

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DataMigration is one row of the ledger.
type DataMigration struct {
	ID        string    `gorm:"primaryKey;size:200;column:id"`
	AppliedAt time.Time `gorm:"not null;column:applied_at"`
}

func (DataMigration) TableName() string { return "data_migrations" }

// RunOnce runs fn inside a transaction unless migrationID is already in the
// ledger. The id is recorded only after fn succeeds.
func RunOnce(db *gorm.DB, migrationID string, fn func(*gorm.DB) error) error {
	if db == nil {
		return nil
	}
	if migrationID == "" {
		return fmt.Errorf("migration id is empty")
	}
	if fn == nil {
		return fmt.Errorf("migration %q has nil fn", migrationID)
	}

	if err := db.AutoMigrate(&DataMigration{}); err != nil {
		return fmt.Errorf("ensure data migrations table: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var m DataMigration
		err := tx.First(&m, "id = ?", migrationID).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check migration %q: %w", migrationID, err)
		}

		if err := fn(tx); err != nil {
			return fmt.Errorf("run migration %q: %w", migrationID, err)
		}

		rec := DataMigration{ID: migrationID, AppliedAt: time.Now().UTC()}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("record migration %q: %w", migrationID, err)
		}
		return nil
	})
}

// Run applies every data migration in order. Append new ones at the bottom
// with a stable id.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	steps := []struct {
		id string
		fn func(*gorm.DB) error
	}{
		{"00001_normalize_fill_side_and_status", normalizeFills},
		{"00002_backfill_position_close_reason", backfillCloseReason},
	}
	for _, s := range steps {
		if err := RunOnce(db, s.id, s.fn); err != nil {
			return err
		}
	}
	return nil
}

// normalizeFills upper-cases side and lower-cases status on fills written
// by collaborators that did not follow the BUY/SELL, filled convention.
func normalizeFills(tx *gorm.DB) error {
	if err := tx.Exec("UPDATE fills SET side = UPPER(side) WHERE side <> UPPER(side)").Error; err != nil {
		return fmt.Errorf("normalize fills.side: %w", err)
	}
	if err := tx.Exec("UPDATE fills SET status = LOWER(status) WHERE status <> LOWER(status)").Error; err != nil {
		return fmt.Errorf("normalize fills.status: %w", err)
	}
	return nil
}

func backfillCloseReason(tx *gorm.DB) error {
	err := tx.Exec("UPDATE positions SET close_reason = ? WHERE is_open = ? AND (close_reason IS NULL OR close_reason = '')", "unknown", false).Error
	if err != nil {
		return fmt.Errorf("backfill positions.close_reason: %w", err)
	}
	return nil
}
