package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"riskengine/src/database"
	"riskengine/src/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.Config{
		Driver:          database.DriverSQLite,
		DatabaseURLMain: "file:" + t.Name() + "?mode=memory&cache=shared",
		GormLogLevel:    1,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seed(t *testing.T, db *gorm.DB) model.Account {
	t.Helper()
	acct := model.Account{Name: "primary", Balance: 100000, Equity: 100000, Currency: "USD", Active: true}
	require.NoError(t, db.Create(&acct).Error)

	entry := time.Now().UTC().Add(-3 * time.Hour)
	fills := []model.Fill{
		{AccountID: acct.ID, StrategyID: 1, Symbol: "EURUSD", Side: model.SideBuy, Quantity: 1, AvgFillPrice: 1.0850, Status: model.FillStatusFilled, FilledAt: entry},
		{AccountID: acct.ID, StrategyID: 1, Symbol: "EURUSD", Side: model.SideSell, Quantity: 1, AvgFillPrice: 1.0865, Status: model.FillStatusFilled, FilledAt: entry.Add(time.Hour)},
		{AccountID: acct.ID, StrategyID: 1, Symbol: "GBPUSD", Side: model.SideBuy, Quantity: 1, AvgFillPrice: 1.2700, Status: model.FillStatusFilled, FilledAt: entry.Add(2 * time.Hour)},
	}
	require.NoError(t, db.Create(&fills).Error)
	return acct
}

func newReport(db *gorm.DB, accountID uint, format string, out *bytes.Buffer) *Report {
	l, _ := logrustest.NewNullLogger()
	return &Report{
		Log:       logrus.NewEntry(l),
		DB:        db,
		Config:    &Config{Format: format},
		AccountID: accountID,
		Out:       out,
	}
}

func TestReport_JSON(t *testing.T) {
	db := newTestDB(t)
	acct := seed(t, db)

	var out bytes.Buffer
	require.NoError(t, newReport(db, acct.ID, FormatJSON, &out).Start(context.Background()))

	assert.Contains(t, out.String(), `"total_trades": 1`)
	assert.Contains(t, out.String(), `"total_return": 150`)
	assert.Contains(t, out.String(), `"open_positions"`)
	assert.NotContains(t, out.String(), `"trades"`)

	var stored int64
	require.NoError(t, db.Model(&model.Trade{}).Count(&stored).Error)
	assert.Zero(t, stored, "nothing persisted without --persist")
}

func TestReport_YAML(t *testing.T) {
	db := newTestDB(t)
	acct := seed(t, db)

	var out bytes.Buffer
	require.NoError(t, newReport(db, acct.ID, FormatYAML, &out).Start(context.Background()))

	assert.Contains(t, out.String(), "total_trades: 1")
	assert.Contains(t, out.String(), "win_rate: 100")
}

func TestReport_PersistIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	acct := seed(t, db)

	for i := 0; i < 2; i++ {
		r := newReport(db, acct.ID, FormatJSON, &bytes.Buffer{})
		r.Persist = true
		require.NoError(t, r.Start(context.Background()))
	}

	var trades []model.Trade
	require.NoError(t, db.Find(&trades).Error)
	require.Len(t, trades, 1)
	assert.Equal(t, "EURUSD", trades[0].Symbol)
	assert.InDelta(t, 150.0, trades[0].PnL, 1e-9)
}

func TestReport_Errors(t *testing.T) {
	db := newTestDB(t)

	err := newReport(db, 0, FormatJSON, &bytes.Buffer{}).Start(context.Background())
	assert.ErrorContains(t, err, "account is required")

	err = newReport(db, 42, FormatJSON, &bytes.Buffer{}).Start(context.Background())
	assert.ErrorContains(t, err, "account 42 not found")

	acct := seed(t, db)
	err = newReport(db, acct.ID, "xml", &bytes.Buffer{}).Start(context.Background())
	assert.ErrorContains(t, err, `unknown report format "xml"`)
}

func TestReport_StoredReadsTradesTable(t *testing.T) {
	db := newTestDB(t)
	acct := seed(t, db)
	ctx := context.Background()

	var out bytes.Buffer
	r := newReport(db, acct.ID, FormatJSON, &out)
	r.Stored = true
	require.NoError(t, r.Start(ctx))
	assert.Contains(t, out.String(), `"total_trades": 0`, "nothing stored yet")

	persist := newReport(db, acct.ID, FormatJSON, &bytes.Buffer{})
	persist.Persist = true
	require.NoError(t, persist.Start(ctx))

	out.Reset()
	require.NoError(t, r.Start(ctx))
	assert.Contains(t, out.String(), `"total_trades": 1`)
	assert.Contains(t, out.String(), `"total_return": 150`)
	assert.Contains(t, out.String(), `"open_positions"`)
}

func TestReport_StoredAndPersistConflict(t *testing.T) {
	db := newTestDB(t)
	acct := seed(t, db)

	r := newReport(db, acct.ID, FormatJSON, &bytes.Buffer{})
	r.Stored = true
	r.Persist = true
	assert.ErrorContains(t, r.Start(context.Background()), "cannot be combined")
}
