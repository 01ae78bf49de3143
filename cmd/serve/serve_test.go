package serve

import (
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
	"riskengine/src/risk"
	"riskengine/src/server"
	"riskengine/src/telemetry"
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

func testConfig(telemetryOn bool) *Config {
	return &Config{
		Risk: risk.Config{
			DailyLossLimit:   5000,
			MaxDrawdownLimit: 15,
			MaxPositions:     1,
			MaxExposure:      75000,
			SessionTimezone:  "America/New_York",
			NoTradeWindow:    true,
		},
		Telemetry: telemetry.Config{Enabled: telemetryOn, Path: "/ws"},
		Server:    &server.Config{Port: "0"},
	}
}

func TestServe_BuildWiresGateToStorage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acct := model.Account{Name: "primary", Balance: 100000, Equity: 100000, Currency: "USD", Active: true}
	require.NoError(t, db.Create(&acct).Error)
	require.NoError(t, db.Create(&model.Position{AccountID: acct.ID, Symbol: "EURUSD", Side: model.SideBuy, Quantity: 1000, EntryPrice: 1.08, CurrentPrice: 1.08, IsOpen: true}).Error)

	l, hook := logrustest.NewNullLogger()
	s := &Serve{Log: logrus.NewEntry(l), DB: db, Config: testConfig(true)}
	svc, err := s.Build()
	require.NoError(t, err)
	defer s.Close()
	assert.NotNil(t, s.hub)

	price := 1.08
	res, err := svc.Validate(ctx, model.Signal{AccountID: acct.ID, Symbol: "GBPUSD", Side: model.SideBuy, Quantity: 1000, Price: &price})
	require.NoError(t, err)
	assert.False(t, res.Approved)
	assert.Equal(t, risk.RuleMaxPositions, res.Rule)

	var events []model.RiskEvent
	require.NoError(t, db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, risk.RuleMaxPositions, events[0].Rule)

	require.NoError(t, svc.EmergencyStop(ctx, "drill"))
	var open int64
	require.NoError(t, db.Model(&model.Position{}).Where("is_open = ?", true).Count(&open).Error)
	assert.Zero(t, open)
	assert.NotEmpty(t, hook.AllEntries())
}

func TestServe_BuildRejectsInvalidLimits(t *testing.T) {
	cfg := testConfig(false)
	cfg.Risk.MaxPositions = 0

	s := &Serve{DB: newTestDB(t), Config: cfg}
	_, err := s.Build()

	assert.Error(t, err)
}

func TestServe_BuildWithoutTelemetry(t *testing.T) {
	s := &Serve{DB: newTestDB(t), Config: testConfig(false)}
	_, err := s.Build()

	require.NoError(t, err)
	assert.Nil(t, s.hub)
	s.Close()
}

func TestServe_TradeSyncStoresRoundTrips(t *testing.T) {
	db := newTestDB(t)
	acct := model.Account{Name: "primary", Balance: 100000, Equity: 100000, Currency: "USD", Active: true}
	require.NoError(t, db.Create(&acct).Error)
	at := time.Date(2025, time.March, 4, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&[]model.Fill{
		{AccountID: acct.ID, Symbol: "EURUSD", Side: model.SideSell, Quantity: 2, AvgFillPrice: 1.0900, Status: model.FillStatusFilled, FilledAt: at},
		{AccountID: acct.ID, Symbol: "EURUSD", Side: model.SideBuy, Quantity: 2, AvgFillPrice: 1.0880, Status: model.FillStatusFilled, FilledAt: at.Add(time.Hour)},
	}).Error)

	l, _ := logrustest.NewNullLogger()
	s := &Serve{Log: logrus.NewEntry(l), DB: db, Config: testConfig(false)}
	sync := s.TradeSync()

	require.NoError(t, sync.Tick(context.Background()))
	require.NoError(t, sync.Tick(context.Background()))

	var stored []model.Trade
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, model.SideSell, stored[0].Side)
	assert.InDelta(t, 400.0, stored[0].PnL, 1e-6)
}
