// Package service assembles account snapshots from storage and runs them
// through the risk gate and the analytics core.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"riskengine/src/metrics"
	"riskengine/src/model"
	"riskengine/src/repository"
	"riskengine/src/risk"
	"riskengine/src/trades"
	"riskengine/src/utils"
)

const (
	serviceName       = "risk_service"
	defaultEventLimit = 100
)

type AccountStore interface {
	FindByID(ctx context.Context, id uint) (*model.Account, error)
}

type StrategyStore interface {
	FindByID(ctx context.Context, id uint) (*model.Strategy, error)
}

type FillStore interface {
	ListByAccount(ctx context.Context, accountID uint, since time.Time) ([]model.Fill, error)
}

// SnapshotStore reads an account, its open positions and its fills since a
// given time at one point in time.
type SnapshotStore interface {
	Load(ctx context.Context, accountID uint, since time.Time) (*repository.AccountSnapshot, error)
}

type TradeStore interface {
	ListByAccount(ctx context.Context, accountID uint) ([]model.Trade, error)
}

type EventStore interface {
	ListRecent(ctx context.Context, accountID uint, limit int) ([]model.RiskEvent, error)
}

// EventFeed is the capped audit mirror, newest first, across all accounts.
type EventFeed interface {
	Recent(ctx context.Context, n int64) ([]model.RiskEvent, error)
}

type Stores struct {
	Snapshots  SnapshotStore
	Accounts   AccountStore
	Strategies StrategyStore
	Fills      FillStore
	Trades     TradeStore
	Events     EventStore
	Feed       EventFeed
	Exceptions ExceptionStore
}

// PerformanceReport is the analytics answer for one account.
type PerformanceReport struct {
	AccountID  uint                     `json:"account_id" yaml:"account_id"`
	Lookback   string                   `json:"lookback,omitempty" yaml:"lookback,omitempty"`
	Metrics    model.PerformanceMetrics `json:"metrics" yaml:"metrics"`
	Daily      []model.DailyReturn      `json:"daily" yaml:"daily"`
	Strategies []model.StrategyReport   `json:"strategies" yaml:"strategies"`
	Open       []model.Position         `json:"open_positions" yaml:"open_positions"`
	Trades     []model.Trade            `json:"-" yaml:"-"`
}

type RiskService struct {
	gate   *risk.Gate
	stores Stores
	logger *logrus.Entry
	now    func() time.Time
}

func NewRiskService(gate *risk.Gate, stores Stores, logger *logrus.Entry) *RiskService {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &RiskService{gate: gate, stores: stores, logger: logger.WithField("service", serviceName), now: time.Now}
}

// CaptureSideEffect adapts Capture to the gate's error handler.
func CaptureSideEffect(repo ExceptionStore) risk.ErrorHandler {
	return func(ctx context.Context, op string, err error) {
		Capture(ctx, repo, serviceName, "risk_gate", op, "warn", err, nil)
	}
}

// snapshot loads the account, its open positions and today's fills in one
// consistent read. A missing account yields a snapshot without account, which
// the gate rejects.
func (s *RiskService) snapshot(ctx context.Context, accountID uint) (risk.Snapshot, error) {
	loaded, err := s.stores.Snapshots.Load(ctx, accountID, utils.ResetTime(s.now(), utils.GranularityDay))
	if err != nil {
		return risk.Snapshot{}, err
	}
	if loaded == nil {
		return risk.Snapshot{}, nil
	}
	return risk.Snapshot{Account: loaded.Account, OpenPositions: loaded.OpenPositions, Fills: loaded.Fills}, nil
}

// Validate checks signal against the gate. Storage failures are rejected
// through the gate as data_unavailable and returned alongside the rejection.
func (s *RiskService) Validate(ctx context.Context, signal model.Signal) (model.RiskCheckResult, error) {
	snap, err := s.snapshot(ctx, signal.AccountID)
	if err != nil {
		s.logger.WithError(err).WithField("account_id", signal.AccountID).Error("risk snapshot failed")
		return s.gate.RejectUnavailable(ctx, signal), err
	}

	var strategy *model.Strategy
	if signal.StrategyID != 0 {
		strategy, err = s.stores.Strategies.FindByID(ctx, signal.StrategyID)
		if err != nil {
			s.logger.WithError(err).WithField("strategy_id", signal.StrategyID).Error("strategy load failed")
			return s.gate.RejectUnavailable(ctx, signal), fmt.Errorf("load strategy %d: %w", signal.StrategyID, err)
		}
	}

	return s.gate.ValidateTrade(ctx, signal, strategy, snap), nil
}

// RecentEvents lists up to limit risk events, newest first. accountID 0
// lists all accounts and is served from the audit feed when one is
// configured. The gate's in-memory journal answers when storage fails.
func (s *RiskService) RecentEvents(ctx context.Context, accountID uint, limit int) ([]model.RiskEvent, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	log := s.logger.WithFields(map[string]interface{}{"account_id": accountID, "limit": limit})

	// The feed is capped and unfiltered, so it can only answer the global view.
	if accountID == 0 && s.stores.Feed != nil {
		events, err := s.stores.Feed.Recent(ctx, int64(limit))
		if err == nil {
			return events, nil
		}
		log.WithError(err).Warn("audit feed unavailable")
	}

	if s.stores.Events != nil {
		events, err := s.stores.Events.ListRecent(ctx, accountID, limit)
		if err == nil {
			return events, nil
		}
		log.WithError(err).Warn("risk event store unavailable, serving journal")
	}

	journal := s.gate.Events()
	newest := make([]model.RiskEvent, 0, len(journal))
	for i := len(journal) - 1; i >= 0; i-- {
		newest = append(newest, journal[i])
	}
	return filterEvents(newest, accountID, limit), nil
}

func filterEvents(events []model.RiskEvent, accountID uint, limit int) []model.RiskEvent {
	out := make([]model.RiskEvent, 0, len(events))
	for _, ev := range events {
		if accountID != 0 && ev.AccountID != accountID {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (s *RiskService) Status(ctx context.Context, accountID uint) (model.RiskStatus, error) {
	snap, err := s.snapshot(ctx, accountID)
	if err != nil {
		return model.RiskStatus{}, err
	}
	status := s.gate.Status(snap)
	if snap.Account == nil {
		status.AccountID = accountID
	}
	return status, nil
}

func (s *RiskService) EmergencyStop(ctx context.Context, reason string) error {
	err := s.gate.EmergencyStop(ctx, reason)
	if err != nil {
		Capture(ctx, s.stores.Exceptions, serviceName, "risk_gate", "EmergencyStop", "error", err, map[string]interface{}{"reason": reason})
	}
	return err
}

func (s *RiskService) Resume(ctx context.Context, operator string) error {
	return s.gate.Resume(ctx, operator)
}

func (s *RiskService) Stats() risk.Stats {
	return s.gate.Stats()
}

func (s *RiskService) State() risk.State {
	return s.gate.State()
}

// Performance reconstructs trades from the full fill history and reports
// those that exited within lookback. A non-positive lookback covers all
// trades. Returns (nil, nil) for an unknown account.
func (s *RiskService) Performance(ctx context.Context, accountID uint, lookback time.Duration) (*PerformanceReport, error) {
	return s.performance(ctx, accountID, lookback, false)
}

// StoredPerformance builds the report from the persisted trades table
// instead of reconstructing trades from fills. Open positions still come
// from the fills.
func (s *RiskService) StoredPerformance(ctx context.Context, accountID uint, lookback time.Duration) (*PerformanceReport, error) {
	return s.performance(ctx, accountID, lookback, true)
}

func (s *RiskService) performance(ctx context.Context, accountID uint, lookback time.Duration, stored bool) (*PerformanceReport, error) {
	acct, err := s.stores.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account %d: %w", accountID, err)
	}
	if acct == nil {
		return nil, nil
	}

	fills, err := s.stores.Fills.ListByAccount(ctx, accountID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("load fills: %w", err)
	}

	var all []model.Trade
	if stored {
		if s.stores.Trades == nil {
			return nil, fmt.Errorf("no trade store configured")
		}
		if all, err = s.stores.Trades.ListByAccount(ctx, accountID); err != nil {
			return nil, fmt.Errorf("load stored trades: %w", err)
		}
	} else {
		all = trades.Reconstruct(fills)
	}
	window := metrics.Since(all, lookback, s.now())

	report := &PerformanceReport{
		AccountID:  accountID,
		Metrics:    metrics.Calculate(window),
		Daily:      metrics.Daily(window),
		Strategies: metrics.ByStrategy(window),
		Open:       trades.OpenPositions(fills),
		Trades:     all,
	}
	if lookback > 0 {
		report.Lookback = lookback.String()
	}
	return report, nil
}
