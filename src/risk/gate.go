// Package risk holds the pre-trade risk gate and its emergency-stop state.
package risk

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"riskengine/src/model"
	"riskengine/src/trades"
	"riskengine/src/utils"
)

type State string

const (
	StateActive           State = "ACTIVE"
	StateEmergencyStopped State = "EMERGENCY_STOPPED"
)

const (
	RuleEmergencyStop = "emergency_stop"
	RuleAccount       = "account"
	RuleStrategy      = "strategy"
	RuleDailyLoss     = "daily_loss"
	RuleMaxDrawdown   = "max_drawdown"
	RuleMaxPositions  = "max_positions"
	RuleMaxExposure   = "max_exposure"
	RuleDataMissing   = "data_unavailable"
)

const (
	ReasonEmergencyStop = "Emergency stop is active"
	ReasonNoAccount     = "No active account found"
	ReasonNoStrategy    = "No active strategy found"
	ReasonNoData        = "Risk data unavailable"
	ReasonNoPrice       = "No price available to measure exposure"
)

// journalSize bounds the in-memory event journal.
const journalSize = 500

type EventSink interface {
	Record(ctx context.Context, event *model.RiskEvent) error
}

type Notifier interface {
	Notify(ctx context.Context, event model.RiskEvent) error
}

type PositionStore interface {
	ListOpen(ctx context.Context) ([]model.Position, error)
	MarkClosed(ctx context.Context, id uint, reason string) error
}

// ErrorHandler receives failures of best-effort side effects.
type ErrorHandler func(ctx context.Context, op string, err error)

// Snapshot is the account state one check is evaluated against. The caller
// fetches it in one go; the gate never reads storage itself.
type Snapshot struct {
	Account       *model.Account
	OpenPositions []model.Position
	Fills         []model.Fill
}

type Stats struct {
	Blocked int            `json:"blocked"`
	ByRule  map[string]int `json:"by_rule"`
}

type Deps struct {
	Sink      EventSink
	Notifier  Notifier
	Positions PositionStore
	Calendar  *SessionCalendar
	Logger    *logrus.Entry
	OnError   ErrorHandler
	Now       func() time.Time
}

type Gate struct {
	mu      sync.Mutex
	state   State
	stats   Stats
	journal []model.RiskEvent

	limits    Limits
	sink      EventSink
	notifier  Notifier
	positions PositionStore
	calendar  *SessionCalendar
	logger    *logrus.Entry
	onError   ErrorHandler
	now       func() time.Time
}

func NewGate(limits Limits, deps Deps) *Gate {
	if deps.Logger == nil {
		deps.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Calendar == nil {
		deps.Calendar = NewSessionCalendar("America/New_York", true, DefaultSessionMultipliers())
	}

	return &Gate{
		state:     StateActive,
		stats:     Stats{ByRule: make(map[string]int)},
		limits:    limits,
		sink:      deps.Sink,
		notifier:  deps.Notifier,
		positions: deps.Positions,
		calendar:  deps.Calendar,
		logger:    deps.Logger.WithField("component", "risk_gate"),
		onError:   deps.OnError,
		now:       deps.Now,
	}
}

// ValidateTrade runs the rule chain in order and stops at the first failing
// rule: emergency stop, account, strategy, daily loss, drawdown, position
// count, exposure. A rejection records exactly one event and one block.
func (g *Gate) ValidateTrade(ctx context.Context, signal model.Signal, strategy *model.Strategy, snap Snapshot) model.RiskCheckResult {
	return g.decide(ctx, signal, func(now time.Time) model.RiskCheckResult {
		return g.evaluate(signal, strategy, snap, now)
	})
}

// RejectUnavailable rejects a signal whose risk data could not be loaded. It
// is recorded and counted like any other rejection; a stopped gate still
// reports the emergency stop.
func (g *Gate) RejectUnavailable(ctx context.Context, signal model.Signal) model.RiskCheckResult {
	return g.decide(ctx, signal, func(time.Time) model.RiskCheckResult {
		if g.state == StateEmergencyStopped {
			return reject(RuleEmergencyStop, ReasonEmergencyStop)
		}
		return reject(RuleDataMissing, ReasonNoData)
	})
}

// decide runs rule under the lock and applies the rejection side effects.
func (g *Gate) decide(ctx context.Context, signal model.Signal, rule func(now time.Time) model.RiskCheckResult) model.RiskCheckResult {
	g.mu.Lock()
	now := g.now()
	result := rule(now)

	var event *model.RiskEvent
	if !result.Approved {
		level := model.RiskLevelWarning
		if result.Rule == RuleEmergencyStop {
			level = model.RiskLevelCritical
		}
		ev := g.newEvent(now, signal.AccountID, signal.StrategyID, level, result.Rule, model.RiskActionBlocked, result.Reason)
		g.stats.Blocked++
		g.stats.ByRule[result.Rule]++
		g.remember(ev)
		event = &ev
	}
	g.mu.Unlock()

	log := g.logger.WithFields(map[string]interface{}{
		"account_id":  signal.AccountID,
		"strategy_id": signal.StrategyID,
		"symbol":      signal.Symbol,
		"side":        signal.Side,
		"quantity":    signal.Quantity,
	})
	if event == nil {
		qty := g.calendar.ScaleQuantity(decimal.NewFromFloat(signal.Quantity), now).InexactFloat64()
		result.SuggestedQuantity = &qty
		log.WithField("suggested_quantity", qty).Debug("signal approved")
		return result
	}

	log.WithField("rule", result.Rule).Warn(result.Reason)
	g.dispatch(ctx, *event)
	return result
}

func (g *Gate) evaluate(signal model.Signal, strategy *model.Strategy, snap Snapshot, now time.Time) model.RiskCheckResult {
	if g.state == StateEmergencyStopped {
		return reject(RuleEmergencyStop, ReasonEmergencyStop)
	}

	acct := snap.Account
	if acct == nil || !acct.Active {
		return reject(RuleAccount, ReasonNoAccount)
	}

	// A signal that names a strategy needs that strategy, active and owned by
	// the account.
	var strategyProfile *model.RiskProfile
	if signal.StrategyID != 0 {
		if strategy == nil || strategy.ID != signal.StrategyID || !strategy.Active || strategy.AccountID != acct.ID {
			return reject(RuleStrategy, ReasonNoStrategy)
		}
		strategyProfile = &strategy.RiskProfile
	}
	limits := g.limits.Resolve(strategyProfile, &acct.RiskProfile)

	if net := dailyRealized(snap.Fills, acct.ID, now); net < 0 && -net >= limits.DailyLossLimit {
		return reject(RuleDailyLoss, fmt.Sprintf("Daily loss limit reached: %.2f >= %.2f", -net, limits.DailyLossLimit))
	}

	if dd := drawdownPct(acct); dd >= limits.MaxDrawdownLimit {
		return reject(RuleMaxDrawdown, fmt.Sprintf("Max drawdown limit reached: %.2f%% >= %.2f%%", dd, limits.MaxDrawdownLimit))
	}

	open := openPositions(snap.OpenPositions)
	if len(open) >= limits.MaxPositions {
		return reject(RuleMaxPositions, fmt.Sprintf("Max positions limit reached: %d >= %d", len(open), limits.MaxPositions))
	}

	notional, priced := signalNotional(signal, open)
	if !priced {
		return reject(RuleMaxExposure, ReasonNoPrice)
	}
	total := exposure(open) + notional
	if total > limits.MaxExposure {
		return reject(RuleMaxExposure, fmt.Sprintf("Max exposure limit exceeded: %.2f > %.2f", total, limits.MaxExposure))
	}

	return model.RiskCheckResult{Approved: true}
}

func reject(rule, reason string) model.RiskCheckResult {
	return model.RiskCheckResult{Approved: false, Rule: rule, Reason: reason}
}

// dailyRealized is the realized PnL of the account's fills filled on the
// UTC date of now.
func dailyRealized(fills []model.Fill, accountID uint, now time.Time) float64 {
	today := make([]model.Fill, 0, len(fills))
	for _, f := range fills {
		if f.AccountID == accountID && utils.SameDay(f.FilledAt, now) {
			today = append(today, f)
		}
	}
	return trades.RealizedPnL(today)
}

func drawdownPct(acct *model.Account) float64 {
	if acct.Balance <= 0 {
		return 0
	}
	dd := (acct.Balance - acct.Equity) / acct.Balance * 100
	if math.IsNaN(dd) || math.IsInf(dd, 0) {
		return 0
	}
	return dd
}

func openPositions(positions []model.Position) []model.Position {
	out := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		if p.IsOpen {
			out = append(out, p)
		}
	}
	return out
}

func exposure(open []model.Position) float64 {
	var total float64
	for _, p := range open {
		total += p.Notional()
	}
	return total
}

// signalNotional prices the signal at its own price, else at the current
// price of an open position in the same symbol. An unpriced signal reports
// false and is rejected.
func signalNotional(signal model.Signal, open []model.Position) (float64, bool) {
	if signal.Price != nil && *signal.Price > 0 {
		return math.Abs(signal.Quantity * *signal.Price), true
	}
	for _, p := range open {
		if p.Symbol == signal.Symbol && p.CurrentPrice > 0 {
			return math.Abs(signal.Quantity * p.CurrentPrice), true
		}
	}
	return 0, false
}

func (g *Gate) newEvent(now time.Time, accountID, strategyID uint, level, rule, action, message string) model.RiskEvent {
	return model.RiskEvent{
		Reference:  uuid.NewString(),
		AccountID:  accountID,
		StrategyID: strategyID,
		Level:      level,
		Rule:       rule,
		Action:     action,
		Message:    message,
		CreatedAt:  now,
	}
}

// remember must be called with mu held.
func (g *Gate) remember(ev model.RiskEvent) {
	g.journal = append(g.journal, ev)
	if len(g.journal) > journalSize {
		g.journal = g.journal[len(g.journal)-journalSize:]
	}
}

// dispatch hands the event to the sink and notifier. Failures are logged and
// reported to OnError, never retried.
func (g *Gate) dispatch(ctx context.Context, ev model.RiskEvent) {
	if g.sink != nil {
		if err := g.sink.Record(ctx, &ev); err != nil {
			g.sideEffectFailed(ctx, "record_event", err)
		}
	}
	if g.notifier != nil {
		if err := g.notifier.Notify(ctx, ev); err != nil {
			g.sideEffectFailed(ctx, "notify", err)
		}
	}
}

func (g *Gate) sideEffectFailed(ctx context.Context, op string, err error) {
	g.logger.WithError(err).WithField("op", op).Error("risk side effect failed")
	if g.onError != nil {
		g.onError(ctx, op, err)
	}
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Stats returns a copy of the block counters.
func (g *Gate) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	byRule := make(map[string]int, len(g.stats.ByRule))
	for k, v := range g.stats.ByRule {
		byRule[k] = v
	}
	return Stats{Blocked: g.stats.Blocked, ByRule: byRule}
}

// Events returns the most recent risk events, oldest first.
func (g *Gate) Events() []model.RiskEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]model.RiskEvent, len(g.journal))
	copy(out, g.journal)
	return out
}

func (g *Gate) Limits() Limits {
	return g.limits
}
