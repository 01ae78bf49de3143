package executors

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"riskengine/src/model"
	"riskengine/src/risk"
	"riskengine/src/trades"
)

type accountLister interface {
	ListActive(ctx context.Context) ([]model.Account, error)
}

type fillLister interface {
	ListByAccount(ctx context.Context, accountID uint, since time.Time) ([]model.Fill, error)
}

type tradeSaver interface {
	SaveAll(ctx context.Context, trades []model.Trade) error
}

// TradeSync rebuilds the trade history of every active account from its fills
// and stores new round trips. It also logs FX session changes so operators
// see when the no-trade window starts.
type TradeSync struct {
	Accounts accountLister
	Fills    fillLister
	Trades   tradeSaver
	Calendar *risk.SessionCalendar
	Log      *logger.Entry
	Now      func() time.Time

	lastSession risk.Session
}

// StartLoop runs Tick every period until ctx is cancelled. A failing tick is
// logged and the loop keeps going.
func StartLoop(ctx context.Context, period time.Duration, s *TradeSync) error {
	if period <= 0 {
		return errors.New("loop period must be positive")
	}
	s.defaults()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Log.Info("trade sync loop stopped")
			return nil

		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.Log.WithError(err).Error("trade sync tick failed")
			}
		}
	}
}

func (s *TradeSync) defaults() {
	if s.Log == nil {
		s.Log = logger.WithField("component", "trade_sync")
	}
	if s.Now == nil {
		s.Now = time.Now
	}
}

// Tick runs one pass over all active accounts. Accounts that fail are
// skipped; their errors are joined.
func (s *TradeSync) Tick(ctx context.Context) error {
	s.defaults()
	s.watchSession()

	accounts, err := s.Accounts.ListActive(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, acct := range accounts {
		fills, err := s.Fills.ListByAccount(ctx, acct.ID, time.Time{})
		if err != nil {
			errs = append(errs, fmt.Errorf("account %d: %w", acct.ID, err))
			continue
		}
		rebuilt := trades.Reconstruct(fills)
		if len(rebuilt) == 0 {
			continue
		}
		if err := s.Trades.SaveAll(ctx, rebuilt); err != nil {
			errs = append(errs, fmt.Errorf("account %d: %w", acct.ID, err))
			continue
		}
		s.Log.WithFields(map[string]interface{}{
			"account_id": acct.ID,
			"trades":     len(rebuilt),
		}).Debug("trades synced")
	}
	return errors.Join(errs...)
}

func (s *TradeSync) watchSession() {
	if s.Calendar == nil {
		return
	}
	info := s.Calendar.At(s.Now())
	if info.Session == s.lastSession {
		return
	}
	log := s.Log.WithFields(map[string]interface{}{
		"from":            s.lastSession,
		"to":              info.Session,
		"size_multiplier": info.SizeMultiplier.String(),
	})
	if info.Session == risk.SessionNoTrade {
		log.Warn("entering no-trade window, risk off mode")
	} else {
		log.Info("FX session changed")
	}
	s.lastSession = info.Session
}
