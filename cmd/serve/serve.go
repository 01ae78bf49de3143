package serve

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskengine/src/audit"
	"riskengine/src/executors"
	"riskengine/src/notify"
	"riskengine/src/repository"
	"riskengine/src/risk"
	"riskengine/src/server"
	"riskengine/src/service"
	"riskengine/src/telemetry"
)

type Serve struct {
	Log    *logger.Entry
	DB     *gorm.DB
	Config *Config

	hub   *telemetry.Hub
	redis *redis.Client
}

func (s *Serve) Start() error {
	if s.Config == nil {
		s.Config = GetConfig()
	}

	svc, err := s.Build()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if s.Config.Sync.Enabled {
		go func() {
			if err := executors.StartLoop(ctx, s.Config.Sync.LoopPeriod, s.TradeSync()); err != nil {
				s.Log.WithError(err).Error("trade sync loop exited")
			}
		}()
	}

	var ws http.Handler
	if s.hub != nil {
		ws = s.hub
	}
	server.StartServer(s.Config.Server.Port, server.NewRouter(svc, s.Config.Telemetry.Path, ws), s.Config.Server.ShutdownTimeout)
	return nil
}

// Build wires the gate to its repositories, the optional redis audit mirror
// and the alert channels, and returns the service on top of it.
func (s *Serve) Build() (*service.RiskService, error) {
	if s.Log == nil {
		s.Log = logger.WithField("cmd", "serve")
	}

	limits, err := s.Config.Risk.Limits()
	if err != nil {
		return nil, err
	}

	exceptions := repository.NewExceptionRepository().WithDB(s.DB)
	positions := repository.NewPositionRepository().WithDB(s.DB)

	events := repository.NewRiskEventRepository().WithDB(s.DB)
	sinks := risk.MultiSink{events}
	var feed service.EventFeed
	if s.Config.Audit.RedisAddr != "" {
		client, err := audit.NewClient(s.Config.Audit)
		if err != nil {
			return nil, fmt.Errorf("connect audit redis: %w", err)
		}
		s.redis = client
		mirror := audit.NewRedisSink(client, s.Config.Audit.Key, s.Config.Audit.MaxEvents)
		sinks = append(sinks, mirror)
		feed = mirror
		s.Log.WithField("addr", s.Config.Audit.RedisAddr).Info("mirroring risk events to redis")
	}

	notifiers := notify.NewMulti()
	if webhook := notify.NewWebhookNotifier(s.Config.Notify); webhook.Enabled() {
		notifiers = append(notifiers, webhook)
	}
	if s.Config.Telemetry.Enabled {
		s.hub = telemetry.NewHub(s.Log)
		notifiers = append(notifiers, s.hub)
	}

	gate := risk.NewGate(limits, risk.Deps{
		Sink:      sinks,
		Notifier:  notifiers,
		Positions: positions,
		Calendar:  risk.NewSessionCalendar(s.Config.Risk.SessionTimezone, s.Config.Risk.NoTradeWindow, risk.DefaultSessionMultipliers()),
		Logger:    s.Log,
		OnError:   service.CaptureSideEffect(exceptions),
	})

	s.Log.WithFields(map[string]interface{}{
		"daily_loss_limit":   limits.DailyLossLimit,
		"max_drawdown_limit": limits.MaxDrawdownLimit,
		"max_positions":      limits.MaxPositions,
		"max_exposure":       limits.MaxExposure,
	}).Info("risk gate ready")

	return service.NewRiskService(gate, service.Stores{
		Accounts:   repository.NewAccountRepository().WithDB(s.DB),
		Strategies: repository.NewStrategyRepository().WithDB(s.DB),
		Fills:      repository.NewFillRepository().WithDB(s.DB),
		Snapshots:  repository.NewSnapshotRepository().WithDB(s.DB),
		Events:     events,
		Feed:       feed,
		Exceptions: exceptions,
	}, s.Log), nil
}

// TradeSync is the background job that keeps the trades table in step with
// the fills.
func (s *Serve) TradeSync() *executors.TradeSync {
	return &executors.TradeSync{
		Accounts: repository.NewAccountRepository().WithDB(s.DB),
		Fills:    repository.NewFillRepository().WithDB(s.DB),
		Trades:   repository.NewTradeRepository().WithDB(s.DB),
		Calendar: risk.NewSessionCalendar(s.Config.Risk.SessionTimezone, s.Config.Risk.NoTradeWindow, risk.DefaultSessionMultipliers()),
		Log:      s.Log.WithField("component", "trade_sync"),
	}
}

func (s *Serve) Close() {
	if s.hub != nil {
		s.hub.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.Log.WithError(err).Warn("closing audit redis")
		}
	}
}
