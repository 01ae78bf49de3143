package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"riskengine/src/repository"
	"riskengine/src/risk"
	"riskengine/src/service"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Report prints the performance report of one account and optionally stores
// the reconstructed trades. Stored reports on the trades table instead.
type Report struct {
	Log       *logger.Entry
	DB        *gorm.DB
	Config    *Config
	AccountID uint
	Lookback  time.Duration
	Persist   bool
	Stored    bool
	Out       io.Writer
}

func (r *Report) Start(ctx context.Context) error {
	if r.Config == nil {
		r.Config = GetConfig()
	}
	if r.Out == nil {
		r.Out = os.Stdout
	}
	if r.Log == nil {
		r.Log = logger.WithField("cmd", "report")
	}
	if r.AccountID == 0 {
		return fmt.Errorf("account is required")
	}

	if r.Stored && r.Persist {
		return fmt.Errorf("--stored and --persist cannot be combined")
	}

	tradeRepo := repository.NewTradeRepository().WithDB(r.DB)
	svc := service.NewRiskService(risk.NewGate(risk.DefaultLimits(), risk.Deps{Logger: r.Log}), service.Stores{
		Accounts: repository.NewAccountRepository().WithDB(r.DB),
		Fills:    repository.NewFillRepository().WithDB(r.DB),
		Trades:   tradeRepo,
	}, r.Log)

	build := svc.Performance
	if r.Stored {
		build = svc.StoredPerformance
	}
	report, err := build(ctx, r.AccountID, r.Lookback)
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("account %d not found", r.AccountID)
	}

	if r.Persist {
		if err := tradeRepo.SaveAll(ctx, report.Trades); err != nil {
			return fmt.Errorf("persist trades: %w", err)
		}
		r.Log.WithFields(map[string]interface{}{
			"account_id": r.AccountID,
			"trades":     len(report.Trades),
		}).Info("trades stored")
	}

	return r.write(report)
}

func (r *Report) write(report *service.PerformanceReport) error {
	switch r.Config.Format {
	case FormatYAML:
		enc := yaml.NewEncoder(r.Out)
		defer enc.Close()
		return enc.Encode(report)
	case FormatJSON, "":
		enc := json.NewEncoder(r.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		return fmt.Errorf("unknown report format %q", r.Config.Format)
	}
}
