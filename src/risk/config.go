package risk

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DailyLossLimit   float64 `envconfig:"RISK_DAILY_LOSS_LIMIT" default:"5000"`
	MaxDrawdownLimit float64 `envconfig:"RISK_MAX_DRAWDOWN_LIMIT" default:"15"`
	MaxPositions     int     `envconfig:"RISK_MAX_POSITIONS" default:"10"`
	MaxExposure      float64 `envconfig:"RISK_MAX_EXPOSURE" default:"75000"`
	LimitsFile       string  `envconfig:"RISK_LIMITS_FILE"` // optional YAML file overriding the values above
	SessionTimezone  string  `envconfig:"RISK_SESSION_TIMEZONE" default:"America/New_York"`
	NoTradeWindow    bool    `envconfig:"RISK_NO_TRADE_WINDOW" default:"true"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// Limits are the process-wide default thresholds, resolved once when a Gate
// is built.
type Limits struct {
	DailyLossLimit   float64 `yaml:"daily_loss_limit"`
	MaxDrawdownLimit float64 `yaml:"max_drawdown_limit"`
	MaxPositions     int     `yaml:"max_positions"`
	MaxExposure      float64 `yaml:"max_exposure"`
}

func DefaultLimits() Limits {
	return Limits{
		DailyLossLimit:   5000,
		MaxDrawdownLimit: 15,
		MaxPositions:     10,
		MaxExposure:      75000,
	}
}

// Limits returns the env limits, overlaid with LimitsFile when one is set.
func (c Config) Limits() (Limits, error) {
	limits := Limits{
		DailyLossLimit:   c.DailyLossLimit,
		MaxDrawdownLimit: c.MaxDrawdownLimit,
		MaxPositions:     c.MaxPositions,
		MaxExposure:      c.MaxExposure,
	}
	if c.LimitsFile == "" {
		return limits, limits.Validate()
	}
	return LoadLimitsFile(c.LimitsFile, limits)
}

// LoadLimitsFile reads a YAML limits file on top of base. Keys missing from
// the file keep the base value.
func LoadLimitsFile(path string, base Limits) (Limits, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Limits{}, fmt.Errorf("read limits file %s: %w", path, err)
	}
	limits := base
	if err := yaml.Unmarshal(raw, &limits); err != nil {
		return Limits{}, fmt.Errorf("parse limits file %s: %w", path, err)
	}
	if err := limits.Validate(); err != nil {
		return Limits{}, fmt.Errorf("limits file %s: %w", path, err)
	}
	return limits, nil
}

func (l Limits) Validate() error {
	switch {
	case l.DailyLossLimit <= 0:
		return fmt.Errorf("daily_loss_limit must be > 0")
	case l.MaxDrawdownLimit <= 0 || l.MaxDrawdownLimit > 100:
		return fmt.Errorf("max_drawdown_limit must be in (0,100]")
	case l.MaxPositions <= 0:
		return fmt.Errorf("max_positions must be > 0")
	case l.MaxExposure <= 0:
		return fmt.Errorf("max_exposure must be > 0")
	}
	return nil
}
