package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Enabled    bool          `envconfig:"TRADE_SYNC_ENABLED" default:"true"`
	LoopPeriod time.Duration `envconfig:"TRADE_SYNC_PERIOD" default:"1m"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
