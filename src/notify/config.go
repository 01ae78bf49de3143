package notify

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	WebhookURL string        `envconfig:"ALERT_WEBHOOK_URL"` // empty disables webhook alerts
	Timeout    time.Duration `envconfig:"ALERT_TIMEOUT" default:"5s"`
	MinLevel   string        `envconfig:"ALERT_MIN_LEVEL" default:"WARNING"`
	Source     string        `envconfig:"ALERT_SOURCE" default:"riskengine"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
