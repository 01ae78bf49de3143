package audit

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	RedisAddr     string `envconfig:"REDIS_ADDR"` // empty disables the redis mirror
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	Key           string `envconfig:"AUDIT_KEY" default:"riskengine:risk_events"`
	MaxEvents     int64  `envconfig:"AUDIT_MAX_EVENTS" default:"1000"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
