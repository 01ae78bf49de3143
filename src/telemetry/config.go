package telemetry

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Enabled bool   `envconfig:"TELEMETRY_ENABLED" default:"true"`
	Path    string `envconfig:"TELEMETRY_PATH" default:"/ws"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
