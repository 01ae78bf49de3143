package report

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Format string `envconfig:"REPORT_FORMAT" default:"json"` // json or yaml
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
