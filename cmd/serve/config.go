package serve

import (
	"riskengine/src/audit"
	"riskengine/src/executors"
	"riskengine/src/notify"
	"riskengine/src/risk"
	"riskengine/src/server"
	"riskengine/src/telemetry"
)

// Config gathers the per-package configs the service is assembled from.
type Config struct {
	Risk      risk.Config
	Audit     audit.Config
	Notify    notify.Config
	Telemetry telemetry.Config
	Server    *server.Config
	Sync      executors.Config
}

func GetConfig() *Config {
	return &Config{
		Risk:      risk.GetConfig(),
		Audit:     audit.GetConfig(),
		Notify:    notify.GetConfig(),
		Telemetry: telemetry.GetConfig(),
		Server:    server.GetConfig(),
		Sync:      executors.GetConfig(),
	}
}
