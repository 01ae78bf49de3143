package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"riskengine/cmd/serve"
	"riskengine/src/database"
)

var APP_NAME = os.Getenv("APP_NAME")

func SetupLogger(cfg database.Config) {
	level, err := logger.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = logger.DebugLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		logger.SetFormatter(&logger.JSONFormatter{})
		return
	}
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger(database.GetConfig())
	defer handlePanic()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	s := &serve.Serve{
		Log: logger.WithField("app", APP_NAME),
		DB:  database.MainDB,
	}
	if err := s.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start risk API")
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
