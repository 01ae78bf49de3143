package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"riskengine/cmd/mark"
	"riskengine/cmd/report"
	"riskengine/cmd/serve"
	"riskengine/src/database"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "riskengine"
	app.Usage = "FX risk gate and trade analytics"
	app.Version = Version

	app.Commands = []cli.Command{
		serveCMD,
		reportCMD,
		markCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the risk API",
		Action:      serveAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Serve the risk gate and performance reports over HTTP`,
	}
	reportCMD = cli.Command{
		Name:      "report",
		Usage:     "print the performance report of an account",
		Action:    reportAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.UintFlag{Name: "account", Usage: "account id"},
			cli.DurationFlag{Name: "lookback", Usage: "only trades exited within this window, e.g. 720h (default: all)"},
			cli.BoolFlag{Name: "persist", Usage: "store the reconstructed trades"},
			cli.BoolFlag{Name: "stored", Usage: "report on the stored trades instead of rebuilding them"},
		},
		Description: `Rebuild trades from fills and print metrics, daily series and per-strategy breakdown`,
	}
	markCMD = cli.Command{
		Name:      "mark",
		Usage:     "mark open positions of a symbol to a price",
		Action:    markAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "symbol", Usage: "instrument, e.g. EURUSD"},
			cli.Float64Flag{Name: "price", Usage: "current price"},
		},
		Description: `Update the current price exposure is measured at`,
	}
)

func initDB() {
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
}

func serveAction(_ *cli.Context) error {
	logrus.Info("Starting serve CMD")
	initDB()

	s := &serve.Serve{
		Log: logrus.WithField("cmd", "serve"),
		DB:  database.MainDB,
	}
	if err := s.Start(); err != nil {
		logrus.WithError(err).Error("Starting serve cmd")
		return err
	}
	return nil
}

func reportAction(c *cli.Context) error {
	initDB()

	r := &report.Report{
		Log:       logrus.WithField("cmd", "report"),
		DB:        database.MainDB,
		AccountID: c.Uint("account"),
		Lookback:  c.Duration("lookback"),
		Persist:   c.Bool("persist"),
		Stored:    c.Bool("stored"),
	}
	if err := r.Start(context.Background()); err != nil {
		logrus.WithError(err).Error("Starting report cmd")
		return err
	}
	return nil
}

func markAction(c *cli.Context) error {
	initDB()

	m := &mark.Mark{
		Log:    logrus.WithField("cmd", "mark"),
		DB:     database.MainDB,
		Symbol: c.String("symbol"),
		Price:  c.Float64("price"),
	}
	if _, err := m.Start(context.Background()); err != nil {
		logrus.WithError(err).Error("Starting mark cmd")
		return err
	}
	return nil
}
