package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lox/receipt-matcher/internal/commands"
	"github.com/lox/receipt-matcher/internal/scoreserver"
	"github.com/lox/receipt-matcher/internal/scoring"
)

type CLI struct {
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"info" enum:"debug,info,warn,error"`
	Addr     string `help:"Address to listen on" default:":8090" env:"RECEIPTS_SCORING_ADDR"`
}

func (c *CLI) Run() error {
	logger, err := commands.SetupLogger(c.LogLevel)
	if err != nil {
		return err
	}

	srv := scoreserver.New(scoring.NewLocal(), logger)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("Shutting down scoring server")
		if err := srv.Shutdown(); err != nil {
			logger.Error("Failed to shut down", "error", err)
		}
	}()

	return srv.Listen(c.Addr)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("receipt-score-server"),
		kong.Description("Serve receipt candidate scoring over HTTP"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
