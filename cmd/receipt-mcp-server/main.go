package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lox/receipt-matcher/internal/commands"
	"github.com/lox/receipt-matcher/internal/config"
	"github.com/lox/receipt-matcher/internal/mcp"
	"github.com/lox/receipt-matcher/internal/types"
)

type CLI struct {
	commands.CommonConfig
	commands.ScoringConfig
}

func (c *CLI) Run() error {
	ctx := context.Background()
	logger, loc, database, err := c.Setup()
	if err != nil {
		return err
	}
	defer database.Close()

	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return err
	}
	registry, err := commands.SetupAccounts(ctx, cfg.Accounts, commands.GmailSources(loc), logger)
	if err != nil {
		return err
	}
	scorer, err := commands.SetupScorer(c.ScoringConfig, logger)
	if err != nil {
		return err
	}
	engine := commands.SetupEngine(scorer, registry, cfg.PartnerLookup(), logger)

	local := func(ctx context.Context) ([]types.LocalItem, error) {
		return commands.LoadLocalItems(ctx, database)
	}
	return mcp.New(engine, local, loc, logger).Run()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("receipt-mcp-server"),
		kong.Description("Serve receipt search to MCP clients over stdio"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
