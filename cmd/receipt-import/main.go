package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lox/receipt-matcher/internal/commands"
	"github.com/lox/receipt-matcher/internal/importer"
	"github.com/lox/receipt-matcher/internal/money"
)

type CLI struct {
	commands.CommonConfig
	commands.AgentConfig

	Dir         string `help:"Directory of documents to import" required:"" type:"existingdir"`
	Concurrency int    `help:"Number of documents to process in parallel" default:"4"`
	Limit       int    `help:"Maximum number of new documents to import (0 for all)" default:"0"`
	DryRun      bool   `help:"Scan and extract without storing anything" default:"false"`
	NoExtract   bool   `help:"Skip LLM metadata extraction" default:"false"`
	NoProgress  bool   `help:"Disable the progress bar" default:"false"`
	Verbose     bool   `help:"Print every imported document" default:"false"`
}

func (c *CLI) Run() error {
	ctx := context.Background()
	logger, _, database, err := c.Setup()
	if err != nil {
		return err
	}
	defer database.Close()

	var extractor importer.Extractor
	if !c.NoExtract {
		if a := commands.SetupAgent(c.AgentConfig, logger); a != nil {
			extractor = a
			logger.Info("Extracting metadata", "model", a.Model())
		} else {
			logger.Warn("No OpenRouter API key set, recording file metadata only")
		}
	}

	startTime := time.Now()
	result, err := importer.New(database, extractor, logger).ImportDir(ctx, importer.Config{
		Dir:         c.Dir,
		Concurrency: c.Concurrency,
		Progress:    !c.NoProgress,
		DryRun:      c.DryRun,
		Extract:     extractor != nil,
		Limit:       c.Limit,
	})
	if err != nil {
		return err
	}

	if c.Verbose {
		for _, doc := range result.Imported {
			fmt.Printf("%s  %s (%s)\n", doc.ID, doc.SourcePath, doc.ContentType)
			if doc.Date != nil {
				fmt.Printf("  Date: %s\n", doc.Date.Format(time.DateOnly))
			}
			if doc.Amount != nil {
				fmt.Printf("  Amount: %s\n", money.FormatMinor(*doc.Amount, doc.Currency))
			}
			if doc.Counterparty != "" {
				fmt.Printf("  Counterparty: %s\n", doc.Counterparty)
			}
			if doc.NotReceipt {
				fmt.Println("  Not a receipt")
			}
		}
		fmt.Println()
	}

	total, err := database.Count(ctx)
	if err != nil {
		return err
	}

	verb := "Imported"
	if c.DryRun {
		verb = "Would import"
	}
	fmt.Printf("%s %d documents, skipped %d already stored (%d extraction errors) in %s\n",
		verb, len(result.Imported), result.Skipped, result.ExtractionErrors, time.Since(startTime).Round(time.Millisecond))
	fmt.Printf("Local store now holds %d documents\n", total)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("receipt-import"),
		kong.Description("Import a directory of receipts and invoices into the local store"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
