package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lox/receipt-matcher/internal/bank"
	"github.com/lox/receipt-matcher/internal/commands"
	"github.com/lox/receipt-matcher/internal/config"
	"github.com/lox/receipt-matcher/internal/money"
	"github.com/lox/receipt-matcher/internal/search"
	"github.com/lox/receipt-matcher/internal/sources"
	"github.com/lox/receipt-matcher/internal/types"
)

type CLI struct {
	commands.CommonConfig
	commands.ScoringConfig

	Date          string   `help:"Transaction date (YYYY-MM-DD)"`
	Amount        string   `help:"Transaction amount, e.g. -49.99"`
	Currency      string   `help:"Currency of the amount" default:"EUR"`
	Counterparty  string   `help:"Name of the merchant or partner"`
	Partner       string   `help:"Partner id from the config file to bias scoring"`
	QIF           string   `name:"qif" help:"Search for every transaction in a QIF file" type:"existingfile"`
	QIFDateFormat string   `name:"qif-date-format" help:"Go time layout of QIF dates" default:"02/01/2006"`
	Bank          string   `help:"Statement format of the QIF file (ing-australia, amex); uses --qif-date-format and --currency when empty"`
	Text          string   `help:"Free text to match against filenames and mail subjects"`
	From          string   `help:"Start of the date window (YYYY-MM-DD)"`
	To            string   `help:"End of the date window (YYYY-MM-DD)"`
	LocalOnly     bool     `help:"Only search documents already imported locally" default:"false"`
	Accounts      []string `help:"Only search these account ids" sep:","`
	Limit         int      `help:"Maximum number of results per transaction" default:"10"`
}

func (c *CLI) Run() error {
	ctx := context.Background()
	logger, loc, database, err := c.Setup()
	if err != nil {
		return err
	}
	defer database.Close()

	queries, err := c.queries(loc)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.ConfigFile)
	if err != nil {
		return err
	}

	registry := sources.NewRegistry()
	if !c.LocalOnly {
		registry, err = commands.SetupAccounts(ctx, cfg.Accounts, commands.GmailSources(loc), logger)
		if err != nil {
			return err
		}
	}

	scorer, err := commands.SetupScorer(c.ScoringConfig, logger)
	if err != nil {
		return err
	}
	engine := commands.SetupEngine(scorer, registry, cfg.PartnerLookup(), logger)

	opts, err := c.searchOptions(cfg, loc)
	if err != nil {
		return err
	}

	local, err := commands.LoadLocalItems(ctx, database)
	if err != nil {
		return err
	}
	logger.Debug("Loaded local documents", "count", len(local))

	for _, q := range queries {
		results, err := engine.Search(ctx, q, local, opts...)
		if err != nil {
			return err
		}
		if results == nil {
			continue
		}
		printResults(results)
	}
	return nil
}

// statementQueries reads one query per transaction of the QIF file
func (c *CLI) statementQueries(loc *time.Location) ([]types.TransactionQuery, error) {
	var statement bank.Bank = bank.NewGeneric(c.QIFDateFormat, c.Currency)
	if c.Bank != "" {
		banks := commands.SetupBanks()
		b, ok := banks.Get(c.Bank)
		if !ok {
			return nil, fmt.Errorf("unknown bank %q (known: %s)", c.Bank, strings.Join(banks.List(), ", "))
		}
		statement = b
	}

	f, err := os.Open(c.QIF)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	queries, err := statement.ParseStatement(context.Background(), f, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse QIF file: %w", err)
	}
	return queries, nil
}

// queries builds one query from the flags, or one per transaction of the QIF file
func (c *CLI) queries(loc *time.Location) ([]types.TransactionQuery, error) {
	if c.QIF != "" {
		return c.statementQueries(loc)
	}

	q := types.TransactionQuery{
		Currency:         strings.ToUpper(c.Currency),
		CounterpartyName: c.Counterparty,
		CounterpartyID:   c.Partner,
	}
	if c.Date != "" {
		date, err := time.ParseInLocation(time.DateOnly, c.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid --date: %w", err)
		}
		q.Date = date
	}
	if c.Amount != "" {
		amount, err := money.ParseMinor(c.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid --amount: %w", err)
		}
		q.Amount = &amount
	}
	if q.Date.IsZero() && q.Amount == nil && q.CounterpartyName == "" && c.Text == "" {
		return nil, fmt.Errorf("one of --date, --amount, --counterparty, --text or --qif is required")
	}
	return []types.TransactionQuery{q}, nil
}

func (c *CLI) searchOptions(cfg *config.File, loc *time.Location) ([]search.SearchOption, error) {
	opts := []search.SearchOption{search.WithLimit(c.Limit)}
	if c.Text != "" {
		opts = append(opts, search.WithFreeText(c.Text))
	}
	if c.LocalOnly {
		opts = append(opts, search.LocalOnly())
	}
	if len(c.Accounts) > 0 {
		opts = append(opts, search.WithAccounts(c.Accounts...))
	}
	if c.Partner != "" {
		partner := cfg.PartnerLookup().Get(c.Partner)
		if partner == nil {
			return nil, fmt.Errorf("unknown partner %q", c.Partner)
		}
		opts = append(opts, search.WithPartner(partner))
	}

	if c.From != "" || c.To != "" {
		if c.From == "" || c.To == "" {
			return nil, fmt.Errorf("--from and --to must be given together")
		}
		from, err := time.ParseInLocation(time.DateOnly, c.From, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid --from: %w", err)
		}
		to, err := time.ParseInLocation(time.DateOnly, c.To, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid --to: %w", err)
		}
		opts = append(opts, search.WithDateWindow(from, to))
	}
	return opts, nil
}

// printResults prints one ranking
func printResults(results *types.SearchResults) {
	q := results.Query
	fmt.Printf("==== %s", describeQuery(q))
	fmt.Printf(" (%d candidates in %s) ====\n\n", results.TotalCount, results.Duration.Round(time.Millisecond))

	if len(results.PartialFailures) > 0 {
		ids := make([]string, 0, len(results.PartialFailures))
		for _, a := range results.PartialFailures {
			ids = append(ids, a.ID)
		}
		fmt.Printf("Accounts that could not be searched: %s\n\n", strings.Join(ids, ", "))
	}

	if len(results.Results) == 0 {
		fmt.Println("No candidates found")
		fmt.Println()
		return
	}

	for _, r := range results.Results {
		fmt.Printf("%3d  %s [%s]\n", r.Score, r.Filename, r.Source)
		if r.Date != nil {
			fmt.Printf("  Date: %s\n", r.Date.Format(time.DateOnly))
		}
		if r.Amount != nil {
			fmt.Printf("  Amount: %s\n", money.FormatMinor(*r.Amount, r.Currency))
		}
		if r.Counterparty != "" {
			fmt.Printf("  Counterparty: %s\n", r.Counterparty)
		}
		if r.AccountID != "" {
			fmt.Printf("  Account: %s (message %s, attachment %s)\n", r.AccountID, r.MessageID, r.AttachmentID)
		}
		if r.FileID != "" {
			fmt.Printf("  File: %s\n", r.FileID)
		}
		if len(r.Reasons) > 0 {
			fmt.Printf("  Reasons: %s\n", strings.Join(r.Reasons, ", "))
		}
		fmt.Println()
	}
}

func describeQuery(q types.TransactionQuery) string {
	var parts []string
	if q.HasDate() {
		parts = append(parts, q.Date.Format(time.DateOnly))
	}
	if q.Amount != nil {
		parts = append(parts, money.FormatMinor(*q.Amount, q.Currency))
	}
	if q.CounterpartyName != "" {
		parts = append(parts, q.CounterpartyName)
	}
	if len(parts) == 0 {
		return "free text search"
	}
	return strings.Join(parts, " - ")
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("receipt-search"),
		kong.Description("Find receipts and invoices that support bank transactions"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
