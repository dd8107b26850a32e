package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/receipt-matcher/internal/agent"
	"github.com/lox/receipt-matcher/internal/bank"
	"github.com/lox/receipt-matcher/internal/bank/amex"
	"github.com/lox/receipt-matcher/internal/bank/ing"
	"github.com/lox/receipt-matcher/internal/config"
	"github.com/lox/receipt-matcher/internal/db"
	"github.com/lox/receipt-matcher/internal/scoring"
	"github.com/lox/receipt-matcher/internal/search"
	"github.com/lox/receipt-matcher/internal/sources"
	"github.com/lox/receipt-matcher/internal/sources/gmail"
	"github.com/lox/receipt-matcher/internal/types"
	"golang.org/x/time/rate"
)

// SetupLogger creates the stderr logger at the given level
func SetupLogger(level string) (*log.Logger, error) {
	logger := log.New(os.Stderr)
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// Setup initializes the logger, timezone and database shared by the commands
func (c CommonConfig) Setup() (*log.Logger, *time.Location, *db.DB, error) {
	logger, err := SetupLogger(c.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	database, err := db.New(c.DataDir, logger, loc)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return logger, loc, database, nil
}

// SetupScorer returns the HTTP scoring delegate when a URL is configured and the
// in-process scorer otherwise
func SetupScorer(c ScoringConfig, logger *log.Logger) (scoring.Scorer, error) {
	if c.ScoringURL == "" {
		logger.Debug("Scoring candidates in-process")
		return scoring.NewLocal(), nil
	}

	client, err := scoring.NewHTTP(scoring.NewHTTPConfig().
		WithURL(c.ScoringURL).
		WithTimeout(c.ScoringTimeout).
		WithRetryAttempts(c.ScoringRetries).
		WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create scoring client: %w", err)
	}
	logger.Info("Using scoring service", "url", c.ScoringURL)
	return client, nil
}

// SetupAgent returns the extraction agent, or nil when no API key is configured
func SetupAgent(c AgentConfig, logger *log.Logger) *agent.Agent {
	if c.OpenRouterKey == "" {
		return nil
	}
	return agent.NewOpenRouterAgent(logger, c.OpenRouterKey, c.OpenRouterModel, c.AgentAttempts)
}

// SourceFactory creates the client for one configured account
type SourceFactory func(ctx context.Context, account config.Account, logger *log.Logger) (sources.Source, error)

// GmailSources returns the SourceFactory for gmail accounts. Message timestamps are
// converted into loc, the timezone transaction dates are read in.
func GmailSources(loc *time.Location) SourceFactory {
	return func(ctx context.Context, account config.Account, logger *log.Logger) (sources.Source, error) {
		svc, err := gmail.NewService(ctx, account.CredentialsFile, account.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", account.ID, err)
		}
		cfg := gmail.NewConfig(account.Ref()).WithLogger(logger).WithLocation(loc)
		if account.MaxResults > 0 {
			cfg = cfg.WithMaxResults(account.MaxResults)
		}
		src, err := gmail.New(svc, cfg)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

// SetupAccounts builds the account registry in configured order. Each source is wrapped
// with the account's rate limit and timeout.
func SetupAccounts(ctx context.Context, accounts []config.Account, factory SourceFactory, logger *log.Logger) (*sources.Registry, error) {
	registry := sources.NewRegistry()
	for _, account := range accounts {
		src, err := factory(ctx, account, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to set up account %s: %w", account.ID, err)
		}

		if account.RequestsPerSecond > 0 {
			src = sources.WithRateLimit(src, rate.NewLimiter(rate.Limit(account.RequestsPerSecond), 1))
		}
		timeout, err := account.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		src = sources.WithTimeout(src, timeout)

		if err := registry.Register(account.Ref(), src); err != nil {
			return nil, err
		}
		logger.Debug("Registered account", "account", account.ID, "provider", account.Provider, "timeout", timeout)
	}
	return registry, nil
}

// SetupEngine wires the search engine to the configured accounts and partners
func SetupEngine(scorer scoring.Scorer, registry *sources.Registry, partners *config.Partners, logger *log.Logger, opts ...search.EngineOption) *search.Engine {
	if partners != nil {
		opts = append(opts, search.WithPartnerLookup(partners))
	}
	return search.NewEngine(scorer, registry.Accounts(), logger, opts...)
}

// LoadLocalItems materializes the documents that can still be matched
func LoadLocalItems(ctx context.Context, database *db.DB) ([]types.LocalItem, error) {
	items, err := database.ListDocuments(ctx, db.UnlinkedOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to load local documents: %w", err)
	}
	return items, nil
}

// SetupBanks returns the registry of known statement formats
func SetupBanks() *bank.Registry {
	registry := bank.NewRegistry()
	registry.Register(ing.New())
	registry.Register(amex.New())
	return registry
}
