// Package mcp exposes receipt search over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/receipt-matcher/internal/money"
	"github.com/lox/receipt-matcher/internal/search"
	"github.com/lox/receipt-matcher/internal/types"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const defaultLimit = 10

// Searcher runs receipt searches
type Searcher interface {
	Search(ctx context.Context, query types.TransactionQuery, local []types.LocalItem, opts ...search.SearchOption) (*types.SearchResults, error)
	Accounts() []types.AccountRef
}

// LocalLoader returns the local documents a search should consider
type LocalLoader func(ctx context.Context) ([]types.LocalItem, error)

type Server struct {
	engine   Searcher
	local    LocalLoader
	location *time.Location
	logger   *log.Logger
}

func New(engine Searcher, local LocalLoader, location *time.Location, logger *log.Logger) *Server {
	return &Server{
		engine:   engine,
		local:    local,
		location: location,
		logger:   logger,
	}
}

// MCPServer builds the protocol server with all tools registered
func (s *Server) MCPServer() *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"Receipt Matcher",
		"1.0.0",
	)

	mcpServer.AddTool(mcp.NewTool("find_receipts",
		mcp.WithDescription("Find receipts and invoices that support a bank transaction, ranked by how well they match"),
		mcp.WithString("date",
			mcp.Description("Transaction date (YYYY-MM-DD)"),
		),
		mcp.WithString("amount",
			mcp.Description("Transaction amount as a decimal, e.g. -49.99"),
		),
		mcp.WithString("currency",
			mcp.Description("ISO currency code of the amount, e.g. EUR"),
		),
		mcp.WithString("counterparty",
			mcp.Description("Name of the merchant or partner"),
		),
		mcp.WithString("free_text",
			mcp.Description("Additional words to match against filenames and mail subjects"),
		),
		mcp.WithBoolean("local_only",
			mcp.Description("Only search documents already imported locally"),
		),
		mcp.WithString("limit",
			mcp.Description("Maximum number of results to return (default: 10)"),
		),
	), s.findReceiptsHandler)

	mcpServer.AddTool(mcp.NewTool("list_accounts",
		mcp.WithDescription("List the connected mailbox accounts that are searched for receipts"),
	), s.listAccountsHandler)

	return mcpServer
}

// Run serves the tools over stdio until the client disconnects
func (s *Server) Run() error {
	return server.ServeStdio(s.MCPServer())
}

func (s *Server) findReceiptsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := s.parseQuery(request.Params.Arguments)
	if err != nil {
		return nil, err
	}

	limit, err := intArgument(request.Params.Arguments, "limit", defaultLimit)
	if err != nil {
		return nil, err
	}

	opts := []search.SearchOption{search.WithLimit(limit)}
	if text, _ := request.Params.Arguments["free_text"].(string); text != "" {
		opts = append(opts, search.WithFreeText(text))
	}
	if localOnly, _ := request.Params.Arguments["local_only"].(bool); localOnly {
		opts = append(opts, search.LocalOnly())
	}

	local, err := s.local(ctx)
	if err != nil {
		return nil, err
	}

	results, err := s.engine.Search(ctx, query, local, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to find receipts: %w", err)
	}
	if results == nil {
		s.logger.Debug("Discarded superseded find_receipts")
		return mcp.NewToolResultText("Search was superseded by a newer request; no results.\n"), nil
	}

	s.logger.Debug("Answered find_receipts", "results", len(results.Results), "total", results.TotalCount)
	return mcp.NewToolResultText(FormatResults(results)), nil
}

func (s *Server) listAccountsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accounts := s.engine.Accounts()

	var result strings.Builder
	fmt.Fprintf(&result, "Connected accounts: %d\n\n", len(accounts))
	for _, a := range accounts {
		fmt.Fprintf(&result, "%-20s %-10s %s\n", a.ID, a.Provider, a.Email)
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) parseQuery(args map[string]interface{}) (types.TransactionQuery, error) {
	var query types.TransactionQuery

	if date, _ := args["date"].(string); date != "" {
		t, err := time.ParseInLocation(time.DateOnly, date, s.location)
		if err != nil {
			return query, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
		query.Date = t
	}

	switch v := args["amount"].(type) {
	case nil:
	case string:
		if v != "" {
			minor, err := money.ParseMinor(v)
			if err != nil {
				return query, fmt.Errorf("amount must be a decimal number: %w", err)
			}
			query.Amount = &minor
		}
	case float64:
		minor, err := money.ParseMinor(strconv.FormatFloat(v, 'f', -1, 64))
		if err != nil {
			return query, fmt.Errorf("amount must be a decimal number: %w", err)
		}
		query.Amount = &minor
	default:
		return query, errors.New("amount must be a number or string")
	}

	currency, _ := args["currency"].(string)
	query.Currency = strings.ToUpper(strings.TrimSpace(currency))
	counterparty, _ := args["counterparty"].(string)
	query.CounterpartyName = strings.TrimSpace(counterparty)

	return query, nil
}

func intArgument(args map[string]interface{}, name string, fallback int) (int, error) {
	switch v := args[name].(type) {
	case nil:
		return fallback, nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		if v == "" {
			return fallback, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number or string", name)
	}
}

// FormatResults renders ranked results as plain text
func FormatResults(results *types.SearchResults) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d candidates", results.TotalCount)
	if len(results.Results) < results.TotalCount {
		fmt.Fprintf(&b, " (showing %d)", len(results.Results))
	}
	b.WriteString("\n")
	if len(results.PartialFailures) > 0 {
		ids := make([]string, 0, len(results.PartialFailures))
		for _, a := range results.PartialFailures {
			ids = append(ids, a.ID)
		}
		fmt.Fprintf(&b, "Accounts that could not be searched: %s\n", strings.Join(ids, ", "))
	}
	b.WriteString("\n")

	for _, r := range results.Results {
		fmt.Fprintf(&b, "%3d  %s [%s]\n", r.Score, r.Filename, r.Source)
		if r.Date != nil {
			fmt.Fprintf(&b, "  Date: %s\n", r.Date.Format(time.DateOnly))
		}
		if r.Amount != nil {
			fmt.Fprintf(&b, "  Amount: %s\n", money.FormatMinor(*r.Amount, r.Currency))
		}
		if r.Counterparty != "" {
			fmt.Fprintf(&b, "  Counterparty: %s\n", r.Counterparty)
		}
		if r.AccountID != "" {
			fmt.Fprintf(&b, "  Account: %s (message %s)\n", r.AccountID, r.MessageID)
		}
		if r.FileID != "" {
			fmt.Fprintf(&b, "  File: %s\n", r.FileID)
		}
		if len(r.Reasons) > 0 {
			fmt.Fprintf(&b, "  Reasons: %s\n", strings.Join(r.Reasons, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
