package search

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/receipt-matcher/internal/candidates"
	"github.com/lox/receipt-matcher/internal/sources"
	"github.com/lox/receipt-matcher/internal/types"
	"golang.org/x/sync/errgroup"
)

// Request is one fan-out over the local collection and the remote accounts
type Request struct {
	Query     types.TransactionQuery
	FreeText  string
	Window    *types.DateWindow
	LocalOnly bool
	// Limit is the number of messages requested from each account
	Limit int
}

// Gathered holds the flattened candidates of a fan-out, local candidates first
type Gathered struct {
	Candidates      []types.Candidate
	PartialFailures []types.AccountRef
}

// Orchestrator queries every account in parallel and joins the results
type Orchestrator struct {
	accounts []sources.Account
	logger   *log.Logger
}

func NewOrchestrator(accounts []sources.Account, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		accounts: accounts,
		logger:   logger,
	}
}

// Accounts returns the accounts in configured order
func (o *Orchestrator) Accounts() []sources.Account {
	return o.accounts
}

type accountResult struct {
	candidates []types.Candidate
	failed     bool
	stale      bool
}

// Gather filters the local items and queries the remote accounts. A failing account
// contributes no candidates and is reported in PartialFailures; only a local filtering
// error fails the whole call. Each account result is dropped once current reports false.
func (o *Orchestrator) Gather(ctx context.Context, req Request, local []types.LocalItem, current func() bool) (Gathered, error) {
	localCandidates, err := candidates.FilterLocal(local, req.Window, req.FreeText)
	if err != nil {
		return Gathered{}, fmt.Errorf("failed to filter local items: %w", err)
	}

	gathered := Gathered{Candidates: localCandidates}
	if req.LocalOnly || len(o.accounts) == 0 {
		return gathered, nil
	}

	q := RemoteQuery(req)
	results := make([]accountResult, len(o.accounts))

	var g errgroup.Group
	for i, account := range o.accounts {
		g.Go(func() error {
			results[i] = o.queryAccount(ctx, account, q, current)
			return nil
		})
	}
	_ = g.Wait()

	for i, result := range results {
		switch {
		case result.stale:
			continue
		case result.failed:
			gathered.PartialFailures = append(gathered.PartialFailures, o.accounts[i].Ref)
		default:
			gathered.Candidates = append(gathered.Candidates, result.candidates...)
		}
	}
	return gathered, nil
}

func (o *Orchestrator) queryAccount(ctx context.Context, account sources.Account, q sources.Query, current func() bool) (result accountResult) {
	startTime := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("Account query panicked", "account", account.Ref.ID, "error", r)
			result = accountResult{failed: true}
		}
	}()

	msgs, err := account.Source.QuerySource(ctx, q)
	if current != nil && !current() {
		o.logger.Debug("Discarding stale account result", "account", account.Ref.ID)
		return accountResult{stale: true}
	}
	if err != nil {
		o.logger.Warn("Account query failed",
			"account", account.Ref.ID,
			"error", err,
			"duration", time.Since(startTime))
		return accountResult{failed: true}
	}

	found := candidates.FromMessages(account.Ref, msgs)
	o.logger.Debug("Account query completed",
		"account", account.Ref.ID,
		"messages", len(msgs),
		"candidates", len(found),
		"duration", time.Since(startTime))
	return accountResult{candidates: found}
}

// RemoteQuery builds the mailbox query for a request. An explicit window wins; otherwise
// a dated transaction gets the default window and an undated one is left unbounded.
func RemoteQuery(req Request) sources.Query {
	q := sources.Query{
		FreeText:            req.FreeText,
		MustHaveAttachments: true,
		Limit:               req.Limit,
	}
	if q.Limit <= 0 {
		q.Limit = sources.DefaultLimit
	}

	var window *types.DateWindow
	switch {
	case req.Window != nil:
		window = req.Window
	case req.Query.HasDate():
		w := types.DefaultWindow(req.Query.Date)
		window = &w
	}
	if window != nil {
		from, to := window.From, window.To
		q.From = &from
		q.To = &to
	}
	return q
}
