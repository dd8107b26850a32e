// Package search runs receipt searches for a transaction across the local store and the
// connected mailbox accounts, and ranks what it finds.
package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/receipt-matcher/internal/scoring"
	"github.com/lox/receipt-matcher/internal/sources"
	"github.com/lox/receipt-matcher/internal/types"
)

// searchOptions defines options for a single search
type searchOptions struct {
	freeText  string
	window    *types.DateWindow
	localOnly bool
	partner   *types.PartnerProfile
	limit     int
	perSource int
	accounts  map[string]bool
}

// SearchOption is a function that modifies searchOptions
type SearchOption func(*searchOptions)

// WithFreeText narrows local candidates to items matching text and passes it to every account
func WithFreeText(text string) SearchOption {
	return func(opts *searchOptions) {
		opts.freeText = text
	}
}

// WithDateWindow sets an explicit window, used for local filtering and remote queries
func WithDateWindow(from, to time.Time) SearchOption {
	return func(opts *searchOptions) {
		opts.window = &types.DateWindow{From: from, To: to}
	}
}

// LocalOnly skips the remote accounts
func LocalOnly() SearchOption {
	return func(opts *searchOptions) {
		opts.localOnly = true
	}
}

// WithPartner sets the partner profile used for scoring, overriding any lookup
func WithPartner(partner *types.PartnerProfile) SearchOption {
	return func(opts *searchOptions) {
		opts.partner = partner
	}
}

// WithLimit caps the number of ranked results returned
func WithLimit(limit int) SearchOption {
	return func(opts *searchOptions) {
		opts.limit = limit
	}
}

// WithSourceLimit sets how many messages are requested from each account
func WithSourceLimit(limit int) SearchOption {
	return func(opts *searchOptions) {
		opts.perSource = limit
	}
}

// WithAccounts restricts the search to the named accounts
func WithAccounts(ids ...string) SearchOption {
	return func(opts *searchOptions) {
		if opts.accounts == nil {
			opts.accounts = make(map[string]bool, len(ids))
		}
		for _, id := range ids {
			opts.accounts[id] = true
		}
	}
}

// PartnerLookup resolves the partner profile for a transaction, or nil when unknown
type PartnerLookup interface {
	LookupPartner(query types.TransactionQuery) *types.PartnerProfile
}

// PartnerLookupFunc adapts a function to the PartnerLookup interface
type PartnerLookupFunc func(query types.TransactionQuery) *types.PartnerProfile

func (f PartnerLookupFunc) LookupPartner(query types.TransactionQuery) *types.PartnerProfile {
	return f(query)
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithPartnerLookup resolves partners for searches that don't set one
func WithPartnerLookup(lookup PartnerLookup) EngineOption {
	return func(e *Engine) {
		e.partners = lookup
	}
}

// WithOnResults registers a callback invoked with every published result set. It runs
// while results are being published and must not start another search.
func WithOnResults(fn func(*types.SearchResults)) EngineOption {
	return func(e *Engine) {
		e.onResults = fn
	}
}

// Engine runs searches. Starting a search supersedes every search still in flight: their
// results are dropped when they arrive.
type Engine struct {
	sequencer    Sequencer
	orchestrator *Orchestrator
	scorer       scoring.Scorer
	partners     PartnerLookup
	onResults    func(*types.SearchResults)
	logger       *log.Logger

	mu     sync.Mutex
	latest *types.SearchResults
}

func NewEngine(scorer scoring.Scorer, accounts []sources.Account, logger *log.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		orchestrator: NewOrchestrator(accounts, logger),
		scorer:       scorer,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search finds and ranks supporting documents for query. local is the caller's already
// loaded local collection. A search superseded before it completes returns nil results
// and a nil error.
func (e *Engine) Search(ctx context.Context, query types.TransactionQuery, local []types.LocalItem, opts ...SearchOption) (*types.SearchResults, error) {
	gen := e.sequencer.Begin()
	startTime := time.Now()

	var options searchOptions
	for _, opt := range opts {
		opt(&options)
	}

	e.logger.Info("Performing receipt search",
		"generation", gen,
		"transaction", query.ID,
		"local_items", len(local),
		"local_only", options.localOnly)

	isCurrent := func() bool { return e.sequencer.IsCurrent(gen) }

	orchestrator := e.orchestrator
	if options.accounts != nil {
		orchestrator = NewOrchestrator(e.selectAccounts(options.accounts), e.logger)
	}

	gathered, err := orchestrator.Gather(ctx, Request{
		Query:     query,
		FreeText:  options.freeText,
		Window:    options.window,
		LocalOnly: options.localOnly,
		Limit:     options.perSource,
	}, local, isCurrent)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if !isCurrent() {
		e.logger.Debug("Discarding stale search after gathering", "generation", gen)
		return nil, nil
	}

	partner := options.partner
	if partner == nil && e.partners != nil {
		partner = e.partners.LookupPartner(query)
	}

	scored, err := e.scorer.Score(ctx, gathered.Candidates, query, partner)
	if err != nil || len(scored) != len(gathered.Candidates) {
		e.logger.Warn("Scoring failed, returning unscored candidates",
			"generation", gen,
			"candidates", len(gathered.Candidates),
			"error", err)
		scored = scoring.Unscored(gathered.Candidates)
	}

	ranked := Assemble(scored)
	total := len(ranked)
	if options.limit > 0 && len(ranked) > options.limit {
		ranked = ranked[:options.limit]
	}

	results := &types.SearchResults{
		Generation:      gen,
		Query:           query,
		Results:         ranked,
		PartialFailures: gathered.PartialFailures,
		TotalCount:      total,
		Limit:           options.limit,
		Duration:        time.Since(startTime),
	}

	if !e.publish(results) {
		e.logger.Debug("Discarding stale search after scoring", "generation", gen)
		return nil, nil
	}

	e.logger.Info("Receipt search completed",
		"generation", gen,
		"results", total,
		"partial_failures", len(gathered.PartialFailures),
		"duration", results.Duration)

	return results, nil
}

// publish stores results as the latest if their generation is still current
func (e *Engine) publish(results *types.SearchResults) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sequencer.IsCurrent(results.Generation) {
		return false
	}
	e.latest = results
	if e.onResults != nil {
		e.onResults(results)
	}
	return true
}

// Latest returns the published results of the current generation, or nil while a newer
// search is still running or before any search completed
func (e *Engine) Latest() *types.SearchResults {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.latest == nil || !e.sequencer.IsCurrent(e.latest.Generation) {
		return nil
	}
	return e.latest
}

// Accounts returns the configured account references in order
func (e *Engine) Accounts() []types.AccountRef {
	accounts := e.orchestrator.Accounts()
	refs := make([]types.AccountRef, len(accounts))
	for i, a := range accounts {
		refs[i] = a.Ref
	}
	return refs
}

func (e *Engine) selectAccounts(ids map[string]bool) []sources.Account {
	var selected []sources.Account
	for _, a := range e.orchestrator.Accounts() {
		if ids[a.Ref.ID] {
			selected = append(selected, a)
		}
	}
	return selected
}
