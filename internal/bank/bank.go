// Package bank knows how individual banks export statements, so their QIF files can be
// turned into transaction queries.
package bank

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/lox/receipt-matcher/internal/qif"
	"github.com/lox/receipt-matcher/internal/types"
)

// Bank converts a bank's QIF export into transaction queries
type Bank interface {
	// Name returns the name of the bank
	Name() string

	// ParseStatement parses a QIF statement, interpreting dates in loc
	ParseStatement(ctx context.Context, r io.Reader, loc *time.Location) ([]types.TransactionQuery, error)
}

// Registry maintains a list of available bank implementations
type Registry struct {
	banks map[string]Bank
}

// NewRegistry creates a new bank registry
func NewRegistry() *Registry {
	return &Registry{
		banks: make(map[string]Bank),
	}
}

// Register adds a bank implementation to the registry
func (r *Registry) Register(b Bank) {
	r.banks[b.Name()] = b
}

// Get returns a bank implementation by name
func (r *Registry) Get(name string) (Bank, bool) {
	b, ok := r.banks[strings.ToLower(name)]
	return b, ok
}

// List returns the registered bank names in alphabetical order
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.banks))
	for name := range r.banks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generic reads a QIF export with a configurable date layout and currency
type Generic struct {
	DateFormat string
	Currency   string
	// Payee, when set, rewrites each payee before it becomes the query counterparty
	Payee func(string) string
	// Negate flips the sign of every amount
	Negate bool
}

// NewGeneric creates a statement reader for banks without special handling
func NewGeneric(dateFormat, currency string) *Generic {
	return &Generic{DateFormat: dateFormat, Currency: currency}
}

func (g *Generic) Name() string {
	return "generic"
}

func (g *Generic) ParseStatement(ctx context.Context, r io.Reader, loc *time.Location) ([]types.TransactionQuery, error) {
	transactions, err := qif.ParseReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement: %w", err)
	}

	queries := make([]types.TransactionQuery, 0, len(transactions))
	for idx, t := range transactions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, err := t.ToQuery(g.DateFormat, loc, g.Currency)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", idx+1, err)
		}
		if g.Payee != nil {
			q.CounterpartyName = g.Payee(q.CounterpartyName)
		}
		if g.Negate && q.Amount != nil {
			negated := -*q.Amount
			q.Amount = &negated
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// Ensure Generic implements the Bank interface
var _ Bank = (*Generic)(nil)
