package amex

import (
	"context"
	"io"
	"time"

	"github.com/lox/receipt-matcher/internal/bank"
	"github.com/lox/receipt-matcher/internal/types"
)

// Amex represents the American Express statement format
type Amex struct {
	statement *bank.Generic
}

// New creates a new Amex bank implementation. Amex exports charges as positive amounts,
// so they are negated to read like bank debits.
func New() *Amex {
	return &Amex{statement: &bank.Generic{
		DateFormat: "02/01/2006",
		Currency:   "AUD",
		Negate:     true,
	}}
}

// Name returns the name of the bank
func (a *Amex) Name() string {
	return "amex"
}

// ParseStatement parses an Amex QIF export
func (a *Amex) ParseStatement(ctx context.Context, r io.Reader, loc *time.Location) ([]types.TransactionQuery, error) {
	return a.statement.ParseStatement(ctx, r, loc)
}

// Ensure Amex implements the Bank interface
var _ bank.Bank = (*Amex)(nil)
