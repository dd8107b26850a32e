package ing

import (
	"context"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/lox/receipt-matcher/internal/bank"
	"github.com/lox/receipt-matcher/internal/types"
)

// ING represents the ING Australia statement format
type ING struct {
	statement *bank.Generic
}

// New creates a new ING bank implementation
func New() *ING {
	return &ING{statement: &bank.Generic{
		DateFormat: "02/01/2006",
		Currency:   "AUD",
		Payee:      CleanPayee,
	}}
}

// Name returns the name of the bank
func (i *ING) Name() string {
	return "ing-australia"
}

// ParseStatement parses an ING QIF export
func (i *ING) ParseStatement(ctx context.Context, r io.Reader, loc *time.Location) ([]types.TransactionQuery, error) {
	return i.statement.ParseStatement(ctx, r, loc)
}

var (
	receiptSuffix  = regexp.MustCompile(`(?i)\s*-?\s*Receipt\s+\d+.*$`)
	purchasePrefix = regexp.MustCompile(`(?i)^(Visa|EFTPOS)\s+Purchase\s*-?\s*`)
)

// CleanPayee strips the card and receipt noise ING adds around the merchant name
func CleanPayee(payee string) string {
	payee = receiptSuffix.ReplaceAllString(payee, "")
	payee = purchasePrefix.ReplaceAllString(payee, "")
	return strings.TrimSpace(payee)
}

// Ensure ING implements the Bank interface
var _ bank.Bank = (*ING)(nil)
