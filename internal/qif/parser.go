// Package qif reads bank statements in Quicken Interchange Format and turns their records
// into transaction queries.
package qif

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lox/receipt-matcher/internal/money"
	"github.com/lox/receipt-matcher/internal/types"
)

// DefaultDateFormat is the day-first format most European bank exports use
const DefaultDateFormat = "02/01/2006"

// Transaction represents a single QIF transaction
type Transaction struct {
	Date     string
	Amount   string
	Payee    string
	Category string
	Number   string
	Memo     string
}

// ParseReader reads QIF records from r. Header lines ("!Type:Bank") are ignored and a
// record without a date is dropped.
func ParseReader(r io.Reader) ([]Transaction, error) {
	scanner := bufio.NewScanner(r)

	var transactions []Transaction
	current := Transaction{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '!' {
			continue
		}

		value := strings.TrimSpace(line[1:])
		switch line[0] {
		case '^':
			if current.Date != "" {
				transactions = append(transactions, current)
			}
			current = Transaction{}
		case 'D':
			current.Date = value
		case 'T', 'U':
			if current.Amount == "" {
				current.Amount = value
			}
		case 'P':
			current.Payee = value
		case 'L':
			current.Category = value
		case 'N':
			current.Number = value
		case 'M':
			current.Memo = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read QIF: %w", err)
	}

	if current.Date != "" {
		transactions = append(transactions, current)
	}
	return transactions, nil
}

// ID derives a stable identifier from the record's contents
func (t Transaction) ID() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", t.Date, t.Amount, t.Payee, t.Number)
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// ToQuery converts the record into a transaction query. dateFormat is a Go reference
// layout; an empty amount leaves the query without one.
func (t Transaction) ToQuery(dateFormat string, loc *time.Location, currency string) (types.TransactionQuery, error) {
	if dateFormat == "" {
		dateFormat = DefaultDateFormat
	}
	if loc == nil {
		loc = time.UTC
	}

	date, err := time.ParseInLocation(dateFormat, strings.ReplaceAll(t.Date, "'", "/"), loc)
	if err != nil {
		return types.TransactionQuery{}, fmt.Errorf("invalid date %q: %w", t.Date, err)
	}

	query := types.TransactionQuery{
		ID:               t.ID(),
		Date:             date,
		Currency:         strings.ToUpper(currency),
		CounterpartyName: t.Payee,
	}
	if t.Amount != "" {
		minor, err := money.ParseMinor(t.Amount)
		if err != nil {
			return types.TransactionQuery{}, fmt.Errorf("invalid amount %q: %w", t.Amount, err)
		}
		query.Amount = &minor
	}
	return query, nil
}
