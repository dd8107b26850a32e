package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lox/receipt-matcher/internal/money"
	openai "github.com/sashabaranov/go-openai"
)

const (
	extractToolName = "record_receipt"
	maxPromptText   = 8000
)

// Document is what the model is shown for extraction
type Document struct {
	Filename    string
	ContentType string
	Text        string
}

// Receipt holds the metadata extracted from one document
type Receipt struct {
	IsReceipt    bool
	Date         *time.Time
	Amount       *int64
	Currency     string
	Counterparty string
	TaxID        string
	Website      string
}

// receiptArgs is the JSON shape of the record_receipt tool arguments
type receiptArgs struct {
	IsReceipt    bool   `json:"is_receipt"`
	Date         string `json:"date"`
	Total        string `json:"total"`
	Currency     string `json:"currency"`
	Counterparty string `json:"counterparty"`
	TaxID        string `json:"tax_id"`
	Website      string `json:"website"`
}

var receiptTool = openai.FunctionDefinition{
	Name:        extractToolName,
	Description: "Record the metadata of a receipt or invoice",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_receipt": map[string]any{
				"type":        "boolean",
				"description": "Whether the document is a receipt, invoice or bill",
			},
			"date": map[string]any{
				"type":        "string",
				"description": "Issue or payment date as YYYY-MM-DD, empty if unknown",
			},
			"total": map[string]any{
				"type":        "string",
				"description": "Grand total as a plain decimal number such as 49.99, empty if unknown",
			},
			"currency": map[string]any{
				"type":        "string",
				"description": "3-letter ISO 4217 currency code of the total, empty if unknown",
			},
			"counterparty": map[string]any{
				"type":        "string",
				"description": "Name of the merchant or company that issued the document",
			},
			"tax_id": map[string]any{
				"type":        "string",
				"description": "VAT or tax identification number of the issuer, if printed",
			},
			"website": map[string]any{
				"type":        "string",
				"description": "Website domain of the issuer, if printed",
			},
		},
		"required": []string{"is_receipt", "date", "total", "currency", "counterparty"},
	},
}

// ExtractReceipt asks the model for the receipt metadata of doc
func (a *Agent) ExtractReceipt(ctx context.Context, doc Document) (*Receipt, error) {
	startTime := time.Now()

	text := doc.Text
	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}

	prompt := fmt.Sprintf(`Extract the receipt metadata from this document.

Filename: %s
Content type: %s

Document text:
%s

Rules:
- Use the grand total including tax, not subtotals or line items.
- Dates must be YYYY-MM-DD. Leave fields empty rather than guessing.
- Set is_receipt to false for statements, contracts, photos and anything that does not record a payment.`,
		doc.Filename, doc.ContentType, text)

	result, err := a.Run(ctx, Task{
		System:   "You extract structured metadata from receipts and invoices. You must call the record_receipt function. DO NOT explain your reasoning.",
		Prompt:   prompt,
		Tool:     receiptTool,
		Validate: ParseReceipt,
	})
	if err != nil {
		return nil, err
	}
	receipt := result.(*Receipt)

	a.logger.Debug("Extracted receipt metadata",
		"filename", doc.Filename,
		"is_receipt", receipt.IsReceipt,
		"counterparty", receipt.Counterparty,
		"duration", time.Since(startTime))

	return receipt, nil
}

// ParseReceipt validates record_receipt arguments
func ParseReceipt(arguments string) (any, error) {
	var args receiptArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, fmt.Errorf("invalid JSON in tool call arguments: %w", err)
	}

	receipt := &Receipt{
		IsReceipt:    args.IsReceipt,
		Counterparty: strings.TrimSpace(args.Counterparty),
		TaxID:        strings.TrimSpace(args.TaxID),
		Website:      strings.TrimSpace(args.Website),
	}

	var invalids []string
	if date := strings.TrimSpace(args.Date); date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			invalids = append(invalids, fmt.Sprintf("date='%s' (want YYYY-MM-DD)", args.Date))
		} else {
			receipt.Date = &parsed
		}
	}
	if total := strings.TrimSpace(args.Total); total != "" {
		minor, err := money.ParseMinor(total)
		if err != nil {
			invalids = append(invalids, fmt.Sprintf("total='%s' (want a decimal number)", args.Total))
		} else {
			receipt.Amount = &minor
		}
	}
	if currency := strings.ToUpper(strings.TrimSpace(args.Currency)); currency != "" {
		if !isCurrencyCode(currency) {
			invalids = append(invalids, fmt.Sprintf("currency='%s' (want a 3-letter code)", args.Currency))
		} else {
			receipt.Currency = currency
		}
	}

	if len(invalids) > 0 {
		return nil, fmt.Errorf("invalid %s", strings.Join(invalids, ", "))
	}
	return receipt, nil
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
