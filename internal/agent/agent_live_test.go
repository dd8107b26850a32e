//go:build live
// +build live

package agent

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractReceipt_Live(t *testing.T) {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		t.Skip("OPENROUTER_API_KEY not set; skipping live test")
	}

	logger := log.New(os.Stderr)
	logger.SetLevel(log.DebugLevel)
	a := NewOpenRouterAgent(logger, apiKey, "openai/gpt-4o-mini", 3)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	receipt, err := a.ExtractReceipt(ctx, Document{
		Filename:    "acme-invoice-2024-03.pdf",
		ContentType: "application/pdf",
		Text: `ACME GmbH
Hauptstrasse 1, 10115 Berlin
USt-IdNr.: DE123456789
Rechnung Nr. 2024-0310
Datum: 10.03.2024

1x Widget               42,01 EUR
MwSt 19%                 7,98 EUR
Gesamtbetrag            49,99 EUR`,
	})
	require.NoError(t, err)

	assert.True(t, receipt.IsReceipt)
	require.NotNil(t, receipt.Amount)
	assert.Equal(t, int64(4999), *receipt.Amount)
	assert.Equal(t, "EUR", receipt.Currency)
	require.NotNil(t, receipt.Date)
	assert.Equal(t, "2024-03-10", receipt.Date.Format("2006-01-02"))
	assert.Contains(t, receipt.Counterparty, "ACME")
}
