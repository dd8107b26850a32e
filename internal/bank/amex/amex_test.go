package amex

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatementNegatesCharges(t *testing.T) {
	qif := "!Type:CCard\nD02/04/2025\nT89.00\nPQANTAS AIRWAYS\n^\nD03/04/2025\nT-20.00\nPPAYMENT RECEIVED\n^\n"
	queries, err := New().ParseStatement(context.Background(), strings.NewReader(qif), time.UTC)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), queries[0].Date)
	assert.Equal(t, int64(-8900), *queries[0].Amount)
	assert.Equal(t, "QANTAS AIRWAYS", queries[0].CounterpartyName)
	assert.Equal(t, int64(2000), *queries[1].Amount)
}
