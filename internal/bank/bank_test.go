package bank

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statement = `!Type:Bank
D14/03/2025
T-49.99
PAcme GmbH
^
D15/03/2025
T1,200.00
PSalary
^
`

func TestGenericParseStatement(t *testing.T) {
	queries, err := NewGeneric("02/01/2006", "eur").ParseStatement(context.Background(), strings.NewReader(statement), time.UTC)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), queries[0].Date)
	require.NotNil(t, queries[0].Amount)
	assert.Equal(t, int64(-4999), *queries[0].Amount)
	assert.Equal(t, "EUR", queries[0].Currency)
	assert.Equal(t, "Acme GmbH", queries[0].CounterpartyName)
	assert.NotEmpty(t, queries[0].ID)

	assert.Equal(t, int64(120000), *queries[1].Amount)
}

func TestGenericPayeeAndNegate(t *testing.T) {
	g := &Generic{
		DateFormat: "02/01/2006",
		Currency:   "AUD",
		Payee:      strings.ToUpper,
		Negate:     true,
	}
	queries, err := g.ParseStatement(context.Background(), strings.NewReader(statement), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "ACME GMBH", queries[0].CounterpartyName)
	assert.Equal(t, int64(4999), *queries[0].Amount)
	assert.Equal(t, int64(-120000), *queries[1].Amount)
}

func TestGenericInvalidDate(t *testing.T) {
	_, err := NewGeneric("2006-01-02", "EUR").ParseStatement(context.Background(), strings.NewReader(statement), time.UTC)
	assert.ErrorContains(t, err, "transaction 1")
}

func TestGenericCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGeneric("02/01/2006", "EUR").ParseStatement(ctx, strings.NewReader(statement), time.UTC)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&Generic{})

	b, ok := r.Get("Generic")
	require.True(t, ok)
	assert.Equal(t, "generic", b.Name())

	_, ok = r.Get("unknown")
	assert.False(t, ok)
	assert.Equal(t, []string{"generic"}, r.List())
}
