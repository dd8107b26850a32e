package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lox/receipt-matcher/internal/candidates"
	"github.com/lox/receipt-matcher/internal/sources"
	"github.com/lox/receipt-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateIDs(cs []types.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestRemoteQuery(t *testing.T) {
	txDate := day(2024, 3, 10)

	t.Run("default window around transaction date", func(t *testing.T) {
		q := RemoteQuery(Request{Query: types.TransactionQuery{Date: txDate}})
		require.NotNil(t, q.From)
		require.NotNil(t, q.To)
		assert.Equal(t, day(2024, 2, 9), *q.From)
		assert.Equal(t, day(2024, 3, 17), *q.To)
		assert.True(t, q.MustHaveAttachments)
		assert.Equal(t, sources.DefaultLimit, q.Limit)
	})

	t.Run("explicit window wins", func(t *testing.T) {
		q := RemoteQuery(Request{
			Query:  types.TransactionQuery{Date: txDate},
			Window: &types.DateWindow{From: day(2024, 1, 1), To: day(2024, 1, 31)},
			Limit:  5,
		})
		assert.Equal(t, day(2024, 1, 1), *q.From)
		assert.Equal(t, day(2024, 1, 31), *q.To)
		assert.Equal(t, 5, q.Limit)
	})

	t.Run("undated transaction is unbounded", func(t *testing.T) {
		q := RemoteQuery(Request{FreeText: "acme"})
		assert.Nil(t, q.From)
		assert.Nil(t, q.To)
		assert.Equal(t, "acme", q.FreeText)
	})
}

func TestGatherLocalBeforeRemoteInAccountOrder(t *testing.T) {
	slow := sources.SourceFunc(func(ctx context.Context, q sources.Query) ([]types.Message, error) {
		time.Sleep(30 * time.Millisecond)
		return []types.Message{pdfMessage("m1", day(2024, 3, 9), "Slow", pdf("a1"))}, nil
	})
	fast := staticSource(pdfMessage("m1", day(2024, 3, 9), "Fast", pdf("a1"), pdf("a2")))

	o := NewOrchestrator([]sources.Account{account("slow", slow), account("fast", fast)}, testLogger())
	local := []types.LocalItem{
		{ID: "f1", Filename: "one.pdf", ContentType: "application/pdf"},
		{ID: "f2", Filename: "two.png", ContentType: "image/png"},
	}

	got, err := o.Gather(context.Background(), Request{Query: types.TransactionQuery{Date: day(2024, 3, 10)}}, local, nil)
	require.NoError(t, err)
	assert.Empty(t, got.PartialFailures)
	assert.Equal(t, []string{
		"local-f1",
		"local-f2",
		"remote-slow-m1-a1",
		"remote-fast-m1-a1",
		"remote-fast-m1-a2",
	}, candidateIDs(got.Candidates))
}

func TestGatherPartialFailures(t *testing.T) {
	o := NewOrchestrator([]sources.Account{
		account("a", failingSource(errors.New("boom"))),
		account("b", staticSource(pdfMessage("m1", day(2024, 3, 8), "Shop", pdf("x")))),
		account("c", failingSource(errors.New("unauthorised"))),
	}, testLogger())

	local := []types.LocalItem{{ID: "f1", Filename: "r.pdf", ContentType: "application/pdf"}}
	got, err := o.Gather(context.Background(), Request{}, local, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"local-f1", "remote-b-m1-x"}, candidateIDs(got.Candidates))
	require.Len(t, got.PartialFailures, 2)
	assert.Equal(t, "a", got.PartialFailures[0].ID)
	assert.Equal(t, "c", got.PartialFailures[1].ID)
}

func TestGatherRecoversPanickingSource(t *testing.T) {
	panicky := sources.SourceFunc(func(ctx context.Context, q sources.Query) ([]types.Message, error) {
		panic("nil map")
	})
	o := NewOrchestrator([]sources.Account{
		account("bad", panicky),
		account("good", staticSource(pdfMessage("m", time.Time{}, "", pdf("a")))),
	}, testLogger())

	got, err := o.Gather(context.Background(), Request{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"remote-good-m-a"}, candidateIDs(got.Candidates))
	require.Len(t, got.PartialFailures, 1)
	assert.Equal(t, "bad", got.PartialFailures[0].ID)
}

func TestGatherLocalOnlySkipsRemote(t *testing.T) {
	rec := &recordingSource{}
	o := NewOrchestrator([]sources.Account{account("a", rec)}, testLogger())

	got, err := o.Gather(context.Background(), Request{LocalOnly: true},
		[]types.LocalItem{{ID: "f1", ContentType: "application/pdf"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.calls)
	assert.Equal(t, []string{"local-f1"}, candidateIDs(got.Candidates))
}

func TestGatherWindowAppliesToLocalAndRemote(t *testing.T) {
	rec := &recordingSource{}
	o := NewOrchestrator([]sources.Account{account("a", rec)}, testLogger())

	window := &types.DateWindow{From: day(2024, 3, 1), To: day(2024, 3, 31)}
	local := []types.LocalItem{
		{ID: "in", ContentType: "application/pdf", Date: ptr(day(2024, 3, 15))},
		{ID: "out", ContentType: "application/pdf", Date: ptr(day(2024, 4, 2))},
		{ID: "undated", ContentType: "application/pdf"},
	}

	got, err := o.Gather(context.Background(), Request{
		Query:  types.TransactionQuery{Date: day(2024, 3, 10)},
		Window: window,
	}, local, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"local-in", "local-undated"}, candidateIDs(got.Candidates))
	assert.Equal(t, day(2024, 3, 1), *rec.last.From)
	assert.Equal(t, day(2024, 3, 31), *rec.last.To)
}

func TestGatherLocalErrorIsTerminal(t *testing.T) {
	rec := &recordingSource{}
	o := NewOrchestrator([]sources.Account{account("a", rec)}, testLogger())

	_, err := o.Gather(context.Background(), Request{}, []types.LocalItem{{Filename: "no-id.pdf"}}, nil)
	assert.ErrorIs(t, err, candidates.ErrMissingID)
	assert.Equal(t, 0, rec.calls)

	_, err = o.Gather(context.Background(), Request{
		Window: &types.DateWindow{From: day(2024, 3, 2), To: day(2024, 3, 1)},
	}, nil, nil)
	assert.ErrorIs(t, err, candidates.ErrInvalidWindow)
}

func TestGatherDropsStaleAccountResults(t *testing.T) {
	o := NewOrchestrator([]sources.Account{
		account("a", staticSource(pdfMessage("m", time.Time{}, "", pdf("a")))),
		account("b", failingSource(errors.New("boom"))),
	}, testLogger())

	got, err := o.Gather(context.Background(), Request{}, nil, func() bool { return false })
	require.NoError(t, err)
	assert.Empty(t, got.Candidates)
	assert.Empty(t, got.PartialFailures)
}
