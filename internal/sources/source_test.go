package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lox/receipt-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestWithTimeout(t *testing.T) {
	slow := SourceFunc(func(ctx context.Context, q Query) ([]types.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := WithTimeout(slow, 20*time.Millisecond).QuerySource(context.Background(), Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")

	fast := SourceFunc(func(ctx context.Context, q Query) ([]types.Message, error) {
		return []types.Message{{ID: "m1"}}, nil
	})
	msgs, err := WithTimeout(fast, time.Second).QuerySource(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

}

func TestWithTimeoutPassesThroughErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := SourceFunc(func(ctx context.Context, q Query) ([]types.Message, error) {
		return nil, boom
	})
	_, err := WithTimeout(failing, time.Second).QuerySource(context.Background(), Query{})
	assert.Equal(t, boom, err)
}

func TestWithRateLimit(t *testing.T) {
	var calls int
	src := SourceFunc(func(ctx context.Context, q Query) ([]types.Message, error) {
		calls++
		return nil, nil
	})

	// No tokens: the first wait cannot be satisfied before the context deadline
	limited := WithRateLimit(src, rate.NewLimiter(rate.Every(time.Hour), 1))
	_, err := limited.QuerySource(context.Background(), Query{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = limited.QuerySource(ctx, Query{})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	noop := SourceFunc(func(ctx context.Context, q Query) ([]types.Message, error) { return nil, nil })

	require.NoError(t, r.Register(types.AccountRef{ID: "b"}, noop))
	require.NoError(t, r.Register(types.AccountRef{ID: "a"}, noop))
	assert.Error(t, r.Register(types.AccountRef{ID: "a"}, noop))
	assert.Error(t, r.Register(types.AccountRef{}, noop))
	assert.Error(t, r.Register(types.AccountRef{ID: "c"}, nil))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []types.AccountRef{{ID: "b"}, {ID: "a"}}, r.List())

	acc, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", acc.Ref.ID)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}
