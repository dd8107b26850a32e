package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lox/receipt-matcher/internal/types"
	"golang.org/x/time/rate"
)

// DefaultLimit is the number of messages requested per account when none is configured
const DefaultLimit = 50

// Query is what the engine asks a mailbox account for
type Query struct {
	FreeText            string
	From                *time.Time
	To                  *time.Time
	MustHaveAttachments bool
	Limit               int
}

// Source queries one connected mailbox account
type Source interface {
	// QuerySource returns the messages matching the query, or an error
	QuerySource(ctx context.Context, q Query) ([]types.Message, error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc func(ctx context.Context, q Query) ([]types.Message, error)

func (f SourceFunc) QuerySource(ctx context.Context, q Query) ([]types.Message, error) {
	return f(ctx, q)
}

// Account pairs an account reference with the client that queries it
type Account struct {
	Ref    types.AccountRef
	Source Source
}

// WithTimeout bounds every query of src by d
func WithTimeout(src Source, d time.Duration) Source {
	if d <= 0 {
		return src
	}
	return SourceFunc(func(ctx context.Context, q Query) ([]types.Message, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		msgs, err := src.QuerySource(ctx, q)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("query timed out after %s: %w", d, err)
		}
		return msgs, err
	})
}

// WithRateLimit waits on limiter before every query of src
func WithRateLimit(src Source, limiter *rate.Limiter) Source {
	if limiter == nil {
		return src
	}
	return SourceFunc(func(ctx context.Context, q Query) ([]types.Message, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		return src.QuerySource(ctx, q)
	})
}
