package search

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/receipt-matcher/internal/sources"
	"github.com/lox/receipt-matcher/internal/types"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

// staticSource answers every query with the same messages
func staticSource(msgs ...types.Message) sources.Source {
	return sources.SourceFunc(func(ctx context.Context, q sources.Query) ([]types.Message, error) {
		return msgs, nil
	})
}

// failingSource answers every query with err
func failingSource(err error) sources.Source {
	return sources.SourceFunc(func(ctx context.Context, q sources.Query) ([]types.Message, error) {
		return nil, err
	})
}

// hangingSource blocks until the query context ends
func hangingSource() sources.Source {
	return sources.SourceFunc(func(ctx context.Context, q sources.Query) ([]types.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

// recordingSource captures the last query it received
type recordingSource struct {
	last  sources.Query
	calls int
}

func (r *recordingSource) QuerySource(ctx context.Context, q sources.Query) ([]types.Message, error) {
	r.last = q
	r.calls++
	return nil, nil
}

func pdfMessage(id string, ts time.Time, sender string, atts ...types.Attachment) types.Message {
	return types.Message{
		ID:          id,
		Timestamp:   ts,
		SenderName:  sender,
		Attachments: atts,
	}
}

func pdf(id string) types.Attachment {
	return types.Attachment{ID: id, Filename: id + ".pdf", ContentType: "application/pdf"}
}

func account(id string, src sources.Source) sources.Account {
	return sources.Account{Ref: types.AccountRef{ID: id, Provider: "test"}, Source: src}
}
