package candidates

import (
	"testing"
	"time"

	"github.com/lox/receipt-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMessages(t *testing.T) {
	account := types.AccountRef{ID: "work", Provider: "gmail"}
	ts := time.Date(2024, 3, 8, 9, 30, 0, 0, time.UTC)

	messages := []types.Message{
		{
			ID:            "m1",
			Timestamp:     ts,
			SenderName:    "Acme Billing",
			SenderAddress: "billing@acme.example",
			Subject:       "Your invoice",
			Attachments: []types.Attachment{
				{ID: "a1", Filename: "invoice.pdf", ContentType: "application/pdf", Size: 2048, LikelyReceipt: true, Amount: amount(5100)},
				{ID: "a2", Filename: "logo.gif", ContentType: "image/gif", Size: 100},
				{ID: "a3", Filename: "terms.html", ContentType: "text/html", Size: 300},
			},
		},
		{
			ID:            "m2",
			SenderAddress: "noreply@shop.example",
			Attachments: []types.Attachment{
				{ID: "b1", Filename: "receipt.png", ContentType: "IMAGE/PNG; name=receipt.png"},
			},
		},
	}

	got := FromMessages(account, messages)
	require.Len(t, got, 3)

	first := got[0]
	assert.Equal(t, "remote-work-m1-a1", first.ID)
	assert.Equal(t, types.SourceRemote, first.Source)
	assert.Equal(t, "Acme Billing", first.Counterparty)
	assert.Equal(t, "billing@acme.example", first.SenderEmail)
	require.NotNil(t, first.Date)
	assert.True(t, first.Date.Equal(ts))
	require.NotNil(t, first.Amount)
	assert.Equal(t, int64(5100), *first.Amount)
	assert.True(t, first.LikelyReceipt)
	assert.Equal(t, "work", first.AccountID)
	assert.Equal(t, "m1", first.MessageID)
	assert.Equal(t, "a1", first.AttachmentID)

	assert.Equal(t, "remote-work-m1-a2", got[1].ID)

	last := got[2]
	assert.Equal(t, "remote-work-m2-b1", last.ID)
	assert.Equal(t, "noreply@shop.example", last.Counterparty, "falls back to the sender address")
	assert.Nil(t, last.Date)
}

func TestFromMessagesEmpty(t *testing.T) {
	assert.Empty(t, FromMessages(types.AccountRef{ID: "x"}, nil))
}
