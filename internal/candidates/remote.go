package candidates

import (
	"time"

	"github.com/lox/receipt-matcher/internal/types"
)

// FromMessages explodes mailbox messages into one candidate per attachment, keeping only
// attachments of an accepted content type. Message and attachment order is preserved.
func FromMessages(account types.AccountRef, messages []types.Message) []types.Candidate {
	var out []types.Candidate
	for _, msg := range messages {
		var date *time.Time
		if !msg.Timestamp.IsZero() {
			ts := msg.Timestamp
			date = &ts
		}

		counterparty := msg.SenderName
		if counterparty == "" {
			counterparty = msg.SenderAddress
		}

		for _, att := range msg.Attachments {
			if !AcceptedContentType(att.ContentType) {
				continue
			}
			out = append(out, types.Candidate{
				ID:            types.RemoteCandidateID(account.ID, msg.ID, att.ID),
				Source:        types.SourceRemote,
				Filename:      att.Filename,
				Date:          date,
				Amount:        att.Amount,
				Currency:      att.Currency,
				Counterparty:  counterparty,
				SenderEmail:   msg.SenderAddress,
				ContentType:   att.ContentType,
				Size:          att.Size,
				LikelyReceipt: att.LikelyReceipt,
				AccountID:     account.ID,
				MessageID:     msg.ID,
				AttachmentID:  att.ID,
			})
		}
	}
	return out
}
