package gmail

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/lox/receipt-matcher/internal/candidates"
	"github.com/lox/receipt-matcher/internal/money"
	"github.com/lox/receipt-matcher/internal/sources"
	"github.com/lox/receipt-matcher/internal/types"
	"google.golang.org/api/gmail/v1"
)

const searchDateFormat = "2006/01/02"

// BuildQuery renders a Gmail search expression for q. Gmail's before: is exclusive, so the
// upper bound is pushed forward by a day to keep the window inclusive.
func BuildQuery(q sources.Query) string {
	var parts []string
	if q.MustHaveAttachments {
		parts = append(parts, "has:attachment")
	}
	if q.From != nil {
		parts = append(parts, "after:"+q.From.Format(searchDateFormat))
	}
	if q.To != nil {
		parts = append(parts, "before:"+q.To.AddDate(0, 0, 1).Format(searchDateFormat))
	}
	if text := strings.TrimSpace(q.FreeText); text != "" {
		if strings.ContainsAny(text, " \t") && !strings.HasPrefix(text, `"`) {
			text = fmt.Sprintf("%q", text)
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// ToMessage converts a Gmail message fetched in full format. The timestamp is expressed
// in loc so its calendar day matches the one the transaction dates use.
func ToMessage(msg *gmail.Message, loc *time.Location) types.Message {
	if loc == nil {
		loc = time.UTC
	}
	out := types.Message{
		ID:      msg.Id,
		Snippet: msg.Snippet,
	}
	if msg.InternalDate > 0 {
		out.Timestamp = time.UnixMilli(msg.InternalDate).In(loc)
	}
	if msg.Payload == nil {
		return out
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			out.SenderName, out.SenderAddress = parseSender(h.Value)
		case "subject":
			out.Subject = h.Value
		}
	}

	amount, currency, hasAmount := money.Extract(out.Subject)
	if !hasAmount {
		amount, currency, hasAmount = money.Extract(out.Snippet)
	}

	walkParts(msg.Payload, func(part *gmail.MessagePart) {
		if part.Filename == "" || part.Body == nil || part.Body.AttachmentId == "" {
			return
		}
		att := types.Attachment{
			ID:            part.Body.AttachmentId,
			Filename:      part.Filename,
			ContentType:   strings.ToLower(part.MimeType),
			Size:          part.Body.Size,
			LikelyReceipt: candidates.LooksLikeReceipt(part.Filename, out.Subject),
		}
		if hasAmount {
			a := amount
			att.Amount = &a
			att.Currency = currency
		}
		out.Attachments = append(out.Attachments, att)
	})
	return out
}

func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, p := range part.Parts {
		walkParts(p, fn)
	}
}

func parseSender(value string) (name, address string) {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return strings.TrimSpace(value), ""
	}
	return addr.Name, strings.ToLower(addr.Address)
}
