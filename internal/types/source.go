package types

import "time"

// LocalItem is a document from the local store as materialized by the caller
type LocalItem struct {
	ID            string     `json:"id"`
	Filename      string     `json:"filename"`
	ContentType   string     `json:"content_type"`
	Size          int64      `json:"size"`
	TransactionID string     `json:"transaction_id,omitempty"`
	NotReceipt    bool       `json:"not_receipt,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	Amount        *int64     `json:"amount,omitempty"`
	Currency      string     `json:"currency,omitempty"`
	Counterparty  string     `json:"counterparty,omitempty"`
	TaxID         string     `json:"tax_id,omitempty"`
	BankID        string     `json:"bank_id,omitempty"`
	Website       string     `json:"website,omitempty"`
	EmailSubject  string     `json:"email_subject,omitempty"`
	EmailSender   string     `json:"email_sender,omitempty"`
	Text          string     `json:"text,omitempty"`
}

// Linked reports whether the item is already attached to a transaction
func (i LocalItem) Linked() bool {
	return i.TransactionID != ""
}

// AccountRef identifies a connected mailbox account
type AccountRef struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Email    string `json:"email,omitempty"`
}

// Message is a mailbox message returned by a remote source
type Message struct {
	ID            string       `json:"id"`
	Timestamp     time.Time    `json:"timestamp"`
	SenderName    string       `json:"sender_name,omitempty"`
	SenderAddress string       `json:"sender_address,omitempty"`
	Subject       string       `json:"subject,omitempty"`
	Snippet       string       `json:"snippet,omitempty"`
	Attachments   []Attachment `json:"attachments"`
}

// Attachment is a file attached to a Message
type Attachment struct {
	ID            string `json:"id"`
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	Size          int64  `json:"size"`
	LikelyReceipt bool   `json:"likely_receipt"`
	// Amount hint extracted by the source, in minor units
	Amount   *int64 `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
}
