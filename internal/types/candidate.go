package types

import (
	"fmt"
	"time"
)

// SourceKind identifies where a candidate document lives
type SourceKind string

const (
	SourceLocal  SourceKind = "local"
	SourceRemote SourceKind = "remote"
)

// Candidate is a source-agnostic description of a potential supporting document.
// It never carries document bytes, only enough metadata to score it and to fetch
// the bytes later through the linkage fields.
type Candidate struct {
	ID            string     `json:"id"`
	Source        SourceKind `json:"source"`
	Filename      string     `json:"filename"`
	Date          *time.Time `json:"date,omitempty"`
	Amount        *int64     `json:"amount,omitempty"`
	Currency      string     `json:"currency,omitempty"`
	Counterparty  string     `json:"counterparty,omitempty"`
	SenderEmail   string     `json:"sender_email,omitempty"`
	ContentType   string     `json:"content_type"`
	Size          int64      `json:"size"`
	LikelyReceipt bool       `json:"likely_receipt"`

	// Local linkage
	FileID string `json:"file_id,omitempty"`

	// Remote linkage
	AccountID    string `json:"account_id,omitempty"`
	MessageID    string `json:"message_id,omitempty"`
	AttachmentID string `json:"attachment_id,omitempty"`

	// MatchedFields lists the attributes that matched a free-text query, most specific first
	MatchedFields []string `json:"matched_fields,omitempty"`
}

// LocalCandidateID builds the id of a candidate backed by a local file
func LocalCandidateID(fileID string) string {
	return "local-" + fileID
}

// RemoteCandidateID builds the id of a candidate backed by a mailbox attachment
func RemoteCandidateID(accountID, messageID, attachmentID string) string {
	return fmt.Sprintf("remote-%s-%s-%s", accountID, messageID, attachmentID)
}
