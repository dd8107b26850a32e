package scoring

import (
	"fmt"
	"time"

	"github.com/lox/receipt-matcher/internal/types"
)

const wireDateFormat = "2006-01-02"

// ScoreRequest is the body of POST /score
type ScoreRequest struct {
	Attachments []WireCandidate       `json:"attachments"`
	Transaction WireTransaction       `json:"transaction"`
	Partner     *types.PartnerProfile `json:"partner"`
}

// ScoreResponse is the reply to POST /score
type ScoreResponse struct {
	Scores []WireScore `json:"scores"`
}

// WireScore is the score for one candidate, keyed by candidate id
type WireScore struct {
	Key     string   `json:"key"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// WireCandidate carries the scoring-relevant fields of a candidate
type WireCandidate struct {
	Key           string           `json:"key"`
	Source        types.SourceKind `json:"source"`
	Filename      string           `json:"filename"`
	Date          string           `json:"date,omitempty"`
	Amount        *int64           `json:"amount,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	Counterparty  string           `json:"counterparty,omitempty"`
	SenderEmail   string           `json:"sender_email,omitempty"`
	ContentType   string           `json:"content_type,omitempty"`
	Size          int64            `json:"size,omitempty"`
	LikelyReceipt bool             `json:"likely_receipt"`
}

// WireTransaction is the transaction part of a score request
type WireTransaction struct {
	ID               string `json:"id,omitempty"`
	Date             string `json:"date,omitempty"`
	Amount           *int64 `json:"amount,omitempty"`
	Currency         string `json:"currency,omitempty"`
	CounterpartyName string `json:"counterparty_name,omitempty"`
	CounterpartyID   string `json:"counterparty_id,omitempty"`
}

// NewScoreRequest builds the wire request for a batch of candidates
func NewScoreRequest(candidates []types.Candidate, query types.TransactionQuery, partner *types.PartnerProfile) ScoreRequest {
	req := ScoreRequest{
		Attachments: make([]WireCandidate, len(candidates)),
		Transaction: WireTransaction{
			ID:               query.ID,
			Amount:           query.Amount,
			Currency:         query.Currency,
			CounterpartyName: query.CounterpartyName,
			CounterpartyID:   query.CounterpartyID,
		},
		Partner: partner,
	}
	if query.HasDate() {
		req.Transaction.Date = query.Date.Format(wireDateFormat)
	}
	for i, c := range candidates {
		wc := WireCandidate{
			Key:           c.ID,
			Source:        c.Source,
			Filename:      c.Filename,
			Amount:        c.Amount,
			Currency:      c.Currency,
			Counterparty:  c.Counterparty,
			SenderEmail:   c.SenderEmail,
			ContentType:   c.ContentType,
			Size:          c.Size,
			LikelyReceipt: c.LikelyReceipt,
		}
		if c.Date != nil {
			date := *c.Date
			if query.HasDate() {
				date = date.In(query.Date.Location())
			}
			wc.Date = date.Format(wireDateFormat)
		}
		req.Attachments[i] = wc
	}
	return req
}

// Decode converts the wire request back into engine types
func (r ScoreRequest) Decode() ([]types.Candidate, types.TransactionQuery, error) {
	query := types.TransactionQuery{
		ID:               r.Transaction.ID,
		Amount:           r.Transaction.Amount,
		Currency:         r.Transaction.Currency,
		CounterpartyName: r.Transaction.CounterpartyName,
		CounterpartyID:   r.Transaction.CounterpartyID,
	}
	if r.Transaction.Date != "" {
		date, err := time.Parse(wireDateFormat, r.Transaction.Date)
		if err != nil {
			return nil, types.TransactionQuery{}, fmt.Errorf("invalid transaction date %q: %w", r.Transaction.Date, err)
		}
		query.Date = date
	}

	candidates := make([]types.Candidate, len(r.Attachments))
	for i, wc := range r.Attachments {
		c := types.Candidate{
			ID:            wc.Key,
			Source:        wc.Source,
			Filename:      wc.Filename,
			Amount:        wc.Amount,
			Currency:      wc.Currency,
			Counterparty:  wc.Counterparty,
			SenderEmail:   wc.SenderEmail,
			ContentType:   wc.ContentType,
			Size:          wc.Size,
			LikelyReceipt: wc.LikelyReceipt,
		}
		if wc.Date != "" {
			date, err := time.Parse(wireDateFormat, wc.Date)
			if err != nil {
				return nil, types.TransactionQuery{}, fmt.Errorf("invalid date %q for %s: %w", wc.Date, wc.Key, err)
			}
			c.Date = &date
		}
		candidates[i] = c
	}
	return candidates, query, nil
}
