package types

import "time"

// TransactionQuery is the bank transaction a supporting document is being searched for.
// Amount is signed and expressed in minor currency units (cents).
type TransactionQuery struct {
	ID               string    `json:"id"`
	Date             time.Time `json:"date"`
	Amount           *int64    `json:"amount,omitempty"`
	Currency         string    `json:"currency,omitempty"`
	CounterpartyName string    `json:"counterparty_name,omitempty"`
	CounterpartyID   string    `json:"counterparty_id,omitempty"`
}

// HasDate reports whether the query carries a transaction date
func (q TransactionQuery) HasDate() bool {
	return !q.Date.IsZero()
}

// PartnerProfile describes a known counterparty and is only used to bias scoring
type PartnerProfile struct {
	ID               string       `json:"id,omitempty" toml:"id"`
	Name             string       `json:"name" toml:"name"`
	Aliases          []string     `json:"aliases,omitempty" toml:"aliases"`
	EmailDomains     []string     `json:"email_domains,omitempty" toml:"email_domains"`
	PreferredSources []SourceKind `json:"preferred_sources,omitempty" toml:"preferred_sources"`
}

// Names returns the partner name followed by its aliases, skipping blanks
func (p *PartnerProfile) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Aliases)+1)
	if p.Name != "" {
		names = append(names, p.Name)
	}
	for _, alias := range p.Aliases {
		if alias != "" {
			names = append(names, alias)
		}
	}
	return names
}

// Prefers reports whether the partner lists the given source kind as preferred
func (p *PartnerProfile) Prefers(kind SourceKind) bool {
	if p == nil {
		return false
	}
	for _, k := range p.PreferredSources {
		if k == kind {
			return true
		}
	}
	return false
}

// DateWindow is an inclusive range of calendar days
type DateWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// DefaultWindow returns the window used for remote queries when the caller supplies none:
// 30 days before the transaction date to 7 days after it.
func DefaultWindow(date time.Time) DateWindow {
	return DateWindow{
		From: date.AddDate(0, 0, -30),
		To:   date.AddDate(0, 0, 7),
	}
}

// Contains reports whether t falls on a day inside the window
func (w DateWindow) Contains(t time.Time) bool {
	day := DayOf(t)
	return !day.Before(DayOf(w.From)) && !day.After(DayOf(w.To))
}

// DayOf truncates t to its calendar day, in UTC, keeping t's own year/month/day
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
