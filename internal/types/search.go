package types

import "time"

// ScoredResult is a candidate together with its score and the reasons behind it
type ScoredResult struct {
	Candidate
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// SearchResults is one ranked result set, valid only for the generation it was produced by
type SearchResults struct {
	Generation      uint64           `json:"generation"`
	Query           TransactionQuery `json:"query"`
	Results         []ScoredResult   `json:"results"`
	PartialFailures []AccountRef     `json:"partial_failures,omitempty"`
	TotalCount      int              `json:"total_count"`
	Limit           int              `json:"limit,omitempty"`
	Duration        time.Duration    `json:"duration"`
}
