package scoring

import (
	"context"

	"github.com/lox/receipt-matcher/internal/types"
)

// Sub-score caps. The theoretical maximum is their sum, 100.
const (
	MaxAmountScore       = 40
	MaxDateScore         = 25
	MaxCounterpartyScore = 20
	MaxPreferredScore    = 10
	MaxHeuristicScore    = 5
	MaxScore             = MaxAmountScore + MaxDateScore + MaxCounterpartyScore + MaxPreferredScore + MaxHeuristicScore
)

// Reason strings, appended in evaluation order
const (
	ReasonExactAmount     = "Exact amount"
	ReasonAmountWithin1   = "Amount within 1%"
	ReasonAmountWithin5   = "Amount within 5%"
	ReasonAmountWithin10  = "Amount within 10%"
	ReasonSameDay         = "Same day"
	ReasonWithin3Days     = "Within 3 days"
	ReasonWithin7Days     = "Within 7 days"
	ReasonWithin14Days    = "Within 14 days"
	ReasonWithin30Days    = "Within 30 days"
	ReasonPartnerMatch    = "Partner match"
	ReasonPreferredSource = "Preferred source"
	ReasonLikelyReceipt   = "Likely receipt"
)

// Scorer maps candidates to scored results for one transaction. It is batch oriented so
// an out-of-process implementation is called once per search. Results are returned in
// the same order as the candidates.
type Scorer interface {
	Score(ctx context.Context, candidates []types.Candidate, query types.TransactionQuery, partner *types.PartnerProfile) ([]types.ScoredResult, error)
}

// Unscored gives every candidate a score of 0 and no reasons
func Unscored(candidates []types.Candidate) []types.ScoredResult {
	out := make([]types.ScoredResult, len(candidates))
	for i, c := range candidates {
		out[i] = types.ScoredResult{Candidate: c, Score: 0, Reasons: []string{}}
	}
	return out
}
