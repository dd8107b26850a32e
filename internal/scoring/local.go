package scoring

import (
	"context"
	"strings"
	"time"

	"github.com/lox/receipt-matcher/internal/types"
)

// Local scores candidates in-process. It is the reference implementation of the tiers;
// the scoring service serves exactly this scorer over HTTP.
type Local struct{}

// NewLocal creates an in-process scorer
func NewLocal() *Local {
	return &Local{}
}

// Score never fails
func (l *Local) Score(ctx context.Context, candidates []types.Candidate, query types.TransactionQuery, partner *types.PartnerProfile) ([]types.ScoredResult, error) {
	out := make([]types.ScoredResult, len(candidates))
	for i, c := range candidates {
		out[i] = ScoreCandidate(c, query, partner)
	}
	return out, nil
}

// ScoreCandidate scores one candidate as the sum of independently capped sub-scores.
// A missing signal contributes zero.
func ScoreCandidate(c types.Candidate, query types.TransactionQuery, partner *types.PartnerProfile) types.ScoredResult {
	result := types.ScoredResult{Candidate: c, Reasons: []string{}}

	add := func(points int, reason string) {
		if points <= 0 {
			return
		}
		result.Score += points
		result.Reasons = append(result.Reasons, reason)
	}

	if c.Amount != nil && query.Amount != nil && currenciesCompatible(c.Currency, query.Currency) {
		add(AmountScore(*c.Amount, *query.Amount))
	}
	if c.Date != nil && query.HasDate() {
		add(DateScore(DayDiff(*c.Date, query.Date)))
	}
	if PartnerMatches(c, partner) {
		add(MaxCounterpartyScore, ReasonPartnerMatch)
	}
	if partner.Prefers(c.Source) {
		add(MaxPreferredScore, ReasonPreferredSource)
	}
	if c.LikelyReceipt {
		add(MaxHeuristicScore, ReasonLikelyReceipt)
	}
	return result
}

// AmountScore assigns the amount tier for two amounts in minor units. Magnitudes are
// compared, since statement debits are negative while documents carry positive totals.
func AmountScore(candidate, query int64) (int, string) {
	c, q := abs(candidate), abs(query)
	diff := abs(c - q)
	if diff == 0 {
		return MaxAmountScore, ReasonExactAmount
	}
	if q == 0 {
		return 0, ""
	}

	// Integer comparisons keep the tier boundaries exact: diff/q <= n/100 <=> diff*100 <= n*q
	switch {
	case diff*100 <= q:
		return 38, ReasonAmountWithin1
	case diff*100 <= 5*q:
		return 30, ReasonAmountWithin5
	case diff*100 <= 10*q:
		return 20, ReasonAmountWithin10
	default:
		return 0, ""
	}
}

// DateScore assigns the date tier for an absolute day difference
func DateScore(days int) (int, string) {
	if days < 0 {
		days = -days
	}
	switch {
	case days == 0:
		return MaxDateScore, ReasonSameDay
	case days <= 3:
		return 22, ReasonWithin3Days
	case days <= 7:
		return 15, ReasonWithin7Days
	case days <= 14:
		return 8, ReasonWithin14Days
	case days <= 30:
		return 3, ReasonWithin30Days
	default:
		return 0, ""
	}
}

// DayDiff is the absolute number of calendar days between a and b, counted in b's location
func DayDiff(a, b time.Time) int {
	a = a.In(b.Location())
	hours := types.DayOf(a).Sub(types.DayOf(b)).Hours()
	days := int(hours / 24)
	if days < 0 {
		return -days
	}
	return days
}

// PartnerMatches reports whether the candidate's counterparty contains, or is contained in,
// the partner name or one of its aliases (case-insensitive), or whether the sender address
// belongs to one of the partner's email domains.
func PartnerMatches(c types.Candidate, partner *types.PartnerProfile) bool {
	if partner == nil {
		return false
	}

	counterparty := strings.ToLower(strings.TrimSpace(c.Counterparty))
	if counterparty != "" {
		for _, name := range partner.Names() {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			if strings.Contains(counterparty, name) || strings.Contains(name, counterparty) {
				return true
			}
		}
	}

	if domain := emailDomain(c.SenderEmail); domain != "" {
		for _, d := range partner.EmailDomains {
			d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@"))
			if d != "" && (domain == d || strings.HasSuffix(domain, "."+d)) {
				return true
			}
		}
	}
	return false
}

func emailDomain(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(address[at+1:]))
}

func currenciesCompatible(a, b string) bool {
	return a == "" || b == "" || strings.EqualFold(a, b)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

var _ Scorer = (*Local)(nil)
