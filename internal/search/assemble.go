package search

import (
	"sort"

	"github.com/lox/receipt-matcher/internal/types"
)

// Assemble ranks scored results best-first. Equal scores keep their input order, which is
// local candidates first and then remote candidates in configured account order.
// The input slice is left untouched.
func Assemble(scored []types.ScoredResult) []types.ScoredResult {
	ranked := make([]types.ScoredResult, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
