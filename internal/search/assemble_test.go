package search

import (
	"testing"

	"github.com/lox/receipt-matcher/internal/types"
	"github.com/stretchr/testify/assert"
)

func scored(id string, score int) types.ScoredResult {
	return types.ScoredResult{Candidate: types.Candidate{ID: id}, Score: score}
}

func ids(results []types.ScoredResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		name  string
		input []types.ScoredResult
		want  []string
	}{
		{"empty", nil, []string{}},
		{
			"descending",
			[]types.ScoredResult{scored("a", 10), scored("b", 90), scored("c", 52)},
			[]string{"b", "c", "a"},
		},
		{
			"ties keep input order",
			[]types.ScoredResult{
				scored("local-1", 30),
				scored("local-2", 45),
				scored("remote-a-m-1", 30),
				scored("remote-b-m-1", 45),
				scored("remote-b-m-2", 30),
			},
			[]string{"local-2", "remote-b-m-1", "local-1", "remote-a-m-1", "remote-b-m-2"},
		},
		{
			"all zero",
			[]types.ScoredResult{scored("x", 0), scored("y", 0), scored("z", 0)},
			[]string{"x", "y", "z"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Assemble(tc.input)))
		})
	}
}

func TestAssembleLeavesInputUntouched(t *testing.T) {
	input := []types.ScoredResult{scored("a", 1), scored("b", 2)}
	_ = Assemble(input)
	assert.Equal(t, []string{"a", "b"}, ids(input))
}
