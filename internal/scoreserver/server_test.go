package scoreserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/receipt-matcher/internal/scoring"
	"github.com/lox/receipt-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenScorer struct{}

func (brokenScorer) Score(ctx context.Context, cs []types.Candidate, q types.TransactionQuery, p *types.PartnerProfile) ([]types.ScoredResult, error) {
	return nil, errors.New("broken")
}

func post(t *testing.T, s *Server, body []byte) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestScoreEndpoint(t *testing.T) {
	s := New(scoring.NewLocal(), log.New(io.Discard))

	amount := int64(4999)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	req := scoring.NewScoreRequest(
		[]types.Candidate{
			{ID: "local-f1", Source: types.SourceLocal, Amount: &amount, Date: &date, Counterparty: "ACME", LikelyReceipt: true},
			{ID: "remote-a-m-x", Source: types.SourceRemote},
		},
		types.TransactionQuery{ID: "tx", Date: date, Amount: &amount},
		&types.PartnerProfile{Name: "Acme Ltd", Aliases: []string{"acme"}},
	)
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, data := post(t, s, body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var got scoring.ScoreResponse
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Scores, 2)
	assert.Equal(t, scoring.WireScore{
		Key:     "local-f1",
		Score:   90,
		Reasons: []string{"Exact amount", "Same day", "Partner match", "Likely receipt"},
	}, got.Scores[0])
	assert.Equal(t, "remote-a-m-x", got.Scores[1].Key)
	assert.Equal(t, 0, got.Scores[1].Score)
	assert.Empty(t, got.Scores[1].Reasons)
}

func TestScoreEndpointRejectsBadInput(t *testing.T) {
	s := New(scoring.NewLocal(), log.New(io.Discard))

	resp, _ := post(t, s, []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data := post(t, s, []byte(`{"attachments":[],"transaction":{"date":"10/03/2024"}}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "invalid transaction date")
}

func TestScoreEndpointScorerFailure(t *testing.T) {
	s := New(brokenScorer{}, log.New(io.Discard))
	resp, _ := post(t, s, []byte(`{"attachments":[],"transaction":{}}`))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	s := New(scoring.NewLocal(), log.New(io.Discard))
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// The HTTP delegate client and the in-process scorer must agree on every candidate
func TestDelegateMatchesLocalScorer(t *testing.T) {
	logger := log.New(io.Discard)
	s := New(scoring.NewLocal(), logger)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.App().Listener(ln) }()
	t.Cleanup(func() { _ = s.Shutdown() })

	client, err := scoring.NewHTTP(scoring.NewHTTPConfig().
		WithURL("http://" + ln.Addr().String()).
		WithLogger(logger))
	require.NoError(t, err)

	amount := int64(-4999)
	other := int64(5100)
	txDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	near := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	query := types.TransactionQuery{ID: "tx", Date: txDate, Amount: &amount, Currency: "EUR"}
	partner := &types.PartnerProfile{Name: "Acme", EmailDomains: []string{"acme.de"}, PreferredSources: []types.SourceKind{types.SourceRemote}}
	candidates := []types.Candidate{
		{ID: "local-1", Source: types.SourceLocal, Amount: &amount, Date: &txDate},
		{ID: "remote-a-m-1", Source: types.SourceRemote, Amount: &other, Currency: "EUR", Date: &near, SenderEmail: "billing@acme.de", LikelyReceipt: true},
		{ID: "remote-a-m-2", Source: types.SourceRemote, Counterparty: "Someone else"},
	}

	want, err := scoring.NewLocal().Score(context.Background(), candidates, query, partner)
	require.NoError(t, err)
	got, err := client.Score(context.Background(), candidates, query, partner)
	require.NoError(t, err)

	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Score, got[i].Score, want[i].ID)
		assert.Equal(t, want[i].Reasons, got[i].Reasons, want[i].ID)
	}
}
