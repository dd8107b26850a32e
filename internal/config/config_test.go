package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lox/receipt-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[[accounts]]
id = "work"
provider = "gmail"
email = "me@example.com"
credentials_file = "/etc/receipts/credentials.json"
token_file = "/etc/receipts/work-token.json"
timeout = "15s"
requests_per_second = 5

[[accounts]]
id = "private"
provider = "gmail"
credentials_file = "credentials.json"
token_file = "private-token.json"

[[partners]]
id = "acme"
name = "Acme Ltd"
aliases = ["ACME", "Acme GmbH"]
email_domains = ["acme.de", "@acme.co.uk"]
preferred_sources = ["remote"]

[[partners]]
name = "Stadtwerke"
preferred_sources = ["local"]
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	require.Len(t, f.Accounts, 2)
	work := f.Accounts[0]
	assert.Equal(t, types.AccountRef{ID: "work", Provider: "gmail", Email: "me@example.com"}, work.Ref())
	assert.Equal(t, 5.0, work.RequestsPerSecond)
	timeout, err := work.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, timeout)

	timeout, err = f.Accounts[1].TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, timeout)

	require.Len(t, f.Partners, 2)
	assert.Equal(t, types.PartnerProfile{
		ID:               "acme",
		Name:             "Acme Ltd",
		Aliases:          []string{"ACME", "Acme GmbH"},
		EmailDomains:     []string{"acme.de", "@acme.co.uk"},
		PreferredSources: []types.SourceKind{types.SourceRemote},
	}, f.Partners[0])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{"unknown provider", "[[accounts]]\nid = \"x\"\nprovider = \"imap\"\n", "unknown account provider"},
		{"missing id", "[[accounts]]\nprovider = \"gmail\"\n", "id is required"},
		{"duplicate id", "[[accounts]]\nid = \"a\"\nprovider = \"gmail\"\ncredentials_file = \"c\"\ntoken_file = \"t\"\n[[accounts]]\nid = \"a\"\nprovider = \"gmail\"\ncredentials_file = \"c\"\ntoken_file = \"t\"\n", "duplicate id"},
		{"missing credentials", "[[accounts]]\nid = \"a\"\nprovider = \"gmail\"\n", "credentials_file and token_file"},
		{"bad timeout", "[[accounts]]\nid = \"a\"\nprovider = \"gmail\"\ncredentials_file = \"c\"\ntoken_file = \"t\"\ntimeout = \"soon\"\n", "invalid timeout"},
		{"unknown key", "[[accounts]]\nid = \"a\"\npassword = \"hunter2\"\n", "unknown config keys"},
		{"partner without name", "[[partners]]\naliases = [\"x\"]\n", "name is required"},
		{"bad preferred source", "[[partners]]\nname = \"A\"\npreferred_sources = [\"fax\"]\n", "unknown preferred source"},
		{"not toml", "accounts = [", "failed to parse config"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.config))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	_, err := Parse(strings.NewReader("[[accounts]]\nid = \"x\"\nprovider = \"imap\"\n"))
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	f, err := Load(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Empty(t, f.Accounts)
	assert.Empty(t, f.Partners)

	path := filepath.Join(dir, "receipt-matcher.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0600))
	f, err = Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Accounts, 2)
}

func TestLookupPartner(t *testing.T) {
	f, err := Parse(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	partners := f.PartnerLookup()

	tests := []struct {
		name  string
		query types.TransactionQuery
		want  string
	}{
		{"by id", types.TransactionQuery{CounterpartyID: "acme", CounterpartyName: "Someone"}, "Acme Ltd"},
		{"unknown id falls back to name", types.TransactionQuery{CounterpartyID: "nope", CounterpartyName: "acme"}, "Acme Ltd"},
		{"alias equality", types.TransactionQuery{CounterpartyName: "  ACME   gmbh "}, "Acme Ltd"},
		{"contained name", types.TransactionQuery{CounterpartyName: "SEPA STADTWERKE MUENCHEN ABSCHLAG"}, "Stadtwerke"},
		{"contained alias", types.TransactionQuery{CounterpartyName: "ACME LTD LONDON"}, "Acme Ltd"},
		{"no match", types.TransactionQuery{CounterpartyName: "Bakery"}, ""},
		{"no counterparty", types.TransactionQuery{}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := partners.LookupPartner(tc.query)
			if tc.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.Name)
		})
	}

	assert.Nil(t, partners.Get(""))
	assert.Equal(t, "Acme Ltd", partners.Get("acme").Name)
}
