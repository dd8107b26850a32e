// Package config loads mailbox accounts and partner profiles from a TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lox/receipt-matcher/internal/types"
	"github.com/pelletier/go-toml/v2"
)

// ProviderGmail is the only mailbox provider supported
const ProviderGmail = "gmail"

// ErrUnknownProvider is returned for an account whose provider isn't supported
var ErrUnknownProvider = errors.New("unknown account provider")

// Account is one [[accounts]] entry
type Account struct {
	ID                string  `toml:"id"`
	Provider          string  `toml:"provider"`
	Email             string  `toml:"email"`
	CredentialsFile   string  `toml:"credentials_file"`
	TokenFile         string  `toml:"token_file"`
	Timeout           string  `toml:"timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	MaxResults        int64   `toml:"max_results"`
}

// Ref returns the engine's reference for the account
func (a Account) Ref() types.AccountRef {
	return types.AccountRef{ID: a.ID, Provider: a.Provider, Email: a.Email}
}

// TimeoutDuration parses Timeout, returning 0 when none is set
func (a Account) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("account %s: invalid timeout %q: %w", a.ID, a.Timeout, err)
	}
	return d, nil
}

// File is the parsed configuration file
type File struct {
	Accounts []Account              `toml:"accounts"`
	Partners []types.PartnerProfile `toml:"partners"`
}

// Load reads the configuration at path. A missing file is an empty configuration:
// no remote accounts and no partners.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates a configuration
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("unknown config keys: %s", strict.String())
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks accounts and partners for missing or inconsistent fields
func (f *File) Validate() error {
	seen := map[string]bool{}
	for i, a := range f.Accounts {
		if a.ID == "" {
			return fmt.Errorf("account %d: id is required", i+1)
		}
		if seen[a.ID] {
			return fmt.Errorf("account %s: duplicate id", a.ID)
		}
		seen[a.ID] = true

		switch strings.ToLower(a.Provider) {
		case ProviderGmail:
			if a.CredentialsFile == "" || a.TokenFile == "" {
				return fmt.Errorf("account %s: credentials_file and token_file are required", a.ID)
			}
		default:
			return fmt.Errorf("account %s: %w: %q", a.ID, ErrUnknownProvider, a.Provider)
		}

		if _, err := a.TimeoutDuration(); err != nil {
			return err
		}
		if a.RequestsPerSecond < 0 {
			return fmt.Errorf("account %s: requests_per_second must not be negative", a.ID)
		}
	}

	partnerIDs := map[string]bool{}
	for i, p := range f.Partners {
		if p.Name == "" {
			return fmt.Errorf("partner %d: name is required", i+1)
		}
		if p.ID != "" {
			if partnerIDs[p.ID] {
				return fmt.Errorf("partner %s: duplicate id", p.ID)
			}
			partnerIDs[p.ID] = true
		}
		for _, kind := range p.PreferredSources {
			if kind != types.SourceLocal && kind != types.SourceRemote {
				return fmt.Errorf("partner %s: unknown preferred source %q", p.Name, kind)
			}
		}
	}
	return nil
}
