// Package gmail queries a Gmail mailbox for messages carrying receipt attachments.
package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/lox/receipt-matcher/internal/sources"
	"github.com/lox/receipt-matcher/internal/types"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const user = "me"

// NewService creates a read-only Gmail service from an OAuth client credentials file and a
// previously authorised token file
func NewService(ctx context.Context, credentialsFile, tokenFile string) (*gmail.Service, error) {
	credentials, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(credentials, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	f, err := os.Open(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open token: %w", err)
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	return gmail.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
}

// Source implements sources.Source against the Gmail API
type Source struct {
	svc    *gmail.Service
	config Config
	logger *log.Logger
}

func New(svc *gmail.Service, config Config) (*Source, error) {
	if svc == nil {
		return nil, fmt.Errorf("gmail service is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Source{
		svc:    svc,
		config: config,
		logger: config.Logger.With("account", config.Account.ID),
	}, nil
}

// Ref returns the account this source queries
func (s *Source) Ref() types.AccountRef {
	return s.config.Account
}

// QuerySource lists matching messages and fetches each one to collect its attachments.
// Messages keep the order Gmail returns them in.
func (s *Source) QuerySource(ctx context.Context, q sources.Query) ([]types.Message, error) {
	startTime := time.Now()
	expr := BuildQuery(q)

	limit := s.config.MaxResults
	if q.Limit > 0 {
		limit = int64(q.Limit)
	}

	var list *gmail.ListMessagesResponse
	err := s.call(ctx, "list", func() error {
		var err error
		list, err = s.svc.Users.Messages.List(user).Q(expr).MaxResults(limit).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]types.Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		var full *gmail.Message
		err := s.call(ctx, "get", func() error {
			var err error
			full, err = s.svc.Users.Messages.Get(user, ref.Id).Format("full").Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", ref.Id, err)
		}
		messages = append(messages, ToMessage(full, s.config.Location))
	}

	s.logger.Debug("Queried mailbox",
		"query", expr,
		"messages", len(messages),
		"duration", time.Since(startTime))

	return messages, nil
}

func (s *Source) call(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		func() error {
			if err := fn(); err != nil {
				if !IsRetryable(err) {
					return retry.Unrecoverable(WrapError(err))
				}
				return WrapError(err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.config.RetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("Retrying Gmail request", "op", op, "attempt", n+1, "max_attempts", s.config.RetryAttempts, "error", err)
		}),
	)
}

var _ sources.Source = (*Source)(nil)
