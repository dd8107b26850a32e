package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/lox/receipt-matcher/internal/types"
)

// ErrDelegate is returned when the scoring service answers with a non-2xx status
var ErrDelegate = errors.New("scoring service error")

// HTTPConfig holds configuration for the remote scoring service
type HTTPConfig struct {
	URL           string
	Timeout       time.Duration
	RetryAttempts uint
	Logger        *log.Logger
}

func NewHTTPConfig() HTTPConfig {
	return HTTPConfig{
		URL:           "http://localhost:8090",
		Timeout:       10 * time.Second,
		RetryAttempts: 3,
	}
}

func (c HTTPConfig) WithURL(url string) HTTPConfig {
	c.URL = url
	return c
}
func (c HTTPConfig) WithTimeout(timeout time.Duration) HTTPConfig {
	c.Timeout = timeout
	return c
}
func (c HTTPConfig) WithRetryAttempts(attempts uint) HTTPConfig {
	c.RetryAttempts = attempts
	return c
}
func (c HTTPConfig) WithLogger(logger *log.Logger) HTTPConfig {
	c.Logger = logger
	return c
}

func (c HTTPConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("scoring service URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.RetryAttempts == 0 {
		return fmt.Errorf("retry attempts must be greater than 0")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	return nil
}

// HTTP delegates scoring to a remote service with a single POST /score per batch
type HTTP struct {
	config     HTTPConfig
	httpClient *http.Client
	logger     *log.Logger
}

func NewHTTP(config HTTPConfig) (*HTTP, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := url.Parse(config.URL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &HTTP{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
	}, nil
}

// Score sends the whole batch to the scoring service. Candidates the service does not
// return a score for get 0 and no reasons.
func (h *HTTP) Score(ctx context.Context, candidates []types.Candidate, query types.TransactionQuery, partner *types.PartnerProfile) ([]types.ScoredResult, error) {
	if len(candidates) == 0 {
		return []types.ScoredResult{}, nil
	}

	jsonBody, err := json.Marshal(NewScoreRequest(candidates, query, partner))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	baseURL, err := url.Parse(h.config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	scoreURL := baseURL.JoinPath("score")

	startTime := time.Now()
	var response ScoreResponse
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, scoreURL.String(), bytes.NewReader(jsonBody))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := h.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to make request: %w", err)
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("%w: status %d: %s", ErrDelegate, resp.StatusCode, body)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
					return retry.Unrecoverable(err)
				}
				return err
			}
			if err := json.Unmarshal(body, &response); err != nil {
				h.logger.Debug("Failed to unmarshal score response", "body", string(body), "error", err)
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(h.config.RetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			h.logger.Warn("Retrying score request", "attempt", n+1, "max_attempts", h.config.RetryAttempts, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}

	byKey := make(map[string]WireScore, len(response.Scores))
	for _, s := range response.Scores {
		byKey[s.Key] = s
	}

	out := make([]types.ScoredResult, len(candidates))
	var missing int
	for i, c := range candidates {
		s, ok := byKey[c.ID]
		if !ok {
			missing++
		}
		if s.Score < 0 || s.Score > MaxScore {
			return nil, fmt.Errorf("%w: score %d for %s outside 0..%d", ErrDelegate, s.Score, c.ID, MaxScore)
		}
		reasons := s.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		out[i] = types.ScoredResult{Candidate: c, Score: s.Score, Reasons: reasons}
	}

	h.logger.Debug("Scored candidates remotely",
		"candidates", len(candidates),
		"missing", missing,
		"duration", time.Since(startTime))

	return out, nil
}

var _ Scorer = (*HTTP)(nil)
