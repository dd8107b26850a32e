package gmail

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/receipt-matcher/internal/types"
)

// Config holds configuration for one Gmail-backed account
type Config struct {
	Account       types.AccountRef
	MaxResults    int64
	RetryAttempts uint
	Logger        *log.Logger
	// Location is the timezone message timestamps are converted into
	Location *time.Location
}

func NewConfig(account types.AccountRef) Config {
	return Config{
		Account:       account,
		MaxResults:    50,
		RetryAttempts: 3,
		Location:      time.UTC,
	}
}

func (c Config) WithMaxResults(n int64) Config {
	c.MaxResults = n
	return c
}
func (c Config) WithRetryAttempts(attempts uint) Config {
	c.RetryAttempts = attempts
	return c
}
func (c Config) WithLogger(logger *log.Logger) Config {
	c.Logger = logger
	return c
}

func (c Config) WithLocation(loc *time.Location) Config {
	c.Location = loc
	return c
}

func (c Config) Validate() error {
	if c.Account.ID == "" {
		return fmt.Errorf("account id is required")
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max results must be greater than 0")
	}
	if c.RetryAttempts == 0 {
		return fmt.Errorf("retry attempts must be greater than 0")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Location == nil {
		return fmt.Errorf("location is required")
	}
	return nil
}
