package commands

import "time"

// CommonConfig contains configuration common to all commands
type CommonConfig struct {
	// DataDir is the path to the data directory
	DataDir string `help:"Path to data directory" default:"./data" env:"RECEIPTS_DATA_DIR"`
	// Timezone is the timezone to use for transaction and document dates
	Timezone string `help:"Timezone to use for transaction and document dates" required:"" default:"Europe/Berlin" env:"RECEIPTS_TIMEZONE"`
	// LogLevel is the logging level to use
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error"`
	// ConfigFile lists mailbox accounts and partner profiles
	ConfigFile string `name:"config" help:"Accounts and partners file" default:"./receipt-matcher.toml" type:"path" env:"RECEIPTS_CONFIG"`
}

// ScoringConfig selects where candidates are scored
type ScoringConfig struct {
	// ScoringURL is the base URL of a scoring service; empty scores in-process
	ScoringURL string `help:"Base URL of the scoring service (scores in-process when empty)" env:"RECEIPTS_SCORING_URL"`
	// ScoringTimeout bounds each scoring request
	ScoringTimeout time.Duration `help:"Timeout for scoring requests" default:"10s"`
	// ScoringRetries is the number of attempts per scoring request
	ScoringRetries uint `help:"Attempts per scoring request" default:"3"`
}

// AgentConfig contains the LLM settings used for document metadata extraction
type AgentConfig struct {
	OpenRouterKey   string `help:"OpenRouter API key" env:"OPENROUTER_API_KEY"`
	OpenRouterModel string `help:"OpenRouter model to use for extraction" default:"google/gemini-2.5-flash-preview" env:"OPENROUTER_MODEL"`
	AgentAttempts   int    `help:"Tool-calling attempts per document" default:"3"`
}
