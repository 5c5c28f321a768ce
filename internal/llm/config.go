package llm

import (
	"fmt"
	"time"
)

// Provider names accepted in Config.Provider. An empty provider disables
// the LLM layer.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// defaultModels is used when Config.Model is empty.
var defaultModels = map[string]string{
	ProviderAnthropic:  "claude-haiku-4-5",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderGemini:     "gemini-2.5-flash",
	ProviderOpenRouter: "google/gemini-2.5-flash",
	ProviderMock:       "mock",
}

// Config selects and tunes the provider. It is loaded from the "llm"
// section of the application config.
type Config struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration `koanf:"timeout"`

	// MaxAttempts is the total number of tries for transient failures.
	MaxAttempts int `koanf:"max_attempts"`
}

// Enabled reports whether a provider is configured.
func (c Config) Enabled() bool { return c.Provider != "" }

// WithDefaults fills the model, timeout and attempt count.
func (c Config) WithDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModels[c.Provider]
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	return c
}

// Retry returns the backoff policy for c.
func (c Config) Retry() RetryPolicy {
	return RetryPolicy{
		Attempts:   max(c.MaxAttempts, 1),
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2,
	}
}

// Validate checks the provider name and that a key is present where one
// is needed.
func (c Config) Validate() error {
	switch c.Provider {
	case "", ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter:
		if c.APIKey == "" {
			return fmt.Errorf("llm.api_key (FORENSIQ_LLM_API_KEY) is required for the %s provider", c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}

// discoveryOrder lists the conventional key variables probed by Discover.
var discoveryOrder = []struct {
	env      string
	provider string
}{
	{"ANTHROPIC_API_KEY", ProviderAnthropic},
	{"OPENAI_API_KEY", ProviderOpenAI},
	{"GEMINI_API_KEY", ProviderGemini},
	{"OPENROUTER_API_KEY", ProviderOpenRouter},
}

// Discover fills an unconfigured Config from the first conventional API
// key variable found. It reports false when c already names a provider or
// no key is set.
func Discover(c Config, getenv func(string) string) (Config, bool) {
	if c.Enabled() {
		return c, false
	}
	for _, d := range discoveryOrder {
		if k := getenv(d.env); k != "" {
			c.Provider = d.provider
			c.APIKey = k
			return c, true
		}
	}
	return c, false
}
