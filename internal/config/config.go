package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port            string
	DefaultProvider string
	DefaultModel    string
	OpenAIKey       string
	AnthropicKey    string
	GeminiKey       string
	GroqKey         string
	ProviderBaseURL string // openai-compatible endpoints
	OllamaHost      string
	Temperature     float64

	// reference game settings, overridable per session
	SpyCount     int
	RoundLimit   int
	ActionWindow int  // seconds
	TimedRounds  bool // false: open rounds, actions always available

	ExportEnabled bool
	ExportFile    string
	SingleSession bool
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.DefaultProvider = getenv("DEFAULT_PROVIDER", "openai")
	c.DefaultModel = getenv("DEFAULT_MODEL", "gpt-4-turbo-preview")
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	c.GeminiKey = os.Getenv("GEMINI_API_KEY")
	c.GroqKey = os.Getenv("GROQ_API_KEY")
	c.ProviderBaseURL = os.Getenv("PROVIDER_BASE_URL")
	c.OllamaHost = getenv("OLLAMA_HOST", "http://localhost:11434")
	c.Temperature = getfloat("TEMPERATURE", 0.8)
	c.SpyCount = getint("SPY_COUNT", 2)
	c.RoundLimit = getint("ROUND_LIMIT", 3)
	c.ActionWindow = getint("ACTION_WINDOW_SECONDS", 10)
	c.TimedRounds = getenv("ROUND_MODE", "timed") != "open"
	c.ExportEnabled = getenv("EXPORT_ENABLED", "true") == "true"
	c.ExportFile = getenv("EXPORT_FILE", "./spyfall-results.txt")
	c.SingleSession = getenv("SINGLE_SESSION", "true") == "true"
	return c
}

// Validate fails fast on startup misconfiguration, before any session
// can exist. Missing credentials for the selected provider are fatal.
func (c Config) Validate() error {
	switch c.DefaultProvider {
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("provider %q requires OPENAI_API_KEY", c.DefaultProvider)
		}
	case "claude":
		if c.AnthropicKey == "" {
			return fmt.Errorf("provider %q requires ANTHROPIC_API_KEY", c.DefaultProvider)
		}
	case "gemini":
		if c.GeminiKey == "" {
			return fmt.Errorf("provider %q requires GEMINI_API_KEY", c.DefaultProvider)
		}
	case "groq":
		if c.GroqKey == "" {
			return fmt.Errorf("provider %q requires GROQ_API_KEY", c.DefaultProvider)
		}
	case "openai-compatible":
		if c.ProviderBaseURL == "" {
			return fmt.Errorf("provider %q requires PROVIDER_BASE_URL", c.DefaultProvider)
		}
	case "ollama":
		// local, no credential
	default:
		return fmt.Errorf("unknown provider %q", c.DefaultProvider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("TEMPERATURE %v out of range", c.Temperature)
	}
	return nil
}

// APIKey returns the credential matching the selected provider.
func (c Config) APIKey() string {
	switch c.DefaultProvider {
	case "openai":
		return c.OpenAIKey
	case "claude":
		return c.AnthropicKey
	case "gemini":
		return c.GeminiKey
	case "groq":
		return c.GroqKey
	default:
		return c.OpenAIKey
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
