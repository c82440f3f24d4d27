// Package config reads the agent's settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

const (
	BackendGemini = "gemini"
	BackendOllama = "ollama"
)

// Config is the agent CLI's environment-driven configuration.
type Config struct {
	LLMBackend    string
	GeminiAPIKey  string
	GeminiModel   string
	OllamaHost    string
	OllamaModel   string
	EmailID       string
	MaxIterations int
	LLMTimeout    time.Duration
	CalculatorCmd string
	GmailCmd      string
	LogLevel      string
}

// Load reads .env files (missing files are ignored; existing variables win)
// and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "load %s", f)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		LLMBackend:    strings.ToLower(get("LLM_BACKEND", BackendGemini)),
		GeminiAPIKey:  get("GEMINI_API_KEY", ""),
		GeminiModel:   get("GEMINI_MODEL", "gemini-2.0-flash"),
		OllamaHost:    get("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:   get("OLLAMA_MODEL", "llama3.1"),
		EmailID:       get("EMAIL_ID", ""),
		CalculatorCmd: get("CALCULATOR_SERVER_CMD", "mcp-calculator"),
		GmailCmd:      get("GMAIL_SERVER_CMD", "mcp-gmail"),
		LogLevel:      get("LOG_LEVEL", "INFO"),
	}

	n, err := strconv.Atoi(get("MAX_ITERATIONS", "6"))
	if err != nil || n <= 0 {
		return nil, errors.Newf("MAX_ITERATIONS must be a positive integer, got %q", getenv("MAX_ITERATIONS"))
	}
	cfg.MaxIterations = n

	d, err := time.ParseDuration(get("LLM_TIMEOUT", "10s"))
	if err != nil || d <= 0 {
		return nil, errors.Newf("LLM_TIMEOUT must be a positive duration such as 10s, got %q", getenv("LLM_TIMEOUT"))
	}
	cfg.LLMTimeout = d

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	switch c.LLMBackend {
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini backend")
		}
	case BackendOllama:
	default:
		return errors.Newf("LLM_BACKEND must be %q or %q, got %q", BackendGemini, BackendOllama, c.LLMBackend)
	}
	return nil
}
