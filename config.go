package main

import (
	"fmt"
	"net/url"
	"strings"
)

// Providers for the vision model
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.0-flash"
	defaultLimit       = 10
	maxPerPage         = 100 // WordPress rejects anything larger
)

// Environment variable names
const (
	envOpenAIKey     = "API_KEY_OPENAI"
	envOpenAIBaseURL = "OPENAI_BASE_URL"
	envGeminiKey     = "GEMINI_API_KEY"
	envWPUsername    = "WP_USERNAME"
	envWPAppPassword = "WP_APP_PASSWORD"
	envLogLevel      = "LOG_LEVEL"
)

// Config holds everything a run needs. It is built once by the CLI and passed to each component.
type Config struct {
	// SiteURL is the WordPress base URL, normalised to scheme://host[/path] without a trailing slash
	SiteURL string

	// Provider selects the vision backend ("openai" or "gemini")
	Provider string

	// Model is the provider model name; empty means the provider default
	Model string

	// APIKey authenticates against the provider
	APIKey string

	// APIBaseURL overrides the provider endpoint: an OpenAI-compatible server, or a Gemini API host
	APIBaseURL string

	// Write enables updating WordPress. When false the run is a dry run.
	Write bool

	// Limit caps the number of processed images; 0 means all
	Limit int

	// PerPage is the WordPress page size used while listing
	PerPage int

	// OutputPath is where the CSV report is written
	OutputPath string

	// WPUsername and WPAppPassword authenticate updates (application password)
	WPUsername    string
	WPAppPassword string

	// LogLevel is debug, info, warn or error; empty falls back to LOG_LEVEL, then info
	LogLevel string
}

// DefaultConfig returns a dry-run configuration with the documented defaults
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Write:    false,
		Limit:    defaultLimit,
		PerPage:  maxPerPage,
	}
}

// ApplyEnv fills credentials and optional settings from the environment
func (c *Config) ApplyEnv(getenv func(string) string) {
	switch c.Provider {
	case ProviderGemini:
		c.APIKey = getenv(envGeminiKey)
	default:
		c.APIKey = getenv(envOpenAIKey)
		if c.APIBaseURL == "" {
			c.APIBaseURL = getenv(envOpenAIBaseURL)
		}
	}
	c.WPUsername = getenv(envWPUsername)
	c.WPAppPassword = getenv(envWPAppPassword)
	if lvl := getenv(envLogLevel); lvl != "" && c.LogLevel == "" {
		c.LogLevel = lvl
	}
}

// Validate checks the configuration and fills derived defaults (model, output path, site URL form)
func (c *Config) Validate() error {
	site, err := normalizeSiteURL(c.SiteURL)
	if err != nil {
		return err
	}
	c.SiteURL = site

	switch c.Provider {
	case ProviderOpenAI:
		if c.Model == "" {
			c.Model = defaultOpenAIModel
		}
		if c.APIKey == "" {
			return fmt.Errorf("%w: %s not found in environment or .env file", ErrMissingAPIKey, envOpenAIKey)
		}
	case ProviderGemini:
		if c.Model == "" {
			c.Model = defaultGeminiModel
		}
		if c.APIKey == "" {
			return fmt.Errorf("%w: %s not found in environment or .env file", ErrMissingAPIKey, envGeminiKey)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q (want %q or %q)", ErrInvalidConfig, c.Provider, ProviderOpenAI, ProviderGemini)
	}

	if c.Limit < 0 {
		return fmt.Errorf("%w: limit must be 0 (all) or positive, got %d", ErrInvalidConfig, c.Limit)
	}
	if c.PerPage < 1 || c.PerPage > maxPerPage {
		return fmt.Errorf("%w: per-page must be between 1 and %d, got %d", ErrInvalidConfig, maxPerPage, c.PerPage)
	}

	if c.Write && (c.WPUsername == "" || c.WPAppPassword == "") {
		return fmt.Errorf("%w: write mode needs %s and %s", ErrMissingCredentials, envWPUsername, envWPAppPassword)
	}

	if c.OutputPath == "" {
		c.OutputPath = defaultOutputPath(c.SiteURL)
	}
	return nil
}

// Mode returns the human-readable run mode
func (c *Config) Mode() string {
	if c.Write {
		return "write"
	}
	return "dry-run"
}

// normalizeSiteURL adds https:// when no scheme is given and trims trailing slashes
func normalizeSiteURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: site URL is required", ErrInvalidConfig)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid site URL %q: %v", ErrInvalidConfig, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: site URL must be http or https, got %q", ErrInvalidConfig, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: site URL %q has no host", ErrInvalidConfig, raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

// defaultOutputPath derives the report name from the site's host, e.g. example.com_alt_text_results.csv
func defaultOutputPath(siteURL string) string {
	host := "site"
	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		host = strings.ReplaceAll(u.Host, ":", "_")
	}
	return host + "_alt_text_results.csv"
}
