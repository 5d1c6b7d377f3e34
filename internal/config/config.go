// Package config loads and validates the journalmon TOML configuration.
//
// Configuration errors are fatal: Load fails before any feed or API I/O
// happens, so a malformed keyword list can never produce a partial run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Paths     PathsConfig     `toml:"paths"`
	Feeds     FeedsConfig     `toml:"feeds"`
	Keywords  KeywordsConfig  `toml:"keywords"`
	AI        AIConfig        `toml:"ai"`
	Enrich    EnrichConfig    `toml:"enrich"`
	OpenAlex  OpenAlexConfig  `toml:"openalex"`
	Email     EmailConfig     `toml:"email"`
	Server    ServerConfig    `toml:"server"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

// PathsConfig holds filesystem locations.
type PathsConfig struct {
	OPMLFile   string `toml:"opml_file"`
	Database   string `toml:"database"`
	ReportsDir string `toml:"reports_dir"`
}

// FeedsConfig holds RSS polling settings.
type FeedsConfig struct {
	RecencyHours       int `toml:"recency_hours"`
	MaxArticlesPerFeed int `toml:"max_articles_per_feed"`
	RequestDelayMS     int `toml:"request_delay_ms"`
}

// RecencyWindow returns the recency window as a duration.
func (f FeedsConfig) RecencyWindow() time.Duration {
	return time.Duration(f.RecencyHours) * time.Hour
}

// KeywordsConfig holds the priority keyword lists. Matching is
// case-insensitive substring matching against title plus abstract.
type KeywordsConfig struct {
	PriorityHigh   []string `toml:"priority_high"`
	PriorityMedium []string `toml:"priority_medium"`
}

// AIConfig holds translation/summarization provider settings.
type AIConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TargetLanguage string `toml:"target_language"`
}

// EnrichConfig controls which stored articles get translated.
type EnrichConfig struct {
	Tiers   []string `toml:"tiers"`
	DelayMS int      `toml:"delay_ms"`
}

// OpenAlexConfig holds abstract-backfill settings. The email joins the
// OpenAlex polite pool for relaxed rate limits.
type OpenAlexConfig struct {
	Email string `toml:"email"`
	Limit int    `toml:"limit"`
}

// EmailConfig holds digest delivery settings for the Resend API.
type EmailConfig struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
	To      string `toml:"to"`
	From    string `toml:"from"`
}

// ServerConfig holds dashboard HTTP server settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

// SchedulerConfig holds the cron expression for -serve mode.
type SchedulerConfig struct {
	Cron string `toml:"cron"`
}

const defaultConfigContent = `[paths]
opml_file = "Feeds.opml"
database = "data/journals.db"
reports_dir = "reports"

[feeds]
recency_hours = 24
max_articles_per_feed = 10
request_delay_ms = 1000

[keywords]
priority_high = ["governmentality", "assemblage", "new materialism", "urban politics", "gentrification", "displacement", "biopolitics", "territory"]
priority_medium = ["urban planning", "political geography", "spatial", "mobility", "infrastructure", "housing", "neoliberal", "governance", "planning theory"]

[ai]
provider = "anthropic"            # "anthropic" or "openai"
api_key = ""                      # or set ANTHROPIC_API_KEY / AI_API_KEY
model = "claude-sonnet-4-20250514"
target_language = "Korean"

[enrich]
tiers = ["high", "medium"]
delay_ms = 500

[openalex]
email = ""
limit = 50

[email]
enabled = false
api_key = ""                      # or set RESEND_API_KEY
to = ""
from = "Journal Monitor <onboarding@resend.dev>"

[server]
port = 8787

[scheduler]
cron = "0 7 * * *"
`

// Load reads and parses the TOML config from the given path. If the file
// does not exist, a default config file is created at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "recency_hours = 0" is an error rather than
	// silently being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("feeds", "recency_hours") {
		if cfg.Feeds.RecencyHours < 1 {
			return fmt.Errorf("invalid feeds.recency_hours %d: must be >= 1", cfg.Feeds.RecencyHours)
		}
	}
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("keywords") && !md.IsDefined("keywords", "priority_high") && !md.IsDefined("keywords", "priority_medium") {
		return fmt.Errorf("keywords section present but both priority lists are missing")
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Paths.OPMLFile == "" {
		cfg.Paths.OPMLFile = "Feeds.opml"
	}
	if cfg.Paths.Database == "" {
		cfg.Paths.Database = filepath.Join("data", "journals.db")
	}
	if cfg.Paths.ReportsDir == "" {
		cfg.Paths.ReportsDir = "reports"
	}
	if cfg.Feeds.RecencyHours == 0 {
		cfg.Feeds.RecencyHours = 24
	}
	if cfg.Feeds.MaxArticlesPerFeed == 0 {
		cfg.Feeds.MaxArticlesPerFeed = 10
	}
	if cfg.Feeds.RequestDelayMS == 0 {
		cfg.Feeds.RequestDelayMS = 1000
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "anthropic"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "claude-sonnet-4-20250514"
	}
	if cfg.AI.TargetLanguage == "" {
		cfg.AI.TargetLanguage = "Korean"
	}
	if len(cfg.Enrich.Tiers) == 0 {
		cfg.Enrich.Tiers = []string{"high", "medium"}
	}
	if cfg.Enrich.DelayMS == 0 {
		cfg.Enrich.DelayMS = 500
	}
	if cfg.OpenAlex.Limit == 0 {
		cfg.OpenAlex.Limit = 50
	}
	if cfg.Email.From == "" {
		cfg.Email.From = "Journal Monitor <onboarding@resend.dev>"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8787
	}
	if cfg.Scheduler.Cron == "" {
		cfg.Scheduler.Cron = "0 7 * * *"
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
//
// Priority for ai.api_key:
//  1. AI_API_KEY (generic, highest)
//  2. ANTHROPIC_API_KEY (when provider is "anthropic")
//  3. OPENAI_API_KEY (when provider is "openai")
func applyEnvOverrides(cfg *Config) {
	switch cfg.AI.Provider {
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	}

	if v := os.Getenv("AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}

	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Email.APIKey = v
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	switch cfg.AI.Provider {
	case "anthropic", "openai":
		// valid
	default:
		return fmt.Errorf("invalid ai.provider %q: must be \"anthropic\" or \"openai\"", cfg.AI.Provider)
	}

	if cfg.Feeds.RecencyHours < 1 {
		return fmt.Errorf("invalid feeds.recency_hours %d: must be >= 1", cfg.Feeds.RecencyHours)
	}

	if len(cfg.Keywords.PriorityHigh) == 0 && len(cfg.Keywords.PriorityMedium) == 0 {
		return fmt.Errorf("keywords.priority_high and keywords.priority_medium are both empty: every article would classify as low")
	}
	for _, kw := range cfg.Keywords.PriorityHigh {
		if kw == "" {
			return fmt.Errorf("keywords.priority_high contains an empty keyword")
		}
	}
	for _, kw := range cfg.Keywords.PriorityMedium {
		if kw == "" {
			return fmt.Errorf("keywords.priority_medium contains an empty keyword")
		}
	}

	for _, tier := range cfg.Enrich.Tiers {
		switch tier {
		case "high", "medium", "low":
			// valid
		default:
			return fmt.Errorf("invalid enrich.tiers entry %q: must be \"high\", \"medium\", or \"low\"", tier)
		}
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	if cfg.Email.Enabled && cfg.Email.To == "" {
		return fmt.Errorf("email.enabled is true but email.to is empty")
	}

	if cfg.AI.APIKey == "" {
		slog.Warn("ai.api_key is empty: translation and summaries are disabled")
	}

	return nil
}
