package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTestConfig writes a TOML config file to a temp directory and returns
// its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

// clearAPIKeyEnv unsets the env vars that override api keys so tests are
// deterministic regardless of the host environment.
func clearAPIKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RESEND_API_KEY", "")
}

func TestLoad_ValidConfig(t *testing.T) {
	clearAPIKeyEnv(t)
	content := `
[paths]
opml_file = "feeds.opml"
database = "db/j.db"
reports_dir = "out"

[feeds]
recency_hours = 48
max_articles_per_feed = 5
request_delay_ms = 250

[keywords]
priority_high = ["governmentality"]
priority_medium = ["housing"]

[ai]
provider = "openai"
api_key = "sk-test-key-123"
model = "gpt-4o-mini"
target_language = "Danish"
`
	path := writeTestConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}

	if cfg.Paths.OPMLFile != "feeds.opml" {
		t.Errorf("Paths.OPMLFile = %q, want %q", cfg.Paths.OPMLFile, "feeds.opml")
	}
	if cfg.Feeds.RecencyHours != 48 {
		t.Errorf("Feeds.RecencyHours = %d, want 48", cfg.Feeds.RecencyHours)
	}
	if got := cfg.Feeds.RecencyWindow().Hours(); got != 48 {
		t.Errorf("RecencyWindow() = %v hours, want 48", got)
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("AI.Provider = %q, want %q", cfg.AI.Provider, "openai")
	}
	if cfg.AI.APIKey != "sk-test-key-123" {
		t.Errorf("AI.APIKey = %q, want %q", cfg.AI.APIKey, "sk-test-key-123")
	}
	if cfg.AI.TargetLanguage != "Danish" {
		t.Errorf("AI.TargetLanguage = %q, want %q", cfg.AI.TargetLanguage, "Danish")
	}
	if len(cfg.Keywords.PriorityHigh) != 1 || cfg.Keywords.PriorityHigh[0] != "governmentality" {
		t.Errorf("Keywords.PriorityHigh = %v, want [governmentality]", cfg.Keywords.PriorityHigh)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	clearAPIKeyEnv(t)
	content := `
[keywords]
priority_high = ["assemblage"]
`
	path := writeTestConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Feeds.RecencyHours != 24 {
		t.Errorf("default Feeds.RecencyHours = %d, want 24", cfg.Feeds.RecencyHours)
	}
	if cfg.Feeds.MaxArticlesPerFeed != 10 {
		t.Errorf("default Feeds.MaxArticlesPerFeed = %d, want 10", cfg.Feeds.MaxArticlesPerFeed)
	}
	if cfg.AI.Provider != "anthropic" {
		t.Errorf("default AI.Provider = %q, want %q", cfg.AI.Provider, "anthropic")
	}
	if cfg.Server.Port != 8787 {
		t.Errorf("default Server.Port = %d, want 8787", cfg.Server.Port)
	}
	if cfg.Scheduler.Cron != "0 7 * * *" {
		t.Errorf("default Scheduler.Cron = %q, want %q", cfg.Scheduler.Cron, "0 7 * * *")
	}
	if len(cfg.Enrich.Tiers) != 2 {
		t.Errorf("default Enrich.Tiers = %v, want [high medium]", cfg.Enrich.Tiers)
	}
}

func TestLoad_CreatesDefaultFile(t *testing.T) {
	clearAPIKeyEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file not created at %q: %v", path, err)
	}
	if len(cfg.Keywords.PriorityHigh) == 0 {
		t.Error("default config has no high-priority keywords")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	clearAPIKeyEnv(t)

	tests := []struct {
		name    string
		content string
	}{
		{
			name: "zero recency hours",
			content: `
[feeds]
recency_hours = 0
[keywords]
priority_high = ["x"]
`,
		},
		{
			name: "empty keyword lists",
			content: `
[keywords]
priority_high = []
priority_medium = []
`,
		},
		{
			name: "empty keyword string",
			content: `
[keywords]
priority_high = ["governance", ""]
`,
		},
		{
			name: "unknown provider",
			content: `
[keywords]
priority_high = ["x"]
[ai]
provider = "bard"
`,
		},
		{
			name: "invalid enrich tier",
			content: `
[keywords]
priority_high = ["x"]
[enrich]
tiers = ["urgent"]
`,
		},
		{
			name: "email enabled without recipient",
			content: `
[keywords]
priority_high = ["x"]
[email]
enabled = true
`,
		},
		{
			name: "malformed toml",
			content: `
[keywords
priority_high = ["x"]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearAPIKeyEnv(t)
	content := `
[keywords]
priority_high = ["x"]
[ai]
provider = "anthropic"
api_key = "from-file"
`
	path := writeTestConfig(t, content)

	t.Setenv("ANTHROPIC_API_KEY", "from-provider-env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.AI.APIKey != "from-provider-env" {
		t.Errorf("AI.APIKey = %q, want provider env override", cfg.AI.APIKey)
	}

	t.Setenv("AI_API_KEY", "from-generic-env")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.AI.APIKey != "from-generic-env" {
		t.Errorf("AI.APIKey = %q, want generic env override", cfg.AI.APIKey)
	}

	t.Setenv("RESEND_API_KEY", "re-test")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Email.APIKey != "re-test" {
		t.Errorf("Email.APIKey = %q, want %q", cfg.Email.APIKey, "re-test")
	}
}
