package config

import (
	"fmt"
	"os"

	"github.com/agenthands/daybrief/internal/core/model"
	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	// SummaryPrompt overrides the built-in digest prompt preamble.
	SummaryPrompt string `toml:"summary_prompt"`
}

type ProcessingConfig struct {
	DedupThreshold    float64 `toml:"dedup_threshold"`
	TimeWindowHours   int     `toml:"time_window_hours"`
	InsightWindowDays int     `toml:"insight_window_days"`
}

type StateConfig struct {
	// Dir holds ledger.json, insight_history.json and the run lock.
	Dir string `toml:"dir"`
	// Ledger selects the entity-ledger backend: "file" or "graph".
	Ledger string `toml:"ledger"`
}

type GraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type VaultConfig struct {
	Dir string `toml:"dir"`
}

type ComplianceConfig struct {
	RulesPath string `toml:"rules_path"`
}

type ServerConfig struct {
	Port string `toml:"port"`
	// Cron is the daily run schedule; empty disables scheduling.
	Cron string `toml:"cron"`
}

// SourceConfig describes one fetch collaborator.
type SourceConfig struct {
	ID       string `toml:"id"`
	Kind     string `toml:"kind"` // hn | rss | html
	URL      string `toml:"url"`
	Category string `toml:"category"`
	Enabled  bool   `toml:"enabled"`
	Limit    int    `toml:"limit"`
	// Selectors drive the html kind (goquery).
	ItemSelector  string `toml:"item_selector"`
	TitleSelector string `toml:"title_selector"`
	LinkSelector  string `toml:"link_selector"`
}

type Config struct {
	Server         ServerConfig        `toml:"server"`
	LLM            LLMConfig           `toml:"llm"`
	Processing     ProcessingConfig    `toml:"processing"`
	State          StateConfig         `toml:"state"`
	Graph          GraphConfig         `toml:"graph"`
	Vault          VaultConfig         `toml:"vault"`
	Compliance     ComplianceConfig    `toml:"compliance"`
	Sources        []SourceConfig      `toml:"sources"`
	SourcePriority map[string]int      `toml:"source_priority"`
	Keywords       map[string][]string `toml:"keywords"`
	Watchlist      map[string]string   `toml:"watchlist"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a runnable configuration for when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Processing.DedupThreshold == 0 {
		c.Processing.DedupThreshold = 0.85
	}
	if c.Processing.TimeWindowHours == 0 {
		c.Processing.TimeWindowHours = 24
	}
	if c.Processing.InsightWindowDays == 0 {
		c.Processing.InsightWindowDays = 7
	}
	if c.State.Dir == "" {
		c.State.Dir = "data"
	}
	if c.State.Ledger == "" {
		c.State.Ledger = "file"
	}
	if c.Vault.Dir == "" {
		c.Vault.Dir = "vault"
	}
	if c.Compliance.RulesPath == "" {
		c.Compliance.RulesPath = "config/rules.yaml"
	}
}

// ApplyEnvOverrides lets deployment environments override file settings.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("GRAPH_URI"); v != "" {
		c.Graph.URI = v
	}
	if v := os.Getenv("GRAPH_USER"); v != "" {
		c.Graph.User = v
	}
	if v := os.Getenv("GRAPH_PASSWORD"); v != "" {
		c.Graph.Password = v
	}
	if v := os.Getenv("VAULT_DIR"); v != "" {
		c.Vault.Dir = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
}

// SourceCategories builds the static source -> category table for the
// clustering engine, skipping entries with an invalid category label.
func (c *Config) SourceCategories() map[string]model.Category {
	out := make(map[string]model.Category, len(c.Sources))
	for _, s := range c.Sources {
		cat := model.Category(s.Category)
		if cat.Valid() {
			out[s.ID] = cat
		}
	}
	return out
}

// CategoryKeywords converts the raw keyword table onto category labels,
// dropping unknown categories.
func (c *Config) CategoryKeywords() map[model.Category][]string {
	out := make(map[model.Category][]string, len(c.Keywords))
	for raw, words := range c.Keywords {
		cat := model.Category(raw)
		if cat.Valid() {
			out[cat] = words
		}
	}
	return out
}

// EntityWatchlist converts the raw watchlist onto entity kinds; unknown
// kinds fall back to "other".
func (c *Config) EntityWatchlist() map[string]model.EntityKind {
	out := make(map[string]model.EntityKind, len(c.Watchlist))
	for name, raw := range c.Watchlist {
		switch kind := model.EntityKind(raw); kind {
		case model.EntityOrganization, model.EntityPerson, model.EntityEvent:
			out[name] = kind
		default:
			out[name] = model.EntityOther
		}
	}
	return out
}
