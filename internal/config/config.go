package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"factgrip/internal/eventbus"
)

// Environment overrides
const (
	EnvAPIURL   = "FACTGRIP_API_URL"
	EnvLogLevel = "FACTGRIP_LOG_LEVEL"
)

// Config represents the application configuration
type Config struct {
	Version  int              `toml:"version"`
	API      APISettings      `toml:"api"`
	Search   SearchSettings   `toml:"search"`
	Random   RandomSettings   `toml:"random"`
	Progress ProgressSettings `toml:"progress"`
	Log      LogSettings      `toml:"log"`
	History  HistorySettings  `toml:"history"`
}

// APISettings configures the facts service client
type APISettings struct {
	BaseURL        string `toml:"base_url"`
	TimeoutMs      int    `toml:"timeout_ms"`
	SuggestionSize int    `toml:"suggestion_size"` // 0 leaves the page size to the server
}

// SearchSettings configures autocomplete and query search
type SearchSettings struct {
	DebounceMs int `toml:"debounce_ms"`
	MaxResults int `toml:"max_results"`
}

// RandomSettings configures random fact batches
type RandomSettings struct {
	Count int `toml:"count"`
}

// ProgressSettings configures the simulated progress bar
type ProgressSettings struct {
	DurationMs int `toml:"duration_ms"`
	IntervalMs int `toml:"interval_ms"`
}

// LogSettings configures logging
type LogSettings struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// HistorySettings holds recently submitted queries
type HistorySettings struct {
	MaxEntries int      `toml:"max_entries"`
	Recent     []string `toml:"recent"`
}

// Timeout returns the HTTP client timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutMs) * time.Millisecond
}

// DebounceWait returns the autocomplete debounce window
func (c *Config) DebounceWait() time.Duration {
	return time.Duration(c.Search.DebounceMs) * time.Millisecond
}

// ProgressDuration returns the nominal duration of the progress animation
func (c *Config) ProgressDuration() time.Duration {
	return time.Duration(c.Progress.DurationMs) * time.Millisecond
}

// ProgressInterval returns the progress tick interval
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Progress.IntervalMs) * time.Millisecond
}

// Validate replaces out of range values with defaults and returns the names
// of the fields it changed
func (c *Config) Validate() []string {
	def := DefaultConfig()
	var fixed []string

	if c.Version <= 0 {
		c.Version = def.Version
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		c.API.BaseURL = def.API.BaseURL
		fixed = append(fixed, "api.base_url")
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.TimeoutMs <= 0 {
		c.API.TimeoutMs = def.API.TimeoutMs
		fixed = append(fixed, "api.timeout_ms")
	}
	if c.API.SuggestionSize < 0 {
		c.API.SuggestionSize = 0
		fixed = append(fixed, "api.suggestion_size")
	}
	if c.Search.DebounceMs <= 0 {
		c.Search.DebounceMs = def.Search.DebounceMs
		fixed = append(fixed, "search.debounce_ms")
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = def.Search.MaxResults
		fixed = append(fixed, "search.max_results")
	}
	if c.Random.Count <= 0 {
		c.Random.Count = def.Random.Count
		fixed = append(fixed, "random.count")
	}
	if c.Progress.DurationMs <= 0 {
		c.Progress.DurationMs = def.Progress.DurationMs
		fixed = append(fixed, "progress.duration_ms")
	}
	if c.Progress.IntervalMs <= 0 {
		c.Progress.IntervalMs = def.Progress.IntervalMs
		fixed = append(fixed, "progress.interval_ms")
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.File == "" {
		c.Log.File = def.Log.File
	}
	if c.History.MaxEntries < 0 {
		c.History.MaxEntries = def.History.MaxEntries
		fixed = append(fixed, "history.max_entries")
	}
	if len(c.History.Recent) > c.History.MaxEntries {
		c.History.Recent = c.History.Recent[:c.History.MaxEntries]
	}
	return fixed
}

// ApplyEnv overrides settings from the environment. A .env file in the
// working directory is loaded first if present.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// DefaultPath returns the config file location under the user config dir
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "factgrip", "config.toml")
}

// NewConfigService creates a config service for path; an empty path means
// DefaultPath. bus may be nil.
func NewConfigService(path string, bus eventbus.EventBus) ConfigService {
	if path == "" {
		path = DefaultPath()
	}
	return &configService{
		bus:      bus,
		filePath: path,
	}
}

// Path returns the file the service reads and writes
func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from file. A missing file yields the defaults.
func (cs *configService) Load() (*Config, error) {
	cfg, err := cs.LoadFromPath(cs.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{
			Path:    cs.filePath,
			BaseURL: cfg.API.BaseURL,
		})
	}

	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}

	return nil
}

// LoadFromPath loads configuration from a specific path. Keys missing from
// the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Validate()

	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		API: APISettings{
			BaseURL:   "http://localhost:8080/api",
			TimeoutMs: 10000,
		},
		Search: SearchSettings{
			DebounceMs: 300,
			MaxResults: 10,
		},
		Random: RandomSettings{
			Count: 4,
		},
		Progress: ProgressSettings{
			DurationMs: 1500,
			IntervalMs: 50,
		},
		Log: LogSettings{
			Level: "info",
			File:  "factgrip.log",
		},
		History: HistorySettings{
			MaxEntries: 20,
			Recent:     []string{},
		},
	}
}

// RememberQuery returns recent with query moved to the front, de-duplicated
// and trimmed to max entries
func RememberQuery(recent []string, query string, max int) []string {
	query = strings.TrimSpace(query)
	if query == "" || max <= 0 {
		return recent
	}
	out := make([]string, 0, max)
	out = append(out, query)
	for _, q := range recent {
		if len(out) >= max {
			break
		}
		if q != query {
			out = append(out, q)
		}
	}
	return out
}
