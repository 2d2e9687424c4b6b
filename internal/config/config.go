package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider modes.
const (
	// ProviderModeRemote talks to the hosted voice-agent and telephony APIs.
	ProviderModeRemote = "remote"
	// ProviderModeSandbox serves records imported into the local Pebble store.
	ProviderModeSandbox = "sandbox"
)

// MaxWalkPageSize is the largest page any provider serves in one request
// (Twilio caps PageSize at 1000). A walk asking for more would read a short
// page as the end of the listing.
const MaxWalkPageSize = 1000

// Config is the top-level configuration loaded from file/env.
type Config struct {
	HTTPAddr string         `json:"httpAddr" yaml:"httpAddr"`
	DataDir  string         `json:"dataDir" yaml:"dataDir"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	Walk     WalkConfig     `json:"walk" yaml:"walk"`
	Paging   PagingConfig   `json:"paging" yaml:"paging"`
	// CacheTTL keeps completed walks in memory for reuse by subsequent pages.
	// Zero disables the cache.
	CacheTTL Duration `json:"cacheTTL" yaml:"cacheTTL"`
}

// ProviderConfig holds upstream endpoints and credentials.
type ProviderConfig struct {
	Mode string `json:"mode" yaml:"mode"`

	VAPIBaseURL string `json:"vapiBaseURL" yaml:"vapiBaseURL"`
	VAPIKey     string `json:"vapiKey" yaml:"vapiKey"`

	TwilioBaseURL    string `json:"twilioBaseURL" yaml:"twilioBaseURL"`
	TwilioAccountSID string `json:"twilioAccountSID" yaml:"twilioAccountSID"`
	TwilioAuthToken  string `json:"twilioAuthToken" yaml:"twilioAuthToken"`

	// RequestsPerSecond and Burst bound outgoing calls per provider client.
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond"`
	Burst             int     `json:"burst" yaml:"burst"`
	// FetchTimeout bounds a single page-fetch attempt.
	FetchTimeout Duration `json:"fetchTimeout" yaml:"fetchTimeout"`
}

// WalkConfig bounds cursor walks.
type WalkConfig struct {
	PageSize     int      `json:"pageSize" yaml:"pageSize"`
	MaxRecords   int      `json:"maxRecords" yaml:"maxRecords"`
	MaxPages     int      `json:"maxPages" yaml:"maxPages"`
	RetryBackoff Duration `json:"retryBackoff" yaml:"retryBackoff"`
}

// PagingConfig controls the page windows served to clients.
type PagingConfig struct {
	DefaultPageSize int `json:"defaultPageSize" yaml:"defaultPageSize"`
	MaxPageSize     int `json:"maxPageSize" yaml:"maxPageSize"`
	// EstimatedTotal is reported as totalCount when the provider cannot tell
	// how many records exist and the walk stopped before exhausting it.
	EstimatedTotal int `json:"estimatedTotal" yaml:"estimatedTotal"`
}

// Duration decodes from strings like "10s" in JSON and YAML.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int64
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return fmt.Errorf("duration: %w", err)
		}
		*d = Duration(time.Duration(n) * time.Millisecond)
		return nil
	}
	return d.parse(s)
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.parse(n.Value)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Provider: ProviderConfig{
			Mode:              ProviderModeRemote,
			VAPIBaseURL:       "https://api.vapi.ai",
			TwilioBaseURL:     "https://api.twilio.com",
			RequestsPerSecond: 5,
			Burst:             5,
			FetchTimeout:      Duration(10 * time.Second),
		},
		Walk: WalkConfig{
			PageSize:     100,
			MaxRecords:   5000,
			MaxPages:     100,
			RetryBackoff: Duration(250 * time.Millisecond),
		},
		Paging: PagingConfig{
			DefaultPageSize: 30,
			MaxPageSize:     500,
			EstimatedTotal:  1000,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate reports settings the engine cannot run with.
func (c Config) Validate() error {
	switch c.Provider.Mode {
	case ProviderModeRemote, ProviderModeSandbox:
	default:
		return fmt.Errorf("config: unknown provider mode %q", c.Provider.Mode)
	}
	if c.Walk.PageSize <= 0 {
		return fmt.Errorf("config: walk.pageSize must be positive")
	}
	if c.Walk.PageSize > MaxWalkPageSize {
		return fmt.Errorf("config: walk.pageSize must be <= %d, got %d", MaxWalkPageSize, c.Walk.PageSize)
	}
	if c.Paging.MaxPageSize <= 0 || c.Paging.DefaultPageSize <= 0 {
		return fmt.Errorf("config: paging sizes must be positive")
	}
	if c.Paging.DefaultPageSize > c.Paging.MaxPageSize {
		return fmt.Errorf("config: paging.defaultPageSize exceeds maxPageSize")
	}
	return nil
}
