package appconf

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// JSONConfig is the on-disk form of every setting the server accepts.
// Zero values fall back to the same defaults as the command-line flags.
type JSONConfig struct {
	Port          int      `json:"port"`
	Env           string   `json:"env"`
	ApiKeys       []string `json:"api-keys"`
	ExemptApiKeys []string `json:"exempt-api-keys"`
	RateLimit     int      `json:"rate-limit"`
	Verbose       bool     `json:"verbose"`

	VehiclePositionsURL  string `json:"vehicle-positions-url"`
	AuthHeaderKey        string `json:"auth-header-key"`
	AuthHeaderValue      string `json:"auth-header-value"`
	FetchIntervalSeconds int    `json:"fetch-interval-seconds"`

	ArenaCapacity int  `json:"arena-capacity"`
	QueueCapacity int  `json:"queue-capacity"`
	WindowLength  int  `json:"window-length"`
	H3Resolution  *int `json:"h3-resolution"`
}

// FeedConfigData carries the upstream feed settings without tying appconf
// to the feed package.
type FeedConfigData struct {
	VehiclePositionsURL string
	AuthHeaderKey       string
	AuthHeaderValue     string
}

// LoadFromFile reads and validates a JSON configuration file.
func LoadFromFile(path string) (*JSONConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file %q: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg JSONConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *JSONConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if _, err := EnvFlagToEnvironment(c.Env); err != nil {
		return err
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate-limit must not be negative")
	}
	if c.VehiclePositionsURL != "" &&
		!strings.HasPrefix(c.VehiclePositionsURL, "http://") &&
		!strings.HasPrefix(c.VehiclePositionsURL, "https://") {
		return fmt.Errorf("vehicle-positions-url must be an http(s) URL")
	}
	return c.ToPipelineConfig().Validate()
}

func (c *JSONConfig) ToAppConfig() Config {
	env, _ := EnvFlagToEnvironment(c.Env)
	port := c.Port
	if port == 0 {
		port = 4000
	}
	rateLimit := c.RateLimit
	if rateLimit == 0 {
		rateLimit = 100
	}
	return Config{
		Port:          port,
		Env:           env,
		ApiKeys:       c.ApiKeys,
		ExemptApiKeys: c.ExemptApiKeys,
		Verbose:       c.Verbose,
		RateLimit:     rateLimit,
	}
}

func (c *JSONConfig) ToFeedConfigData() FeedConfigData {
	return FeedConfigData{
		VehiclePositionsURL: c.VehiclePositionsURL,
		AuthHeaderKey:       c.AuthHeaderKey,
		AuthHeaderValue:     c.AuthHeaderValue,
	}
}

func (c *JSONConfig) ToPipelineConfig() PipelineConfig {
	cfg := DefaultPipelineConfig()
	if c.ArenaCapacity != 0 {
		cfg.ArenaCapacity = c.ArenaCapacity
	}
	if c.QueueCapacity != 0 {
		cfg.QueueCapacity = c.QueueCapacity
	}
	if c.WindowLength != 0 {
		cfg.WindowLength = c.WindowLength
	}
	if c.H3Resolution != nil {
		cfg.H3Resolution = *c.H3Resolution
	}
	if c.FetchIntervalSeconds != 0 {
		cfg.FetchInterval = time.Duration(c.FetchIntervalSeconds) * time.Second
	}
	return cfg
}
