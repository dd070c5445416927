package appconf

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Environment selects logging format and exposure of debug endpoints.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Development:
		return "development"
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "unknown"
	}
}

// EnvFlagToEnvironment converts the -env flag value to an Environment.
func EnvFlagToEnvironment(env string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "":
		return Development, nil
	case "test":
		return Test, nil
	case "production", "prod":
		return Production, nil
	default:
		return Development, fmt.Errorf("unknown environment %q", env)
	}
}

// Config holds the HTTP server settings.
type Config struct {
	Port          int
	Env           Environment
	ApiKeys       []string
	ExemptApiKeys []string
	Verbose       bool
	RateLimit     int // requests per second per API key
}

// Pipeline sizing defaults.
const (
	DefaultArenaCapacity = 1 << 17
	DefaultQueueCapacity = 1024
	DefaultWindowLength  = 60
	DefaultH3Resolution  = 9
	DefaultFetchInterval = 15 * time.Second

	maxWindowLength = 60
)

var (
	ErrArenaCapacity = errors.New("arena capacity must be a positive power of two")
	ErrQueueCapacity = errors.New("queue capacity must be positive")
	ErrWindowLength  = fmt.Errorf("window length must be between 1 and %d", maxWindowLength)
	ErrH3Resolution  = errors.New("h3 resolution must be between 0 and 15")
	ErrFetchInterval = errors.New("fetch interval must be positive")
)

// PipelineConfig sizes the ingestion queue and the cell arena. The ratio of
// ArenaCapacity to the number of distinct cells the feed covers at
// H3Resolution bounds how often two cells share a bucket.
type PipelineConfig struct {
	ArenaCapacity int
	QueueCapacity int
	WindowLength  int
	H3Resolution  int
	FetchInterval time.Duration
}

// DefaultPipelineConfig returns the reference sizing.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ArenaCapacity: DefaultArenaCapacity,
		QueueCapacity: DefaultQueueCapacity,
		WindowLength:  DefaultWindowLength,
		H3Resolution:  DefaultH3Resolution,
		FetchInterval: DefaultFetchInterval,
	}
}

// Validate reports every invalid field, joined.
func (c PipelineConfig) Validate() error {
	var errs []error
	if c.ArenaCapacity <= 0 || c.ArenaCapacity&(c.ArenaCapacity-1) != 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrArenaCapacity, c.ArenaCapacity))
	}
	if c.QueueCapacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrQueueCapacity, c.QueueCapacity))
	}
	if c.WindowLength < 1 || c.WindowLength > maxWindowLength {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrWindowLength, c.WindowLength))
	}
	if c.H3Resolution < 0 || c.H3Resolution > 15 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrH3Resolution, c.H3Resolution))
	}
	if c.FetchInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %s", ErrFetchInterval, c.FetchInterval))
	}
	return errors.Join(errs...)
}
