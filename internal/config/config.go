package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/screa/eth-vanity-miner/internal/crypto"
	"github.com/screa/eth-vanity-miner/pkg/keygen"
	"github.com/screa/eth-vanity-miner/pkg/pattern"
)

// Errors
var (
	ErrNoPatternSpecified = errors.New("must specify --prefix")
	ErrInvalidPattern     = errors.New("prefix must only contain lowercase hex characters 0-9 and a-f")
	ErrPatternTooLong     = errors.New("prefix is longer than an address")
	ErrInvalidWorkers     = errors.New("workers must be at least 1")
	ErrInvalidInterval    = errors.New("log interval must be at least 1 second")
)

// Keys used for flags, environment variables and config files
const (
	KeyWorkers     = "workers"
	KeyPrefix      = "prefix"
	KeyIgnoreCase  = "ignore-case"
	KeyBackend     = "backend"
	KeyVerbose     = "verbose"
	KeyLogFile     = "log-file"
	KeyLogInterval = "log-interval"
	KeyTimeout     = "timeout"

	// EnvPrefix namespaces environment variables, e.g. VANITY_WORKERS
	EnvPrefix = "VANITY"
)

// Config holds the application configuration
type Config struct {
	Workers     int
	Prefix      string
	IgnoreCase  bool // match hex digits regardless of checksum casing
	Backend     string
	Verbose     bool
	LogFile     string
	LogInterval int           // Logging interval in seconds
	Timeout     time.Duration // 0 means search until found
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Workers:     runtime.NumCPU(),
		Backend:     keygen.BackendGeth,
		LogInterval: 5, // Default 5 seconds
	}
}

// NewViper returns a viper instance reading VANITY_* environment variables
// and the defaults of NewConfig.
func NewViper() *viper.Viper {
	def := NewConfig()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyWorkers, def.Workers)
	v.SetDefault(KeyBackend, def.Backend)
	v.SetDefault(KeyLogInterval, def.LogInterval)
	return v
}

// Load builds a Config from v. A config file is read first when path is set.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	return &Config{
		Workers:     v.GetInt(KeyWorkers),
		Prefix:      pattern.Normalize(v.GetString(KeyPrefix)),
		IgnoreCase:  v.GetBool(KeyIgnoreCase),
		Backend:     v.GetString(KeyBackend),
		Verbose:     v.GetBool(KeyVerbose),
		LogFile:     v.GetString(KeyLogFile),
		LogInterval: v.GetInt(KeyLogInterval),
		Timeout:     v.GetDuration(KeyTimeout),
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Prefix == "" {
		return ErrNoPatternSpecified
	}
	p := c.Prefix
	if c.IgnoreCase {
		p = strings.ToLower(p)
	}
	if !pattern.IsPossiblePattern(p) {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, c.Prefix)
	}
	if len(p) > crypto.AddressHexLen {
		return ErrPatternTooLong
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.Verbose && c.LogInterval < 1 {
		return ErrInvalidInterval
	}
	if _, err := keygen.New(c.Backend); err != nil {
		return err
	}
	return nil
}

// CaseSensitive reports whether matching respects checksum casing
func (c *Config) CaseSensitive() bool {
	return !c.IgnoreCase
}

// GetTargetDescription returns a human-readable description of the target
func (c *Config) GetTargetDescription() string {
	if c.Prefix == "" {
		return "unknown"
	}
	if c.IgnoreCase {
		return "prefix: 0x" + c.Prefix + " (case-insensitive)"
	}
	return "prefix: 0x" + c.Prefix
}

// IsZeroPrefix returns true if the prefix is a series of 0's
func (c *Config) IsZeroPrefix() bool {
	if c.Prefix == "" {
		return false
	}
	return strings.Trim(c.Prefix, "0") == ""
}
