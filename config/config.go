/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/suparena/recordgate"
	"github.com/suparena/recordgate/errors"
	"github.com/suparena/recordgate/recordmodels"
)

// Supported store backends.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
)

// DotEnvFile is the file Load reads environment overrides from, if present.
const DotEnvFile = ".env"

// Config holds the settings needed to build a client and its store.
type Config struct {
	Backend      string  `yaml:"backend" toml:"backend"`
	Scope        string  `yaml:"scope" toml:"scope"`
	Table        string  `yaml:"table" toml:"table"`
	Region       string  `yaml:"region" toml:"region"`
	AccessKey    string  `yaml:"access_key" toml:"access_key"`
	SecretKey    string  `yaml:"secret_key" toml:"secret_key"`
	Endpoint     string  `yaml:"endpoint" toml:"endpoint"`
	RateLimit    float64 `yaml:"rate_limit" toml:"rate_limit"`
	Burst        int     `yaml:"burst" toml:"burst"`
	LogLevel     string  `yaml:"log_level" toml:"log_level"`
	LogFile      string  `yaml:"log_file" toml:"log_file"`
	SaveStrategy string  `yaml:"save_strategy" toml:"save_strategy"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Backend:      BackendMemory,
		Scope:        recordmodels.ScopePublic.String(),
		LogLevel:     "info",
		SaveStrategy: recordgate.SaveStrategyConcurrent.String(),
	}
}

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads path (YAML or TOML; empty for none), then applies overrides
// from the process environment and from DotEnvFile, and validates the result.
// Process variables win over .env entries.
func Load(path string) (*Config, error) {
	return LoadWith(path, DotEnvFile, os.LookupEnv)
}

// LoadWith is Load with an explicit .env file and environment lookup.
func LoadWith(path, envFile string, lookup LookupFunc) (*Config, error) {
	cfg, err := ReadWith(path, envFile, lookup)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply further
// overrides, such as command-line flags, before calling Validate.
func Read(path string) (*Config, error) {
	return ReadWith(path, DotEnvFile, os.LookupEnv)
}

// ReadWith is Read with an explicit .env file and environment lookup.
func ReadWith(path, envFile string, lookup LookupFunc) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.ReadFile(path); err != nil {
			return nil, err
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = values
		case !stderrors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	if err := cfg.ApplyEnv(func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile merges a YAML (.yaml, .yml) or TOML (.toml) file into c.
func (c *Config) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return errors.NewValidationError("config", "unsupported config file type "+filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Environment variables read by ApplyEnv, in priority order per setting.
var (
	envBackend      = []string{"RECORDGATE_BACKEND"}
	envScope        = []string{"RECORDGATE_SCOPE"}
	envTable        = []string{"RECORDGATE_TABLE", "AWS_DDB_TABLE"}
	envRegion       = []string{"RECORDGATE_REGION", "AWS_REGION"}
	envAccessKey    = []string{"RECORDGATE_ACCESS_KEY", "AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY"}
	envSecretKey    = []string{"RECORDGATE_SECRET_KEY", "AWS_SECRET_ACCESS_KEY", "AWS_SECRET_KEY"}
	envEndpoint     = []string{"RECORDGATE_ENDPOINT", "DDB_ENDPOINT"}
	envRateLimit    = []string{"RECORDGATE_RATE_LIMIT"}
	envBurst        = []string{"RECORDGATE_BURST"}
	envLogLevel     = []string{"RECORDGATE_LOG_LEVEL"}
	envLogFile      = []string{"RECORDGATE_LOG_FILE"}
	envSaveStrategy = []string{"RECORDGATE_SAVE_STRATEGY"}
)

// ApplyEnv overrides settings with the environment variables that are set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	strs := []struct {
		keys []string
		dst  *string
	}{
		{envBackend, &c.Backend},
		{envScope, &c.Scope},
		{envTable, &c.Table},
		{envRegion, &c.Region},
		{envAccessKey, &c.AccessKey},
		{envSecretKey, &c.SecretKey},
		{envEndpoint, &c.Endpoint},
		{envLogLevel, &c.LogLevel},
		{envLogFile, &c.LogFile},
		{envSaveStrategy, &c.SaveStrategy},
	}
	for _, s := range strs {
		if v, ok := first(lookup, s.keys); ok {
			*s.dst = v
		}
	}

	if v, ok := first(lookup, envRateLimit); ok {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.NewValidationError("rate_limit", fmt.Sprintf("invalid number %q", v))
		}
		c.RateLimit = rps
	}
	if v, ok := first(lookup, envBurst); ok {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError("burst", fmt.Sprintf("invalid integer %q", v))
		}
		c.Burst = burst
	}
	return nil
}

func first(lookup LookupFunc, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := lookup(k); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Validate checks that the settings describe a usable client.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendDynamoDB:
		if c.Table == "" {
			return errors.NewValidationError("table", "required for the dynamodb backend")
		}
	default:
		return errors.NewValidationError("backend", fmt.Sprintf("unknown backend %q", c.Backend))
	}
	if _, err := recordmodels.ParseScope(c.Scope); err != nil {
		return err
	}
	if _, err := recordgate.ParseSaveStrategy(c.SaveStrategy); err != nil {
		return err
	}
	if c.RateLimit < 0 {
		return errors.NewValidationError("rate_limit", "must not be negative")
	}
	if c.Burst < 0 {
		return errors.NewValidationError("burst", "must not be negative")
	}
	return nil
}

// StoreScope returns the parsed scope. Call Validate first.
func (c *Config) StoreScope() recordmodels.Scope {
	scope, _ := recordmodels.ParseScope(c.Scope)
	return scope
}

// Strategy returns the parsed save strategy. Call Validate first.
func (c *Config) Strategy() recordgate.SaveStrategy {
	s, _ := recordgate.ParseSaveStrategy(c.SaveStrategy)
	return s
}
