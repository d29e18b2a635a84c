/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/recordgate"
	"github.com/suparena/recordgate/errors"
	"github.com/suparena/recordgate/recordmodels"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadWith("", "", noEnv)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, recordmodels.ScopePublic, cfg.StoreScope())
	assert.Equal(t, recordgate.SaveStrategyConcurrent, cfg.Strategy())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "recordgate.yaml", `
backend: dynamodb
scope: private
table: records
region: eu-west-1
rate_limit: 25.5
burst: 5
save_strategy: batch
`)
	cfg, err := LoadWith(path, "", noEnv)
	require.NoError(t, err)
	assert.Equal(t, BackendDynamoDB, cfg.Backend)
	assert.Equal(t, recordmodels.ScopePrivate, cfg.StoreScope())
	assert.Equal(t, "records", cfg.Table)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, 25.5, cfg.RateLimit)
	assert.Equal(t, 5, cfg.Burst)
	assert.Equal(t, recordgate.SaveStrategyBatch, cfg.Strategy())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "recordgate.toml", `
backend = "dynamodb"
scope = "shared"
table = "records"
endpoint = "http://localhost:8000"
log_level = "debug"
`)
	cfg, err := LoadWith(path, "", noEnv)
	require.NoError(t, err)
	assert.Equal(t, recordmodels.ScopeShared, cfg.StoreScope())
	assert.Equal(t, "http://localhost:8000", cfg.Endpoint)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, "recordgate.json", `{}`)
	_, err := LoadWith(path, "", noEnv)
	assert.True(t, errors.IsValidationError(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadWith(filepath.Join(t.TempDir(), "nope.yaml"), "", noEnv)
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeFile(t, "recordgate.yaml", "backend: memory\nscope: public\n")
	envFile := writeFile(t, ".env", "AWS_DDB_TABLE=from-dotenv\nRECORDGATE_SCOPE=shared\nAWS_REGION=us-west-2\n")

	cfg, err := LoadWith(path, envFile, envOf(map[string]string{
		"RECORDGATE_BACKEND":    "dynamodb",
		"RECORDGATE_SCOPE":      "private",
		"AWS_ACCESS_KEY_ID":     "AKIA",
		"AWS_SECRET_ACCESS_KEY": "secret",
		"RECORDGATE_RATE_LIMIT": "10",
	}))
	require.NoError(t, err)

	assert.Equal(t, BackendDynamoDB, cfg.Backend)
	assert.Equal(t, recordmodels.ScopePrivate, cfg.StoreScope(), "process env wins over .env")
	assert.Equal(t, "from-dotenv", cfg.Table)
	assert.Equal(t, "us-west-2", cfg.Region)
	assert.Equal(t, "AKIA", cfg.AccessKey)
	assert.Equal(t, "secret", cfg.SecretKey)
	assert.Equal(t, 10.0, cfg.RateLimit)
}

func TestEnvironmentPrefersRecordgateKeys(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envOf(map[string]string{
		"RECORDGATE_TABLE": "primary",
		"AWS_DDB_TABLE":    "fallback",
		"AWS_ACCESS_KEY":   "legacy",
	})))
	assert.Equal(t, "primary", cfg.Table)
	assert.Equal(t, "legacy", cfg.AccessKey)
}

func TestEnvironmentRejectsBadNumbers(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envOf(map[string]string{"RECORDGATE_BURST": "lots"}))
	assert.True(t, errors.IsValidationError(err))

	err = cfg.ApplyEnv(envOf(map[string]string{"RECORDGATE_RATE_LIMIT": "fast"}))
	assert.True(t, errors.IsValidationError(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "redis" }},
		{"dynamodb without table", func(c *Config) { c.Backend = BackendDynamoDB }},
		{"unknown scope", func(c *Config) { c.Scope = "team" }},
		{"unknown strategy", func(c *Config) { c.SaveStrategy = "sequential" }},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }},
		{"negative burst", func(c *Config) { c.Burst = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.True(t, errors.IsValidationError(cfg.Validate()))
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestReadDefersValidation(t *testing.T) {
	env := envOf(map[string]string{"RECORDGATE_BACKEND": "dynamodb"})

	_, err := LoadWith("", "", env)
	assert.True(t, errors.IsValidationError(err))

	cfg, err := ReadWith("", "", env)
	require.NoError(t, err)
	require.Error(t, cfg.Validate(), "dynamodb without a table")

	cfg.Backend = BackendMemory
	assert.NoError(t, cfg.Validate())
}
