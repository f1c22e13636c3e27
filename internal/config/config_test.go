// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"CONFIG_FILE", "PORT", "ENVIRONMENT", "LOG_LEVEL", "STORAGE_TYPE", "STORAGE_PATH",
	"DOCKER_CONTAINER", "DATABASE_DRIVER", "DATABASE_URL", "POLL_INTERVAL", "AI_MODEL",
	"LLM_API_KEY", "OPENROUTER_API_KEY", "LLM_MAX_RETRIES", "CHUNK_SIZE", "CHUNK_OVERLAP",
	"PIPELINE_FREE_TIERS", "PIPELINE_DEFAULT_TIER", "GARAGE_ENDPOINT", "GARAGE_BUCKET", "CLEANUP_INTERVAL",
}

// clearEnv vide les variables de config et les restaure à la fin du test
func clearEnv(t *testing.T) {
	oldValues := make(map[string]string)
	for _, key := range configEnvVars {
		oldValues[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for key, value := range oldValues {
			if value != "" {
				os.Setenv(key, value)
			} else {
				os.Unsetenv(key)
			}
		}
	})
}

func TestConfigLoad(t *testing.T) {
	clearEnv(t)
	os.Setenv("STORAGE_PATH", "./storage")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, "filesystem", cfg.Storage.Type)
	assert.Equal(t, "./storage", cfg.Storage.BasePath)
	assert.Equal(t, "postgres", cfg.Database.Driver)

	// Scheduler
	assert.Equal(t, 5*time.Second, cfg.Worker.PollInterval)
	assert.Equal(t, 100, cfg.Worker.MinTextLength)
	assert.Equal(t, 100, cfg.Worker.ErrorMessageLimit)

	// Service de complétion
	assert.Equal(t, "google/gemini-2.0-flash-001", cfg.LLM.Model)
	assert.Equal(t, 180*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.LLM.BackoffBase)

	// Pipeline
	assert.Equal(t, 8000, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 300, cfg.Pipeline.ChunkOverlap)
	assert.Equal(t, []string{"free"}, cfg.Pipeline.FreeTiers)
	assert.Equal(t, "pro", cfg.Pipeline.DefaultTier)
	assert.Equal(t, int64(50*1024*1024), cfg.Pipeline.MaxUploadSize)
}

func TestConfigWithDockerEnvironment(t *testing.T) {
	clearEnv(t)
	os.Setenv("DOCKER_CONTAINER", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/app/storage", cfg.Storage.BasePath)
}

func TestConfigWithoutExplicitPaths(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, []string{"./storage", "/app/storage"}, cfg.Storage.BasePath)
}

func TestConfigWithEnvVars(t *testing.T) {
	clearEnv(t)

	envVars := map[string]string{
		"PORT":                "9000",
		"STORAGE_TYPE":        "garage",
		"GARAGE_ENDPOINT":     "https://garage.example.com",
		"GARAGE_BUCKET":       "custom-bucket",
		"DATABASE_DRIVER":     "sqlite",
		"DATABASE_URL":        "file:coursegen.db",
		"POLL_INTERVAL":       "2s",
		"AI_MODEL":            "anthropic/claude-3.5-haiku",
		"OPENROUTER_API_KEY":  "sk-or-test",
		"LLM_MAX_RETRIES":     "5",
		"CHUNK_SIZE":          "4000",
		"CHUNK_OVERLAP":       "200",
		"PIPELINE_FREE_TIERS": "free, trial ,",
	}
	for key, value := range envVars {
		os.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "garage", cfg.Storage.Type)
	assert.Equal(t, "https://garage.example.com", cfg.Storage.Endpoint)
	assert.Equal(t, "custom-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:coursegen.db", cfg.Database.URL)
	assert.Equal(t, 2*time.Second, cfg.Worker.PollInterval)
	assert.Equal(t, "anthropic/claude-3.5-haiku", cfg.LLM.Model)
	assert.Equal(t, "sk-or-test", cfg.LLM.APIKey)
	assert.Equal(t, 5, cfg.LLM.MaxRetries)
	assert.Equal(t, 4000, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 200, cfg.Pipeline.ChunkOverlap)
	assert.Equal(t, []string{"free", "trial"}, cfg.Pipeline.FreeTiers)
}

func TestConfigInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	os.Setenv("POLL_INTERVAL", "not-a-duration")
	os.Setenv("LLM_MAX_RETRIES", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Worker.PollInterval)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
}

func TestConfigFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "coursegen.yaml")
	content := `
port: "7000"
log_level: debug
database:
  driver: sqlite
  url: "file::memory:"
worker:
  poll_interval: 10s
  min_text_length: 250
llm:
  model: openai/gpt-4o-mini
  max_retries: 2
pipeline:
  chunk_size: 6000
  chunk_overlap: 250
  free_tiers: [free, starter]
storage:
  type: filesystem
  base_path: /data/storage
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	os.Setenv("CONFIG_FILE", path)
	os.Setenv("PORT", "7100") // l'environnement prime sur le fichier

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7100", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Worker.PollInterval)
	assert.Equal(t, 250, cfg.Worker.MinTextLength)
	assert.Equal(t, 100, cfg.Worker.ErrorMessageLimit) // valeur par défaut conservée
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, 6000, cfg.Pipeline.ChunkSize)
	assert.Equal(t, []string{"free", "starter"}, cfg.Pipeline.FreeTiers)
	assert.Equal(t, "/data/storage", cfg.Storage.BasePath)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.Pipeline.ChunkSize = 0 }},
		{"overlap larger than chunk", func(c *Config) { c.Pipeline.ChunkOverlap = c.Pipeline.ChunkSize }},
		{"negative overlap", func(c *Config) { c.Pipeline.ChunkOverlap = -1 }},
		{"zero poll interval", func(c *Config) { c.Worker.PollInterval = 0 }},
		{"negative retries", func(c *Config) { c.LLM.MaxRetries = -1 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, defaults().Validate())
}

func TestConfigMissingFile(t *testing.T) {
	clearEnv(t)
	os.Setenv("CONFIG_FILE", "/nonexistent/coursegen.yaml")

	_, err := Load()
	assert.Error(t, err)
}
