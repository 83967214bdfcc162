package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", s.DataPath)
	assert.Equal(t, "models/courtvision-v1.json", s.ModelPath)
	assert.Equal(t, 8090, s.ServerPort)
	assert.Equal(t, 8080, s.MetricsPort)
	assert.Equal(t, 6*time.Hour, s.SyncInterval)
	assert.Equal(t, 7, s.SyncDaysBack)
	assert.Equal(t, 7, s.MaxRestDays)
	assert.Equal(t, 2, s.DefaultRestDays)
	assert.Equal(t, 10, s.H2HLookback)
	assert.Equal(t, 50.0, s.ConfidenceFloor)
	assert.Equal(t, 95.0, s.ConfidenceCeiling)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("NBA_API_KEY", "secret")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SYNC_INTERVAL", "30m")
	t.Setenv("MAX_REST_DAYS", "10")
	t.Setenv("CONFIDENCE_CEILING", "90")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", s.APIKey)
	assert.Equal(t, 9000, s.ServerPort)
	assert.Equal(t, 30*time.Minute, s.SyncInterval)
	assert.Equal(t, 10, s.MaxRestDays)
	assert.Equal(t, 90.0, s.ConfidenceCeiling)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  key: yaml-key
  baseURL: https://example.test/v1
features:
  maxRestDays: 5
  h2hLookback: 20
model:
  path: models/custom.json
  confidenceFloor: 55
  confidenceCeiling: 92
system:
  dataPath: /var/lib/courtvision
  serverPort: 9100
  metricsPort: 9101
  syncInterval: 2h
  syncDaysBack: 14
  restTimeout: 15s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "yaml-key", s.APIKey)
	assert.Equal(t, "https://example.test/v1", s.APIBaseURL)
	assert.Equal(t, "models/custom.json", s.ModelPath)
	assert.Equal(t, "/var/lib/courtvision", s.DataPath)
	assert.Equal(t, 9100, s.ServerPort)
	assert.Equal(t, 2*time.Hour, s.SyncInterval)
	assert.Equal(t, 14, s.SyncDaysBack)
	assert.Equal(t, 15*time.Second, s.RESTTimeout)
	assert.Equal(t, 5, s.MaxRestDays)
	assert.Equal(t, 20, s.H2HLookback)
	assert.Equal(t, 55.0, s.ConfidenceFloor)
	assert.Equal(t, 92.0, s.ConfidenceCeiling)

	// Unset values fall back to defaults.
	assert.Equal(t, 2, s.DefaultRestDays)
	assert.Equal(t, 10, s.StreakLookback)
}

func TestLoad_EnvBeatsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  key: yaml-key
system:
  dataPath: /from/yaml
  serverPort: 9100
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("NBA_API_KEY", "env-key")
	t.Setenv("SERVER_PORT", "9200")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", s.APIKey)
	assert.Equal(t, 9200, s.ServerPort)
	assert.Equal(t, "/from/yaml", s.DataPath)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"privileged server port", "SERVER_PORT", "80"},
		{"metrics port too high", "METRICS_PORT", "70000"},
		{"sync interval too short", "SYNC_INTERVAL", "5s"},
		{"sync days back zero", "SYNC_DAYS_BACK", "0"},
		{"rest timeout too long", "REST_TIMEOUT", "5m"},
		{"max rest days zero", "MAX_REST_DAYS", "0"},
		{"default rest above cap", "DEFAULT_REST_DAYS", "20"},
		{"confidence floor above ceiling", "CONFIDENCE_FLOOR", "99"},
		{"confidence ceiling above 100", "CONFIDENCE_CEILING", "120"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_SamePortRejected(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVER_PORT", "9300")
	t.Setenv("METRICS_PORT", "9300")

	_, err := Load()
	assert.Error(t, err)
}
