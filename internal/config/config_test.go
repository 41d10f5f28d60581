package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnv = []string{
	EnvModelEndpoint, EnvModelTimeout, EnvSystemPrompt,
	EnvGoogleClientID, EnvGoogleSecret, EnvGoogleRedirectURL,
	EnvCalendarID, EnvTimeZone, EnvUTCOffset, EnvEventDuration,
	EnvLanguage, EnvHTTPAddr, EnvMetricsEnabled, EnvMetricsAddr,
	EnvTokenDir, EnvSessionTimeout,
}

// clearEnv unsets every config variable for the test and restores the
// previous values afterwards, including ones set by a .env file.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnv {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultModelEndpoint, cfg.Model.Endpoint)
	assert.Equal(t, "primary", cfg.Calendar.ID)
	assert.Equal(t, "th", cfg.Language)
	assert.Equal(t, time.Hour, cfg.Calendar.EventDuration)

	zone := cfg.Zone()
	assert.Equal(t, "Asia/Bangkok", zone.Name)
	_, offset := time.Date(2024, 6, 1, 0, 0, 0, 0, zone.Location).Zone()
	assert.Equal(t, 7*3600, offset)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "chronocall.yaml", `
model:
  endpoint: https://model.example.com/generate
  timeout: 30s
calendar:
  id: team@group.calendar.google.com
  event_duration: 45m
language: en
http:
  addr: 127.0.0.1:9000
metrics:
  enabled: false
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "https://model.example.com/generate", cfg.Model.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Model.Timeout)
	assert.Equal(t, "team@group.calendar.google.com", cfg.Calendar.ID)
	assert.Equal(t, 45*time.Minute, cfg.Calendar.EventDuration)
	assert.Equal(t, "Asia/Bangkok", cfg.Calendar.TimeZone, "unset keys keep defaults")
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.False(t, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "bad.yaml", "model:\n  endpiont: http://x\n"), "")
	assert.ErrorContains(t, err, "endpiont")

	cfg, err := Load(writeFile(t, "empty.yaml", ""), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "chronocall.yaml", "language: en\ncalendar:\n  id: from-yaml\n")
	envFile := writeFile(t, ".env", "CHRONOCALL_CALENDAR_ID=from-dotenv\nCHRONOCALL_LANGUAGE=th\nGOOGLE_CLIENT_ID=dotenv-client\n")
	t.Setenv(EnvLanguage, "en")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Calendar.ID, ".env beats YAML")
	assert.Equal(t, "en", cfg.Language, "environment beats .env")
	assert.Equal(t, "dotenv-client", cfg.Google.ClientID)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvModelTimeout:   "5s",
		EnvUTCOffset:      "-5h",
		EnvTimeZone:       "America/New_York",
		EnvMetricsEnabled: "false",
		EnvSessionTimeout: "30m",
		EnvTokenDir:       "/var/lib/chronocall",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok }))

	assert.Equal(t, 5*time.Second, cfg.Model.Timeout)
	assert.Equal(t, -5*time.Hour, cfg.Calendar.UTCOffset)
	assert.Equal(t, "America/New_York", cfg.Calendar.TimeZone)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.HTTP.SessionTimeout)
	assert.Equal(t, "/var/lib/chronocall", cfg.TokenDir)
}

func TestApplyEnv_ReportsAllErrors(t *testing.T) {
	env := map[string]string{
		EnvModelTimeout:   "soon",
		EnvMetricsEnabled: "maybe",
	}
	err := Default().ApplyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvModelTimeout)
	assert.Contains(t, err.Error(), EnvMetricsEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad endpoint",
			mutate:  func(c *Config) { c.Model.Endpoint = "localhost:8000" },
			wantErr: []string{"must be an http(s) URL"},
		},
		{
			name:    "empty endpoint",
			mutate:  func(c *Config) { c.Model.Endpoint = "" },
			wantErr: []string{"model endpoint is required"},
		},
		{
			name:    "unsupported language",
			mutate:  func(c *Config) { c.Language = "fr" },
			wantErr: []string{`unsupported language "fr"`},
		},
		{
			name: "several problems",
			mutate: func(c *Config) {
				c.Model.Timeout = 0
				c.Calendar.ID = ""
				c.Calendar.EventDuration = -time.Minute
				c.Calendar.UTCOffset = 15 * time.Hour
				c.Metrics.Addr = ""
			},
			wantErr: []string{
				"model timeout must be positive",
				"calendar id is required",
				"event duration must be positive",
				"out of range",
				"metrics address is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestValidateGoogle(t *testing.T) {
	cfg := Default()
	err := cfg.ValidateGoogle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")

	cfg.Google.ClientID = "id"
	assert.ErrorContains(t, cfg.ValidateGoogle(), "GOOGLE_CLIENT_SECRET")

	cfg.Google.ClientSecret = "secret"
	assert.NoError(t, cfg.ValidateGoogle())
}
