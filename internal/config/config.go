// Package config loads chronocall settings. Sources are applied in order,
// later ones winning: built-in defaults, an optional YAML file, a .env file,
// environment variables, and finally command-line flags (applied by cmd).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wayward-wolves/chronocall/internal/calendar"
	"github.com/wayward-wolves/chronocall/internal/messages"
)

// Environment variable names.
const (
	EnvModelEndpoint     = "CHRONOCALL_MODEL_ENDPOINT"
	EnvModelTimeout      = "CHRONOCALL_MODEL_TIMEOUT"
	EnvSystemPrompt      = "CHRONOCALL_SYSTEM_PROMPT"
	EnvGoogleClientID    = "GOOGLE_CLIENT_ID"
	EnvGoogleSecret      = "GOOGLE_CLIENT_SECRET"
	EnvGoogleRedirectURL = "GOOGLE_REDIRECT_URL"
	EnvCalendarID        = "CHRONOCALL_CALENDAR_ID"
	EnvTimeZone          = "CHRONOCALL_TIMEZONE"
	EnvUTCOffset         = "CHRONOCALL_UTC_OFFSET"
	EnvEventDuration     = "CHRONOCALL_EVENT_DURATION"
	EnvLanguage          = "CHRONOCALL_LANGUAGE"
	EnvHTTPAddr          = "CHRONOCALL_HTTP_ADDR"
	EnvMetricsEnabled    = "METRICS_ENABLED"
	EnvMetricsAddr       = "METRICS_ADDR"
	EnvTokenDir          = "CHRONOCALL_TOKEN_DIR"
	EnvSessionTimeout    = "CHRONOCALL_SESSION_TIMEOUT"
)

// DefaultModelEndpoint is where a locally served model listens.
const DefaultModelEndpoint = "http://127.0.0.1:8000/generate"

// DefaultEnvFile is read when present.
const DefaultEnvFile = ".env"

// ModelConfig configures the model service client.
type ModelConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Timeout      time.Duration `yaml:"timeout"`
	SystemPrompt string        `yaml:"system_prompt"`
}

// GoogleConfig holds the OAuth client registered with Google.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// CalendarConfig selects the calendar and the reference zone.
type CalendarConfig struct {
	ID            string        `yaml:"id"`
	TimeZone      string        `yaml:"timezone"`
	UTCOffset     time.Duration `yaml:"utc_offset"`
	EventDuration time.Duration `yaml:"event_duration"`
}

// HTTPConfig configures the web front-end.
type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
}

// MetricsConfig configures the Prometheus scrape server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Config is the complete application configuration.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Google   GoogleConfig   `yaml:"google"`
	Calendar CalendarConfig `yaml:"calendar"`
	Language string         `yaml:"language"`
	HTTP     HTTPConfig     `yaml:"http"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	TokenDir string         `yaml:"token_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Endpoint: DefaultModelEndpoint,
			Timeout:  120 * time.Second,
		},
		Google: GoogleConfig{
			RedirectURL: "http://localhost:8080/oauth/callback",
		},
		Calendar: CalendarConfig{
			ID:            calendar.DefaultCalendarID,
			TimeZone:      calendar.DefaultZoneName,
			UTCOffset:     calendar.DefaultZoneOffset,
			EventDuration: time.Hour,
		},
		Language: messages.DefaultLanguage,
		HTTP: HTTPConfig{
			Addr:           ":8080",
			SessionTimeout: 24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (if path is
// not empty), envFile (if it exists) and the process environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decodeYAML(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		// Variables already set in the environment are not overridden.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
// All malformed values are reported together.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid boolean %q", key, v))
				return
			}
			*dst = b
		}
	}

	str(EnvModelEndpoint, &c.Model.Endpoint)
	dur(EnvModelTimeout, &c.Model.Timeout)
	str(EnvSystemPrompt, &c.Model.SystemPrompt)
	str(EnvGoogleClientID, &c.Google.ClientID)
	str(EnvGoogleSecret, &c.Google.ClientSecret)
	str(EnvGoogleRedirectURL, &c.Google.RedirectURL)
	str(EnvCalendarID, &c.Calendar.ID)
	str(EnvTimeZone, &c.Calendar.TimeZone)
	dur(EnvUTCOffset, &c.Calendar.UTCOffset)
	dur(EnvEventDuration, &c.Calendar.EventDuration)
	str(EnvLanguage, &c.Language)
	str(EnvHTTPAddr, &c.HTTP.Addr)
	dur(EnvSessionTimeout, &c.HTTP.SessionTimeout)
	boolean(EnvMetricsEnabled, &c.Metrics.Enabled)
	str(EnvMetricsAddr, &c.Metrics.Addr)
	str(EnvTokenDir, &c.TokenDir)

	return errors.Join(errs...)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Model.Endpoint == "" {
		errs = append(errs, errors.New("model endpoint is required"))
	} else if u, err := url.Parse(c.Model.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("model endpoint %q must be an http(s) URL", c.Model.Endpoint))
	}
	if c.Model.Timeout <= 0 {
		errs = append(errs, errors.New("model timeout must be positive"))
	}
	if c.Calendar.ID == "" {
		errs = append(errs, errors.New("calendar id is required"))
	}
	if c.Calendar.TimeZone == "" {
		errs = append(errs, errors.New("calendar timezone is required"))
	}
	if c.Calendar.UTCOffset < -12*time.Hour || c.Calendar.UTCOffset > 14*time.Hour {
		errs = append(errs, fmt.Errorf("utc offset %s is out of range", c.Calendar.UTCOffset))
	}
	if c.Calendar.EventDuration <= 0 {
		errs = append(errs, errors.New("event duration must be positive"))
	}
	if !messages.Supported(c.Language) {
		errs = append(errs, fmt.Errorf("unsupported language %q (want th or en)", c.Language))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if c.HTTP.SessionTimeout <= 0 {
		errs = append(errs, errors.New("session timeout must be positive"))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("metrics address is required when metrics are enabled"))
	}

	return errors.Join(errs...)
}

// ValidateGoogle reports missing OAuth client settings. Only commands that
// talk to Google need them.
func (c *Config) ValidateGoogle() error {
	var missing []string
	if c.Google.ClientID == "" {
		missing = append(missing, EnvGoogleClientID)
	}
	if c.Google.ClientSecret == "" {
		missing = append(missing, EnvGoogleSecret)
	}
	if len(missing) > 0 {
		return fmt.Errorf("google OAuth client is not configured: set %s", strings.Join(missing, " and "))
	}
	return nil
}

// Zone returns the reference time zone.
func (c *Config) Zone() calendar.Zone {
	return calendar.NewZone(c.Calendar.TimeZone, c.Calendar.UTCOffset)
}
