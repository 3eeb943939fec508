package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// TASKFLOW_DATABASE_URL for database.url.
const EnvPrefix = "TASKFLOW"

// DefaultScheduleTimes are the local times of the four daily notification cycles.
var DefaultScheduleTimes = []string{"08:00", "12:00", "17:00", "20:00"}

// Load configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate runs struct tag validation followed by the cross-field rules
// that tags cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var problems []string
	switch cfg.Email.Provider {
	case "smtp":
		if cfg.Email.SMTP.Host == "" {
			problems = append(problems, "email.smtp.host is required for the smtp provider")
		}
		if cfg.Email.FromAddress == "" {
			problems = append(problems, "email.from_address is required for the smtp provider")
		}
	case "brevo":
		if cfg.Email.Brevo.APIKey == "" {
			problems = append(problems, "email.brevo.api_key is required for the brevo provider")
		}
		if cfg.Email.FromAddress == "" {
			problems = append(problems, "email.from_address is required for the brevo provider")
		}
	}

	for _, raw := range cfg.Notifications.ScheduleTimes {
		if _, _, err := ParseClock(raw); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if _, err := time.LoadLocation(cfg.Notifications.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("notifications.timezone %q is not a known location", cfg.Notifications.Timezone))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ParseClock parses an "HH:MM" wall-clock time.
func ParseClock(raw string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, 0, fmt.Errorf("schedule time %q must be HH:MM", raw)
	}
	return t.Hour(), t.Minute(), nil
}

// Location returns the configured notification time zone.
func (c NotificationConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// PollInterval returns the scheduler polling period.
func (c NotificationConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("database.driver", "pgx")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("email.provider", "none")
	v.SetDefault("email.from_address", "")
	v.SetDefault("email.from_name", "TaskFlow")
	v.SetDefault("email.timeout_seconds", 10)
	v.SetDefault("email.rate_per_second", 5.0)
	v.SetDefault("email.burst", 5)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.brevo.api_key", "")
	v.SetDefault("email.brevo.base_url", "https://api.brevo.com")

	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.schedule_times", DefaultScheduleTimes)
	v.SetDefault("notifications.timezone", "UTC")
	v.SetDefault("notifications.poll_interval_seconds", 60)
	v.SetDefault("notifications.dedup_policy", "batch")
	v.SetDefault("notifications.async_immediate", false)
	v.SetDefault("notifications.immediate_workers", 2)
	v.SetDefault("notifications.immediate_queue_size", 100)
}
