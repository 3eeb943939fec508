package config

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig       `mapstructure:"server" validate:"required"`
	Database      DatabaseConfig     `mapstructure:"database" validate:"required"`
	Auth          AuthConfig         `mapstructure:"auth" validate:"required"`
	Email         EmailConfig        `mapstructure:"email" validate:"required"`
	Notifications NotificationConfig `mapstructure:"notifications" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// DatabaseConfig selects the SQL driver and connection string.
// Driver "pgx" expects a PostgreSQL URL; driver "sqlite" expects a file
// path or ":memory:".
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=pgx sqlite"`
	URL          string `mapstructure:"url" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

// AuthConfig contains all authentication settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lt=44641"`
	BCryptCost           int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// EmailConfig selects and configures the outbound email capability.
// Provider "none" disables delivery: every send is recorded as failed.
type EmailConfig struct {
	Provider       string      `mapstructure:"provider" validate:"required,oneof=none smtp brevo"`
	FromAddress    string      `mapstructure:"from_address" validate:"omitempty,email"`
	FromName       string      `mapstructure:"from_name"`
	TimeoutSeconds int         `mapstructure:"timeout_seconds" validate:"gte=1"`
	RatePerSecond  float64     `mapstructure:"rate_per_second" validate:"gte=0"`
	Burst          int         `mapstructure:"burst" validate:"gte=1"`
	SMTP           SMTPConfig  `mapstructure:"smtp"`
	Brevo          BrevoConfig `mapstructure:"brevo"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,gt=0,lt=65536"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// BrevoConfig holds Brevo transactional email API settings.
type BrevoConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

// NotificationConfig controls the notification scheduler and the
// immediate single-task path.
type NotificationConfig struct {
	Enabled             bool     `mapstructure:"enabled"`
	ScheduleTimes       []string `mapstructure:"schedule_times" validate:"required,min=1,dive,required"`
	Timezone            string   `mapstructure:"timezone" validate:"required"`
	PollIntervalSeconds int      `mapstructure:"poll_interval_seconds" validate:"gte=1"`
	DedupPolicy         string   `mapstructure:"dedup_policy" validate:"required,oneof=batch per_task"`
	AsyncImmediate      bool     `mapstructure:"async_immediate"`
	ImmediateWorkers    int      `mapstructure:"immediate_workers" validate:"gte=1"`
	ImmediateQueueSize  int      `mapstructure:"immediate_queue_size" validate:"gte=1"`
}
