package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Log          LogConfig
	HTTP         HTTPConfig
	Reminder     ReminderConfig
	Notification NotificationConfig
	Feed         FeedConfig
	Activity     ActivityConfig
	Storage      StorageConfig
	Assistant    AssistantConfig
	Telemetry    TelemetryConfig
	Bootstrap    BootstrapConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path, ":memory:" allowed
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
	AutoMigrate     bool
	LogLevel        string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds access token settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// ReminderConfig controls the pending-work reminder job
type ReminderConfig struct {
	Enabled       bool
	Interval      time.Duration
	StartHour     int // first business hour, inclusive
	EndHour       int // last business hour, exclusive
	WeekdaysOnly  bool
	Location      string
	OverdueWindow time.Duration // assignments due within this window are flagged as due soon
}

// NotificationConfig selects the email transport
type NotificationConfig struct {
	Transport    string // log, noop, webhook, smtp
	WebhookURL   string
	WebhookToken string
	FromAddress  string
	Timeout      time.Duration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPAuth     string // PLAIN, LOGIN or CRAM-MD5; used only with a username
	SMTPTLS      string // mandatory, opportunistic or none
}

// FeedConfig configures the live feed broadcaster
type FeedConfig struct {
	Backend           string // memory or redis
	Channel           string
	BufferSize        int
	HeartbeatInterval time.Duration
}

// ActivityConfig selects the activity log sink
type ActivityConfig struct {
	Sink            string // gorm, mongo, none
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// StorageConfig holds attachment storage settings
type StorageConfig struct {
	Provider        string // s3 or stub
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	PresignExpiry   time.Duration
	MaxUploadSize   int64
}

// AssistantConfig configures the help assistant fallback model
type AssistantConfig struct {
	GeminiAPIKey string
	Model        string
	Timeout      time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	MetricsInterval   time.Duration
}

// BootstrapConfig describes the admin account created on first start
type BootstrapConfig struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// Load reads configuration with the following priority (highest first):
// ASSET_ prefixed environment variables (ASSET_DATABASE_PASSWORD), config.toml, built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ASSET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			LogLevel:        v.GetString("database.log_level"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Reminder: ReminderConfig{
			Enabled:       v.GetBool("reminder.enabled"),
			Interval:      v.GetDuration("reminder.interval"),
			StartHour:     v.GetInt("reminder.start_hour"),
			EndHour:       v.GetInt("reminder.end_hour"),
			WeekdaysOnly:  v.GetBool("reminder.weekdays_only"),
			Location:      v.GetString("reminder.location"),
			OverdueWindow: v.GetDuration("reminder.overdue_window"),
		},
		Notification: NotificationConfig{
			Transport:    v.GetString("notification.transport"),
			WebhookURL:   v.GetString("notification.webhook_url"),
			WebhookToken: v.GetString("notification.webhook_token"),
			FromAddress:  v.GetString("notification.from_address"),
			Timeout:      v.GetDuration("notification.timeout"),
			SMTPHost:     v.GetString("notification.smtp_host"),
			SMTPPort:     v.GetInt("notification.smtp_port"),
			SMTPUsername: v.GetString("notification.smtp_username"),
			SMTPPassword: v.GetString("notification.smtp_password"),
			SMTPAuth:     v.GetString("notification.smtp_auth"),
			SMTPTLS:      v.GetString("notification.smtp_tls"),
		},
		Feed: FeedConfig{
			Backend:           v.GetString("feed.backend"),
			Channel:           v.GetString("feed.channel"),
			BufferSize:        v.GetInt("feed.buffer_size"),
			HeartbeatInterval: v.GetDuration("feed.heartbeat_interval"),
		},
		Activity: ActivityConfig{
			Sink:            v.GetString("activity.sink"),
			MongoURI:        v.GetString("activity.mongo_uri"),
			MongoDatabase:   v.GetString("activity.mongo_database"),
			MongoCollection: v.GetString("activity.mongo_collection"),
		},
		Storage: StorageConfig{
			Provider:        v.GetString("storage.provider"),
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			PresignExpiry:   v.GetDuration("storage.presign_expiry"),
			MaxUploadSize:   v.GetInt64("storage.max_upload_size"),
		},
		Assistant: AssistantConfig{
			GeminiAPIKey: v.GetString("assistant.gemini_api_key"),
			Model:        v.GetString("assistant.model"),
			Timeout:      v.GetDuration("assistant.timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
		},
		Bootstrap: BootstrapConfig{
			AdminUsername: v.GetString("bootstrap.admin_username"),
			AdminEmail:    v.GetString("bootstrap.admin_email"),
			AdminPassword: v.GetString("bootstrap.admin_password"),
		},
	}

	applyDefaults(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in zero values
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "assetflow"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "assetflow"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "assetflow.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 8 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "assetflow"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// the live feed holds connections open, so writes are not bounded by default
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	if cfg.Reminder.Interval == 0 {
		cfg.Reminder.Interval = time.Hour
	}
	if cfg.Reminder.StartHour == 0 && cfg.Reminder.EndHour == 0 {
		cfg.Reminder.StartHour = 9
		cfg.Reminder.EndHour = 18
	}
	if cfg.Reminder.Location == "" {
		cfg.Reminder.Location = "Local"
	}
	if cfg.Reminder.OverdueWindow == 0 {
		cfg.Reminder.OverdueWindow = 48 * time.Hour
	}

	if cfg.Notification.Transport == "" {
		cfg.Notification.Transport = "log"
	}
	if cfg.Notification.FromAddress == "" {
		cfg.Notification.FromAddress = "no-reply@assetflow.local"
	}
	if cfg.Notification.Timeout == 0 {
		cfg.Notification.Timeout = 5 * time.Second
	}
	if cfg.Notification.SMTPPort == 0 {
		cfg.Notification.SMTPPort = 587
	}
	if cfg.Notification.SMTPAuth == "" {
		cfg.Notification.SMTPAuth = "PLAIN"
	}
	if cfg.Notification.SMTPTLS == "" {
		cfg.Notification.SMTPTLS = "mandatory"
	}

	if cfg.Feed.Backend == "" {
		cfg.Feed.Backend = "memory"
	}
	if cfg.Feed.Channel == "" {
		cfg.Feed.Channel = "assetflow:feed"
	}
	if cfg.Feed.BufferSize == 0 {
		cfg.Feed.BufferSize = 32
	}
	if cfg.Feed.HeartbeatInterval == 0 {
		cfg.Feed.HeartbeatInterval = 30 * time.Second
	}

	if cfg.Activity.Sink == "" {
		cfg.Activity.Sink = "gorm"
	}
	if cfg.Activity.MongoDatabase == "" {
		cfg.Activity.MongoDatabase = "assetflow"
	}
	if cfg.Activity.MongoCollection == "" {
		cfg.Activity.MongoCollection = "activity_logs"
	}

	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = "stub"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiry == 0 {
		cfg.Storage.PresignExpiry = 15 * time.Minute
	}
	if cfg.Storage.MaxUploadSize == 0 {
		cfg.Storage.MaxUploadSize = 10 << 20
	}

	if cfg.Assistant.Model == "" {
		cfg.Assistant.Model = "gemini-1.5-flash"
	}
	if cfg.Assistant.Timeout == 0 {
		cfg.Assistant.Timeout = 20 * time.Second
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = time.Minute
	}

	if cfg.Bootstrap.AdminUsername == "" {
		cfg.Bootstrap.AdminUsername = "admin"
	}
	if cfg.Bootstrap.AdminEmail == "" {
		cfg.Bootstrap.AdminEmail = "admin@assetflow.local"
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Reminder.StartHour < 0 || c.Reminder.EndHour > 24 || c.Reminder.StartHour >= c.Reminder.EndHour {
		return fmt.Errorf("reminder hours must satisfy 0 <= start_hour < end_hour <= 24")
	}
	if c.Notification.Transport == "webhook" && c.Notification.WebhookURL == "" {
		return fmt.Errorf("notification.webhook_url is required for the webhook transport")
	}
	if c.Notification.Transport == "smtp" {
		if c.Notification.SMTPHost == "" {
			return fmt.Errorf("notification.smtp_host is required for the smtp transport")
		}
		if c.Notification.SMTPPort <= 0 || c.Notification.SMTPPort > 65535 {
			return fmt.Errorf("notification.smtp_port must be between 1 and 65535, got %d", c.Notification.SMTPPort)
		}
		switch strings.ToLower(c.Notification.SMTPTLS) {
		case "mandatory", "opportunistic", "none":
		default:
			return fmt.Errorf("notification.smtp_tls must be mandatory, opportunistic or none, got %q", c.Notification.SMTPTLS)
		}
	}
	if c.Feed.Backend == "redis" && !c.Redis.Enabled {
		return fmt.Errorf("feed.backend=redis requires redis.enabled")
	}
	if c.Activity.Sink == "mongo" && c.Activity.MongoURI == "" {
		return fmt.Errorf("activity.mongo_uri is required for the mongo sink")
	}
	if c.Storage.Provider == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required for the s3 provider")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production")
			}
		}
	}
	return nil
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the postgres connection string with escaped credentials
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
