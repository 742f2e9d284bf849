package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "assetflow", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "assetflow", cfg.Database.DBName)
	assert.Equal(t, 8*time.Hour, cfg.JWT.AccessTokenExpiration)
	assert.Equal(t, time.Hour, cfg.Reminder.Interval)
	assert.Equal(t, 9, cfg.Reminder.StartHour)
	assert.Equal(t, 18, cfg.Reminder.EndHour)
	assert.Equal(t, "log", cfg.Notification.Transport)
	assert.Equal(t, 587, cfg.Notification.SMTPPort)
	assert.Equal(t, "mandatory", cfg.Notification.SMTPTLS)
	assert.Equal(t, "memory", cfg.Feed.Backend)
	assert.Equal(t, "gorm", cfg.Activity.Sink)
	assert.Equal(t, "stub", cfg.Storage.Provider)
	assert.Equal(t, "assetflow", cfg.Telemetry.ServiceName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ASSET_APP_PORT", "9000")
	t.Setenv("ASSET_DATABASE_DRIVER", "sqlite")
	t.Setenv("ASSET_DATABASE_PATH", ":memory:")
	t.Setenv("ASSET_REMINDER_INTERVAL", "30m")
	t.Setenv("ASSET_FEED_BUFFER_SIZE", "64")
	t.Setenv("ASSET_NOTIFICATION_SMTP_HOST", "mail.example.com")
	t.Setenv("ASSET_NOTIFICATION_SMTP_PORT", "2525")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, 30*time.Minute, cfg.Reminder.Interval)
	assert.Equal(t, 64, cfg.Feed.BufferSize)
	assert.Equal(t, "mail.example.com", cfg.Notification.SMTPHost)
	assert.Equal(t, 2525, cfg.Notification.SMTPPort)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"idle above open", func(c *Config) { c.Database.MaxIdleConns = 100 }, "max_idle_conns"},
		{"inverted reminder hours", func(c *Config) { c.Reminder.StartHour = 18; c.Reminder.EndHour = 9 }, "reminder hours"},
		{"webhook without url", func(c *Config) { c.Notification.Transport = "webhook" }, "webhook_url"},
		{"smtp without host", func(c *Config) { c.Notification.Transport = "smtp" }, "smtp_host"},
		{"smtp with bad port", func(c *Config) {
			c.Notification.Transport = "smtp"
			c.Notification.SMTPHost = "mail.example.com"
			c.Notification.SMTPPort = 70000
		}, "smtp_port"},
		{"smtp with unknown tls policy", func(c *Config) {
			c.Notification.Transport = "smtp"
			c.Notification.SMTPHost = "mail.example.com"
			c.Notification.SMTPTLS = "sometimes"
		}, "smtp_tls"},
		{"smtp with host", func(c *Config) {
			c.Notification.Transport = "smtp"
			c.Notification.SMTPHost = "mail.example.com"
		}, ""},
		{"redis feed without redis", func(c *Config) { c.Feed.Backend = "redis" }, "redis.enabled"},
		{"mongo sink without uri", func(c *Config) { c.Activity.Sink = "mongo" }, "mongo_uri"},
		{"s3 without bucket", func(c *Config) { c.Storage.Provider = "s3" }, "storage.bucket"},
		{"sampling ratio out of range", func(c *Config) { c.Telemetry.SamplingRatio = 2 }, "sampling_ratio"},
		{"production short secret", func(c *Config) {
			c.App.Env = "production"
			c.JWT.Secret = "short"
		}, "jwt.secret"},
		{"production missing db password", func(c *Config) {
			c.App.Env = "production"
			c.JWT.Secret = "0123456789abcdef0123456789abcdef"
		}, "database.password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN_EscapesCredentials(t *testing.T) {
	d := DatabaseConfig{User: "asset", Password: "p@ss word", Host: "db", Port: 5432, DBName: "assets", SSLMode: "require"}
	assert.Equal(t, "postgres://asset:p%40ss%20word@db:5432/assets?sslmode=require", d.DSN())
}
