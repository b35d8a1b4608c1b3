package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Email     EmailConfig     `mapstructure:"email" validate:"required"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	// ConnectRetries bounds the startup connection attempts after the first one.
	ConnectRetries uint64        `mapstructure:"connect_retries"`
	ConnectBackoff time.Duration `mapstructure:"connect_backoff" validate:"gt=0"`
}

// EmailConfig selects how dose confirmations are delivered. In "log" mode
// messages are only written to the application log.
type EmailConfig struct {
	Mode     string `mapstructure:"mode" validate:"required,oneof=log smtp"`
	Host     string `mapstructure:"host" validate:"required_if=Mode smtp"`
	Port     int    `mapstructure:"port" validate:"gt=0,lt=65536"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"required,email"`

	// Workers and QueueSize size the background delivery pool.
	Workers     int    `mapstructure:"workers" validate:"gt=0"`
	QueueSize   int    `mapstructure:"queue_size" validate:"gt=0"`
	SendRetries uint64 `mapstructure:"send_retries"`
	// SendTimeout bounds a single delivery including retries.
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"gt=0"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig throttles the credential endpoints per client IP.
type RateLimitConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	AuthRPS   float64 `mapstructure:"auth_rps" validate:"gt=0"`
	AuthBurst int     `mapstructure:"auth_burst" validate:"gt=0"`
}
