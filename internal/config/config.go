package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// DatabasePath is the SQLite file for last known locations. Empty disables persistence.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	PublicDir    string `mapstructure:"public_dir" yaml:"public_dir"`

	BroadcastBuffer      int           `mapstructure:"broadcast_buffer" yaml:"broadcast_buffer"`
	ClientBuffer         int           `mapstructure:"client_buffer" yaml:"client_buffer"`
	StatsInterval        time.Duration `mapstructure:"stats_interval" yaml:"stats_interval"`
	MaxMessageBytes      int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MaxMessagesPerMinute int           `mapstructure:"max_messages_per_minute" yaml:"max_messages_per_minute"`
	PingInterval         time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                 ":8080",
		ReadHeaderTimeout:    5 * time.Second,
		IdleTimeout:          60 * time.Second,
		ShutdownTimeout:      10 * time.Second,
		LogLevel:             "info",
		LogFormat:            "console",
		DatabasePath:         "locshare.db",
		PublicDir:            "./public",
		BroadcastBuffer:      256,
		ClientBuffer:         64,
		StatsInterval:        30 * time.Second,
		MaxMessageBytes:      4096,
		MaxMessagesPerMinute: 120,
		PingInterval:         30 * time.Second,
		WriteTimeout:         15 * time.Second,
	}
}

// ClientConfig holds settings for the headless tracking client.
type ClientConfig struct {
	// Origin is the server's HTTP origin; the WebSocket endpoint is derived from it.
	Origin     string `mapstructure:"origin" yaml:"origin"`
	UserID     string `mapstructure:"user_id" yaml:"user_id"`
	DeviceType string `mapstructure:"device_type" yaml:"device_type"`

	RetryDelay     time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	SampleInterval time.Duration `mapstructure:"sample_interval" yaml:"sample_interval"`

	Source         string  `mapstructure:"source" yaml:"source"`
	Lat            float64 `mapstructure:"lat" yaml:"lat"`
	Lng            float64 `mapstructure:"lng" yaml:"lng"`
	WalkStepMeters float64 `mapstructure:"walk_step_meters" yaml:"walk_step_meters"`
	Seed           int64   `mapstructure:"seed" yaml:"seed"`

	Layer    string `mapstructure:"layer" yaml:"layer"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	NoColor  bool   `mapstructure:"no_color" yaml:"no_color"`
}

// DefaultClient returns client defaults matching the web page.
func DefaultClient() ClientConfig {
	return ClientConfig{
		Origin:         "http://localhost:8080",
		RetryDelay:     3 * time.Second,
		SampleInterval: 5 * time.Second,
		Source:         "static",
		Lat:            51.505,
		Lng:            -0.09,
		WalkStepMeters: 25,
		Layer:          "osm",
		LogLevel:       "warn",
	}
}
