package config

import "time"

// Config is the root configuration for intentd.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	Index    IndexConfig    `yaml:"index,omitempty"`
	Donation DonationConfig `yaml:"donation,omitempty"`
	Notify   NotifyConfig   `yaml:"notify,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
}

// GatewayConfig controls the gateway HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "token" | "password"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// StoreConfig selects where conversations are resolved from.
type StoreConfig struct {
	Kind string `yaml:"kind,omitempty"` // "sqlite" | "memory"
	Path string `yaml:"path,omitempty"` // defaults to <data>/intentd.db
}

// IndexConfig selects the suggestion index donations are submitted to.
type IndexConfig struct {
	Kind  string      `yaml:"kind,omitempty"` // "memory" | "redis" | "host" | "none"
	Redis RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig configures the Redis-backed suggestion index.
type RedisConfig struct {
	Addr     string        `yaml:"addr,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
}

// DonationConfig tunes the donation policy.
type DonationConfig struct {
	Throttle       time.Duration `yaml:"throttle"` // 0 disables
	MaxSpokenNames int           `yaml:"maxSpokenNames,omitempty"`
}

// NotifyConfig configures background donation triggers.
type NotifyConfig struct {
	Kafka KafkaConfig `yaml:"kafka,omitempty"`
}

// KafkaConfig configures the notification consumer group.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled,omitempty"`
	Brokers []string `yaml:"brokers,omitempty"`
	Topic   string   `yaml:"topic,omitempty"`
	GroupID string   `yaml:"groupId,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}
