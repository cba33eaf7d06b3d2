package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultGatewayPort    = 18790
	DefaultThrottle       = 30 * time.Second
	DefaultMaxSpokenNames = 3
	DefaultRedisAddr      = "127.0.0.1:6379"
	DefaultRedisTTL       = 30 * 24 * time.Hour
	DefaultKafkaTopic     = "intentd.notifications"
	DefaultKafkaGroup     = "intentd"
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			Port: DefaultGatewayPort,
			Bind: "loopback",
			Auth: GatewayAuth{
				Mode: "token",
			},
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
		Store: StoreConfig{
			Kind: "sqlite",
		},
		Index: IndexConfig{
			Kind: "memory",
			Redis: RedisConfig{
				Addr: DefaultRedisAddr,
				TTL:  DefaultRedisTTL,
			},
		},
		Donation: DonationConfig{
			Throttle:       DefaultThrottle,
			MaxSpokenNames: DefaultMaxSpokenNames,
		},
		Notify: NotifyConfig{
			Kafka: KafkaConfig{
				Topic:   DefaultKafkaTopic,
				GroupID: DefaultKafkaGroup,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
