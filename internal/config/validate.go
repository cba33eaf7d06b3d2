package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	oneOf := func(path, value string, valid []string) {
		if value != "" && !slices.Contains(valid, value) {
			issues = append(issues, ValidationIssue{
				Path:    path,
				Message: fmt.Sprintf("must be one of %v, got %q", valid, value),
			})
		}
	}

	// Gateway
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}
	oneOf("gateway.bind", cfg.Gateway.Bind, []string{"auto", "lan", "loopback", "custom"})
	oneOf("gateway.auth.mode", cfg.Gateway.Auth.Mode, []string{"token", "password"})
	if cfg.Gateway.TLS.Enabled && (cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "") {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.tls",
			Message: "certPath and keyPath are required when TLS is enabled",
		})
	}

	// Logging
	oneOf("logging.level", cfg.Logging.Level, []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"})
	oneOf("logging.consoleStyle", cfg.Logging.ConsoleStyle, []string{"pretty", "json"})

	// Store and index
	oneOf("store.kind", cfg.Store.Kind, []string{"sqlite", "memory"})
	oneOf("index.kind", cfg.Index.Kind, []string{"memory", "redis", "host", "none"})
	if cfg.Index.Kind == "redis" && cfg.Index.Redis.Addr == "" {
		issues = append(issues, ValidationIssue{
			Path:    "index.redis.addr",
			Message: "required when index.kind is redis",
		})
	}
	if cfg.Index.Redis.TTL < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "index.redis.ttl",
			Message: "must not be negative",
		})
	}

	// Donation
	if cfg.Donation.Throttle < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "donation.throttle",
			Message: "must not be negative",
		})
	}
	if cfg.Donation.MaxSpokenNames < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "donation.maxSpokenNames",
			Message: fmt.Sprintf("must be positive, got %d", cfg.Donation.MaxSpokenNames),
		})
	}

	// Notify (only if enabled)
	if k := cfg.Notify.Kafka; k.Enabled {
		if len(k.Brokers) == 0 {
			issues = append(issues, ValidationIssue{
				Path:    "notify.kafka.brokers",
				Message: "at least one broker is required",
			})
		}
		if k.Topic == "" {
			issues = append(issues, ValidationIssue{
				Path:    "notify.kafka.topic",
				Message: "topic is required",
			})
		}
		if k.GroupID == "" {
			issues = append(issues, ValidationIssue{
				Path:    "notify.kafka.groupId",
				Message: "groupId is required",
			})
		}
	}

	return issues
}
