package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuePaths(issues []ValidationIssue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Path)
	}
	return out
}

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Nil(t, Validate(&cfg))
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"port too high", func(c *Config) { c.Gateway.Port = 70000 }, "gateway.port"},
		{"negative port", func(c *Config) { c.Gateway.Port = -1 }, "gateway.port"},
		{"bind", func(c *Config) { c.Gateway.Bind = "tailnet" }, "gateway.bind"},
		{"auth mode", func(c *Config) { c.Gateway.Auth.Mode = "oauth" }, "gateway.auth.mode"},
		{"tls without cert", func(c *Config) { c.Gateway.TLS.Enabled = true }, "gateway.tls"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"console style", func(c *Config) { c.Logging.ConsoleStyle = "compact" }, "logging.consoleStyle"},
		{"store kind", func(c *Config) { c.Store.Kind = "postgres" }, "store.kind"},
		{"index kind", func(c *Config) { c.Index.Kind = "spotlight" }, "index.kind"},
		{"redis addr", func(c *Config) { c.Index.Kind = "redis"; c.Index.Redis.Addr = "" }, "index.redis.addr"},
		{"redis ttl", func(c *Config) { c.Index.Redis.TTL = -time.Second }, "index.redis.ttl"},
		{"throttle", func(c *Config) { c.Donation.Throttle = -time.Second }, "donation.throttle"},
		{"spoken names", func(c *Config) { c.Donation.MaxSpokenNames = -2 }, "donation.maxSpokenNames"},
		{"kafka brokers", func(c *Config) { c.Notify.Kafka.Enabled = true }, "notify.kafka.brokers"},
		{"kafka topic", func(c *Config) {
			c.Notify.Kafka = KafkaConfig{Enabled: true, Brokers: []string{"k:9092"}, GroupID: "g"}
		}, "notify.kafka.topic"},
		{"kafka group", func(c *Config) {
			c.Notify.Kafka = KafkaConfig{Enabled: true, Brokers: []string{"k:9092"}, Topic: "t"}
		}, "notify.kafka.groupId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			issues := Validate(&cfg)
			require.Len(t, issues, 1)
			assert.Equal(t, tt.path, issues[0].Path)
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Gateway.Port = 0 }},
		{"custom bind", func(c *Config) { c.Gateway.Bind = "custom"; c.Gateway.CustomBindHost = "10.0.0.1" }},
		{"password auth", func(c *Config) { c.Gateway.Auth.Mode = "password" }},
		{"tls with files", func(c *Config) {
			c.Gateway.TLS = GatewayTLS{Enabled: true, CertPath: "c.pem", KeyPath: "k.pem"}
		}},
		{"silent logging", func(c *Config) { c.Logging.Level = "silent" }},
		{"memory store", func(c *Config) { c.Store.Kind = "memory" }},
		{"host index", func(c *Config) { c.Index.Kind = "host" }},
		{"no index", func(c *Config) { c.Index.Kind = "none" }},
		{"throttle disabled", func(c *Config) { c.Donation.Throttle = 0 }},
		{"kafka", func(c *Config) {
			c.Notify.Kafka = KafkaConfig{Enabled: true, Brokers: []string{"k:9092"}, Topic: "t", GroupID: "g"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.Empty(t, Validate(&cfg))
		})
	}
}

func TestValidate_MultipleIssues(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Port = 99999
	cfg.Index.Kind = "bogus"
	cfg.Logging.Level = "loud"

	assert.ElementsMatch(t,
		[]string{"gateway.port", "index.kind", "logging.level"},
		issuePaths(Validate(&cfg)))
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "index.kind", Message: "bad value"}
	assert.Equal(t, "index.kind: bad value", issue.String())
}
