package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields lets credentials be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Gateway.Auth.Token = expandEnvVars(cfg.Gateway.Auth.Token)
	cfg.Gateway.Auth.Password = expandEnvVars(cfg.Gateway.Auth.Password)
	cfg.Index.Redis.Password = expandEnvVars(cfg.Index.Redis.Password)
	cfg.Index.Redis.Addr = expandEnvVars(cfg.Index.Redis.Addr)
	for i, b := range cfg.Notify.Kafka.Brokers {
		cfg.Notify.Kafka.Brokers[i] = expandEnvVars(b)
	}
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields that were explicitly blanked in the
// file. Donation.Throttle is left alone since 0 disables throttling.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultGatewayPort
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "loopback"
	}
	if cfg.Gateway.Auth.Mode == "" {
		cfg.Gateway.Auth.Mode = "token"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = "sqlite"
	}
	if cfg.Index.Kind == "" {
		cfg.Index.Kind = "memory"
	}
	if cfg.Index.Redis.Addr == "" {
		cfg.Index.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Index.Redis.TTL == 0 {
		cfg.Index.Redis.TTL = DefaultRedisTTL
	}
	if cfg.Donation.MaxSpokenNames == 0 {
		cfg.Donation.MaxSpokenNames = DefaultMaxSpokenNames
	}
	if cfg.Notify.Kafka.Topic == "" {
		cfg.Notify.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Notify.Kafka.GroupID == "" {
		cfg.Notify.Kafka.GroupID = DefaultKafkaGroup
	}
}

// applyEnvOverrides reads INTENTD_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INTENTD_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("INTENTD_GATEWAY_BIND"); v != "" {
		cfg.Gateway.Bind = v
	}
	if v := os.Getenv("INTENTD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("INTENTD_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("INTENTD_INDEX_KIND"); v != "" {
		cfg.Index.Kind = strings.ToLower(v)
	}
	if v := os.Getenv("INTENTD_REDIS_ADDR"); v != "" {
		cfg.Index.Redis.Addr = v
	}
	if v := os.Getenv("INTENTD_DONATION_THROTTLE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Donation.Throttle = d
		}
	}
	if v := os.Getenv("INTENTD_KAFKA_BROKERS"); v != "" {
		cfg.Notify.Kafka.Brokers = strings.Split(v, ",")
		cfg.Notify.Kafka.Enabled = true
	}
}
