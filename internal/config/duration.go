package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// duration decodes "30s"-style strings and bare integers, which count
// seconds. A bare 0 is what `config set donation.throttle 0` writes.
type duration time.Duration

func (d *duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a duration", n.Line)
	}
	if n.ShortTag() == "!!int" {
		secs, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*d = duration(time.Duration(secs) * time.Second)
		return nil
	}
	v, err := time.ParseDuration(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = duration(v)
	return nil
}

// UnmarshalYAML decodes only the keys present, so defaults survive.
func (c *DonationConfig) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		Throttle       *duration `yaml:"throttle"`
		MaxSpokenNames *int      `yaml:"maxSpokenNames"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	if raw.Throttle != nil {
		c.Throttle = time.Duration(*raw.Throttle)
	}
	if raw.MaxSpokenNames != nil {
		c.MaxSpokenNames = *raw.MaxSpokenNames
	}
	return nil
}

func (c *RedisConfig) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		Addr     *string   `yaml:"addr"`
		Password *string   `yaml:"password"`
		DB       *int      `yaml:"db"`
		TTL      *duration `yaml:"ttl"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	if raw.Addr != nil {
		c.Addr = *raw.Addr
	}
	if raw.Password != nil {
		c.Password = *raw.Password
	}
	if raw.DB != nil {
		c.DB = *raw.DB
	}
	if raw.TTL != nil {
		c.TTL = time.Duration(*raw.TTL)
	}
	return nil
}
