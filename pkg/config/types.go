package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent reweave configuration stored as config.toml
// in the .reweave/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Storage StorageConfig `toml:"storage"`
	Gateway GatewayConfig `toml:"gateway"`
	Capture CaptureConfig `toml:"capture"`
	Events  EventsConfig  `toml:"events"`
	Fence   FenceConfig   `toml:"fence"`
}

// StorageConfig holds artifact store settings shared by the gateway and the
// replay command.
type StorageConfig struct {
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// GatewayConfig holds gateway server settings. Upstream is the base URL of
// the code-generation backend whose streams the gateway relays.
type GatewayConfig struct {
	Upstream string `toml:"upstream,omitempty"`
	Listen   string `toml:"listen,omitempty"`
}

// CaptureConfig holds stream capture settings. When enabled, the gateway
// records every relayed byte stream to a transcript file under Dir
// (default: the captures/ subdirectory of the resolved .reweave/ dir).
type CaptureConfig struct {
	Enabled bool   `toml:"enabled,omitempty"`
	Dir     string `toml:"dir,omitempty"`
}

// EventsConfig holds event publishing settings. Broker "none" disables
// publishing; "kafka" publishes artifact completion events to KafkaTopic.
type EventsConfig struct {
	Broker       string `toml:"broker,omitempty"`
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// FenceConfig holds the marker pair used to decide whether accumulated text
// is generated code. Both markers must appear for text to qualify.
type FenceConfig struct {
	Open  string `toml:"open,omitempty"`
	Close string `toml:"close,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.driver": {
		get: func(c *Config) string { return c.Storage.Driver },
		set: func(c *Config, v string) error { c.Storage.Driver = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"gateway.upstream": {
		get: func(c *Config) string { return c.Gateway.Upstream },
		set: func(c *Config, v string) error { c.Gateway.Upstream = v; return nil },
	},
	"gateway.listen": {
		get: func(c *Config) string { return c.Gateway.Listen },
		set: func(c *Config, v string) error { c.Gateway.Listen = v; return nil },
	},
	"capture.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Capture.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for capture.enabled: %w", err)
			}
			c.Capture.Enabled = b
			return nil
		},
	},
	"capture.dir": {
		get: func(c *Config) string { return c.Capture.Dir },
		set: func(c *Config, v string) error { c.Capture.Dir = v; return nil },
	},
	"events.broker": {
		get: func(c *Config) string { return c.Events.Broker },
		set: func(c *Config, v string) error { c.Events.Broker = v; return nil },
	},
	"events.kafka_brokers": {
		get: func(c *Config) string { return c.Events.KafkaBrokers },
		set: func(c *Config, v string) error { c.Events.KafkaBrokers = v; return nil },
	},
	"events.kafka_topic": {
		get: func(c *Config) string { return c.Events.KafkaTopic },
		set: func(c *Config, v string) error { c.Events.KafkaTopic = v; return nil },
	},
	"fence.open": {
		get: func(c *Config) string { return c.Fence.Open },
		set: func(c *Config, v string) error { c.Fence.Open = v; return nil },
	},
	"fence.close": {
		get: func(c *Config) string { return c.Fence.Close },
		set: func(c *Config, v string) error { c.Fence.Close = v; return nil },
	},
}
