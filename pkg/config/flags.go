package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --upstream
// on both "reweave serve" and future subcommands).
type Flag struct {
	// Name is the long flag name (e.g. "upstream").
	Name string

	// Shorthand is the one-letter short flag (e.g. "u"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "gateway.upstream").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddBoolFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagListen        = "listen"
	FlagUpstream      = "upstream"
	FlagStorageDriver = "storage-driver"
	FlagSQLite        = "sqlite"
	FlagPostgres      = "postgres"
	FlagCapture       = "capture"
	FlagCaptureDir    = "capture-dir"
	FlagEventsBroker  = "events-broker"
	FlagKafkaBrokers  = "kafka-brokers"
	FlagKafkaTopic    = "kafka-topic"
	FlagFenceOpen     = "fence-open"
	FlagFenceClose    = "fence-close"
)

// DefaultFlagSet returns the canonical flag definitions for the reweave CLI.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagListen: {
			Name:        "listen",
			Shorthand:   "l",
			ViperKey:    "gateway.listen",
			Description: "address for the gateway to listen on",
		},
		FlagUpstream: {
			Name:        "upstream",
			Shorthand:   "u",
			ViperKey:    "gateway.upstream",
			Description: "base URL of the upstream code-generation backend",
		},
		FlagStorageDriver: {
			Name:        "storage-driver",
			ViperKey:    "storage.driver",
			Description: "artifact store driver (memory, sqlite, postgres)",
		},
		FlagSQLite: {
			Name:        "sqlite",
			ViperKey:    "storage.sqlite_path",
			Description: "path to the sqlite database file",
		},
		FlagPostgres: {
			Name:        "postgres",
			ViperKey:    "storage.postgres_dsn",
			Description: "postgres connection string",
		},
		FlagCapture: {
			Name:        "capture",
			ViperKey:    "capture.enabled",
			Description: "record raw stream transcripts to the capture directory",
		},
		FlagCaptureDir: {
			Name:        "capture-dir",
			ViperKey:    "capture.dir",
			Description: "directory for captured stream transcripts",
		},
		FlagEventsBroker: {
			Name:        "events-broker",
			ViperKey:    "events.broker",
			Description: "event broker (none, kafka)",
		},
		FlagKafkaBrokers: {
			Name:        "kafka-brokers",
			ViperKey:    "events.kafka_brokers",
			Description: "comma-separated kafka broker addresses",
		},
		FlagKafkaTopic: {
			Name:        "kafka-topic",
			ViperKey:    "events.kafka_topic",
			Description: "kafka topic for artifact completion events",
		},
		FlagFenceOpen: {
			Name:        "fence-open",
			ViperKey:    "fence.open",
			Description: "opening marker that identifies generated code",
		},
		FlagFenceClose: {
			Name:        "fence-close",
			ViperKey:    "fence.close",
			Description: "closing marker that identifies generated code",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
