// Package configcmder provides the config command for managing persistent
// reweave configuration stored in the .reweave/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent reweave configuration.

Configuration is stored as config.toml in the .reweave/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  gateway.upstream, gateway.listen,
  capture.enabled, capture.dir,
  events.broker, events.kafka_brokers, events.kafka_topic,
  fence.open, fence.close

Use subcommands to get, set, or list configuration values:
  reweave config set <key> <value>    Set a configuration value
  reweave config get <key>            Get a configuration value
  reweave config list                 List all configuration values

Examples:
  reweave config set gateway.upstream http://localhost:3001
  reweave config set storage.driver sqlite
  reweave config get capture.dir
  reweave config list`

const configShortDesc string = "Manage persistent reweave configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
