// Package reweavecmder
package reweavecmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/reweaveco/reweave/cmd/reweave/config"
	replaycmder "github.com/reweaveco/reweave/cmd/reweave/replay"
	servecmder "github.com/reweaveco/reweave/cmd/reweave/serve"
	watchcmder "github.com/reweaveco/reweave/cmd/reweave/watch"
	versioncmder "github.com/reweaveco/reweave/cmd/version"
)

const reweaveLongDesc string = `Reweave reassembles generated code out of streaming responses.

Run services using:
  reweave serve          Run the streaming gateway
  reweave replay <file>  Rebuild an artifact from a captured transcript
  reweave watch <file>   Follow a capture file live in the terminal`

const reweaveShortDesc string = "Reweave - Streaming Response Reassembly"

func NewReweaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reweave",
		Short: reweaveShortDesc,
		Long:  reweaveLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: .reweave/)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(replaycmder.NewReplayCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
