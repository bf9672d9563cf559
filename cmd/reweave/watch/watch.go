// Package watchcmder provides the watch command, a TUI that follows a
// capture file and shows the reassembled artifact as it grows.
package watchcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reweaveco/reweave/pkg/config"
	"github.com/reweaveco/reweave/pkg/reassembly"
)

type watchCommander struct {
	fenceOpen  string
	fenceClose string
}

const watchLongDesc string = `Follow a capture file live in the terminal.

Watch tails a raw transcript as the gateway records it, folding new events
through the reassembly rules and showing the files recovered so far.

Examples:
  reweave watch .reweave/captures/20260828T101502Z-9f2c.sse
`

const watchShortDesc string = "Follow a capture file live"

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch <capture-file>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("fence-open") {
				cmder.fenceOpen = cfg.Fence.Open
			}
			if !cmd.Flags().Changed("fence-close") {
				cmder.fenceClose = cfg.Fence.Close
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchTUI(cmd.Context(), args[0], cmder.rules())
		},
	}

	fs := config.DefaultFlagSet()
	config.AddStringFlag(cmd, fs, config.FlagFenceOpen, &cmder.fenceOpen)
	config.AddStringFlag(cmd, fs, config.FlagFenceClose, &cmder.fenceClose)

	return cmd
}

func (c *watchCommander) rules() reassembly.Rules {
	fence := reassembly.Fence{Open: c.fenceOpen, Close: c.fenceClose}
	if fence == (reassembly.Fence{}) {
		// An empty fence would match any text as code.
		return reassembly.DefaultRules
	}
	return reassembly.Rules{Fence: fence}
}
