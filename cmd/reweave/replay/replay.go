// Package replaycmder provides the replay command that rebuilds an artifact
// from a captured stream transcript.
package replaycmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reweaveco/reweave/pkg/artifact"
	"github.com/reweaveco/reweave/pkg/cliui"
	"github.com/reweaveco/reweave/pkg/config"
	"github.com/reweaveco/reweave/pkg/logger"
	"github.com/reweaveco/reweave/pkg/reassembly"
	"github.com/reweaveco/reweave/pkg/sse"
)

type replayCommander struct {
	outDir     string
	fenceOpen  string
	fenceClose string
	dryRun     bool
	debug      bool
}

const replayLongDesc string = `Rebuild an artifact from a captured stream transcript.

Replay reads a raw transcript recorded by the gateway (a .sse file under
.reweave/captures/ by default), folds its events through the same
reassembly rules the gateway applies live, and writes the resulting
files to the output directory.`

const replayShortDesc string = "Rebuild an artifact from a captured transcript"

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{}

	cmd := &cobra.Command{
		Use:   "replay <capture-file>",
		Short: replayShortDesc,
		Long:  replayLongDesc,
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
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			return cmder.run(args[0])
		},
	}

	fs := config.DefaultFlagSet()
	config.AddStringFlag(cmd, fs, config.FlagFenceOpen, &cmder.fenceOpen)
	config.AddStringFlag(cmd, fs, config.FlagFenceClose, &cmder.fenceClose)
	cmd.Flags().StringVarP(&cmder.outDir, "out", "o", ".", "Directory to write reassembled files into")
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "List the files that would be written without writing them")

	return cmd
}

func (c *replayCommander) run(capturePath string) error {
	log := logger.NewPretty(os.Stderr, c.debug)

	data, err := os.ReadFile(capturePath)
	if err != nil {
		return fmt.Errorf("reading capture: %w", err)
	}

	rules := reassembly.Rules{
		Fence: reassembly.Fence{Open: c.fenceOpen, Close: c.fenceClose},
	}
	if rules.Fence == (reassembly.Fence{}) {
		// An empty fence would match any text as code.
		rules = reassembly.DefaultRules
	}

	state := reassembly.Initial()
	finalized := false
	events := 0

	blocks, remainder := sse.Split(string(data))
	if remainder != "" {
		// A capture may end mid-write without a trailing delimiter.
		blocks = append(blocks, remainder)
	}

	for _, block := range blocks {
		for _, payload := range sse.Parse(block) {
			msg, ok := reassembly.MessageFromPayload(payload)
			if !ok {
				continue
			}

			events++
			prev := state
			state = rules.Apply(state, msg)
			if rules.IsFinal(prev, state, msg) {
				finalized = true
			}
		}
	}

	log.Debug("replayed transcript", "events", events, "finalized", finalized)

	if !finalized {
		log.Warn("stream never completed, reassembling from partial text")
	}

	code := state.BestText()
	if code == "" {
		return fmt.Errorf("no generation content in %s", capturePath)
	}

	a := artifact.New(code)
	if len(a.Files) == 0 {
		return fmt.Errorf("no file blocks in reassembled output")
	}

	if c.dryRun {
		for _, f := range a.Files {
			fmt.Printf("%s %s\n", cliui.DimStyle.Render("would write"), cliui.ValueStyle.Render(f.Path))
		}
		return nil
	}

	if err := a.Write(c.outDir); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}

	for _, f := range a.Files {
		fmt.Printf("%s %s\n", cliui.SuccessMark, f.Path)
	}
	log.Info("artifact written", "id", a.ID, "files", len(a.Files), "dir", c.outDir)

	return nil
}
