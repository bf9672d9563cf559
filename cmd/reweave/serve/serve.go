// Package servecmder provides the serve command that runs the streaming gateway.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reweaveco/reweave/gateway"
	"github.com/reweaveco/reweave/pkg/config"
	"github.com/reweaveco/reweave/pkg/dotdir"
	"github.com/reweaveco/reweave/pkg/eventstream"
	"github.com/reweaveco/reweave/pkg/eventstream/kafka"
	"github.com/reweaveco/reweave/pkg/eventstream/nop"
	"github.com/reweaveco/reweave/pkg/git"
	"github.com/reweaveco/reweave/pkg/logger"
	"github.com/reweaveco/reweave/pkg/reassembly"
	"github.com/reweaveco/reweave/pkg/storage"
	"github.com/reweaveco/reweave/pkg/storage/inmemory"
	"github.com/reweaveco/reweave/pkg/storage/postgres"
	"github.com/reweaveco/reweave/pkg/storage/sqlite"
)

type serveCommander struct {
	listen        string
	upstream      string
	project       string
	storageDriver string
	sqlitePath    string
	postgresDSN   string
	capture       bool
	captureDir    string
	eventsBroker  string
	kafkaBrokers  string
	kafkaTopic    string
	fenceOpen     string
	fenceClose    string
	configDir     string
	debug         bool

	logger *zap.Logger
}

const serveLongDesc string = `Run the streaming gateway.

The gateway intercepts all requests and transparently forwards them to the
configured upstream code-generation backend, relaying response bytes to the
client verbatim while reassembling the generated code on the side. Completed
artifacts are stored and, optionally, announced on an event broker.`

const serveShortDesc string = "Run the reweave streaming gateway"

func NewServeCmd() *cobra.Command {
	_, cmd := newServeCmd()
	return cmd
}

// serveFlagKeys are the registry flags serve binds into the viper chain.
var serveFlagKeys = []string{
	config.FlagListen,
	config.FlagUpstream,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagCapture,
	config.FlagCaptureDir,
	config.FlagEventsBroker,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagFenceOpen,
	config.FlagFenceClose,
}

func newServeCmd() (*serveCommander, *cobra.Command) {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			// Precedence: flag > REWEAVE_* env > config.toml > default.
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet(), serveFlagKeys)

			cmder.listen = v.GetString("gateway.listen")
			cmder.upstream = v.GetString("gateway.upstream")
			cmder.storageDriver = v.GetString("storage.driver")
			cmder.sqlitePath = v.GetString("storage.sqlite_path")
			cmder.postgresDSN = v.GetString("storage.postgres_dsn")
			cmder.capture = v.GetBool("capture.enabled")
			cmder.captureDir = v.GetString("capture.dir")
			cmder.eventsBroker = v.GetString("events.broker")
			cmder.kafkaBrokers = v.GetString("events.kafka_brokers")
			cmder.kafkaTopic = v.GetString("events.kafka_topic")
			cmder.fenceOpen = v.GetString("fence.open")
			cmder.fenceClose = v.GetString("fence.close")

			if !cmd.Flags().Changed("project") {
				cmder.project = git.RepoName()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	fs := config.DefaultFlagSet()
	config.AddStringFlag(cmd, fs, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, fs, config.FlagStorageDriver, &cmder.storageDriver)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagPostgres, &cmder.postgresDSN)
	config.AddBoolFlag(cmd, fs, config.FlagCapture, &cmder.capture)
	config.AddStringFlag(cmd, fs, config.FlagCaptureDir, &cmder.captureDir)
	config.AddStringFlag(cmd, fs, config.FlagEventsBroker, &cmder.eventsBroker)
	config.AddStringFlag(cmd, fs, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, fs, config.FlagKafkaTopic, &cmder.kafkaTopic)
	config.AddStringFlag(cmd, fs, config.FlagFenceOpen, &cmder.fenceOpen)
	config.AddStringFlag(cmd, fs, config.FlagFenceClose, &cmder.fenceClose)
	cmd.Flags().StringVar(&cmder.project, "project", "", "Project name to tag artifacts (default: auto-detect from git)")

	return cmder, cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	driver, err := c.newStorageDriver()
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	captureDir, err := c.resolveCaptureDir()
	if err != nil {
		return err
	}

	cfg := gateway.Config{
		ListenAddr:  c.listen,
		UpstreamURL: c.upstream,
		Project:     c.project,
		CaptureDir:  captureDir,
		Rules: reassembly.Rules{
			Fence: reassembly.Fence{Open: c.fenceOpen, Close: c.fenceClose},
		},
		Publisher: publisher,
	}

	g, err := gateway.New(cfg, driver, c.logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	defer g.Close()

	c.logger.Info("starting gateway",
		zap.String("listen", c.listen),
		zap.String("upstream", c.upstream),
		zap.String("project", c.project),
		zap.String("capture_dir", captureDir),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := g.Run(); err != nil {
			errChan <- fmt.Errorf("gateway error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return nil
	}
}

func (c *serveCommander) newStorageDriver() (storage.Driver, error) {
	switch c.storageDriver {
	case "sqlite":
		driver, err := sqlite.NewDriver(c.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
		}
		c.logger.Info("using sqlite storage", zap.String("path", c.sqlitePath))
		return driver, nil
	case "postgres":
		driver, err := postgres.NewDriver(context.Background(), c.postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres driver: %w", err)
		}
		c.logger.Info("using postgres storage")
		return driver, nil
	case "memory", "":
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q (want memory, sqlite, or postgres)", c.storageDriver)
	}
}

func (c *serveCommander) newPublisher() (eventstream.Publisher, error) {
	switch c.eventsBroker {
	case "kafka":
		brokers := strings.Split(c.kafkaBrokers, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		publisher, err := kafka.NewPublisher(brokers, c.kafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		c.logger.Info("publishing artifact events to kafka",
			zap.Strings("brokers", brokers),
			zap.String("topic", c.kafkaTopic),
		)
		return publisher, nil
	case "none", "":
		return nop.NewPublisher(), nil
	default:
		return nil, fmt.Errorf("unknown events broker %q (want none or kafka)", c.eventsBroker)
	}
}

// resolveCaptureDir returns the directory for raw transcripts, or "" when
// capture is disabled. An unset directory falls back to .reweave/captures.
func (c *serveCommander) resolveCaptureDir() (string, error) {
	if !c.capture {
		return "", nil
	}
	if c.captureDir != "" {
		return c.captureDir, nil
	}

	dir, err := dotdir.NewManager().CapturesDir(c.configDir)
	if err != nil {
		return "", fmt.Errorf("resolving capture directory: %w", err)
	}
	return dir, nil
}
