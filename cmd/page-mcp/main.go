package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/page-tools-mcp/internal/batch"
	"github.com/ironsheep/page-tools-mcp/internal/config"
	"github.com/ironsheep/page-tools-mcp/internal/detection"
	"github.com/ironsheep/page-tools-mcp/internal/normalizer"
	"github.com/ironsheep/page-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// app carries the settings and logger shared by every subcommand.
type app struct {
	configPath string
	envFile    string

	cfg *config.Config
	log *logrus.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "page-mcp",
		Short: "MCP server and tools for document page photos",
		Long: `page-mcp finds the document page in a photo, corrects its perspective
and writes it as an upright JPEG. It also reads ISBN barcodes and page text.

Without a subcommand it serves MCP over stdin/stdout; configure it in your
MCP client (e.g., Claude Desktop).

Environment variables:
  PAGE_MCP_LOG_LEVEL=debug    Enable debug logging
  PAGE_MCP_SCRATCH_ROOT=dir   Batch scratch area
  (see --config for the full list of settings)`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE:              a.runServe,
	}
	root.SetVersionTemplate("page-mcp {{.Version}}\n")

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	root.AddCommand(
		a.serveCmd(),
		a.normalizeCmd(),
		a.batchCmd(),
		a.detectCmd(),
		a.isbnCmd(),
		a.versionCmd(),
	)
	return root
}

// setup loads configuration and configures logging to stderr; stdout is
// for the MCP protocol and command results.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	a.log = logrus.New()
	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetLevel(cfg.LogLevel())
	a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	server.Version = Version
	a.log.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Debug("page-mcp starting")
	return nil
}

func (a *app) normalizer() *normalizer.Normalizer {
	d := detection.NewDetector(
		detection.WithMaxSide(a.cfg.Detection.MaxSide),
		detection.WithParallel(a.cfg.Detection.Parallel),
		detection.WithLogger(a.log),
	)
	return normalizer.New(
		normalizer.WithDetector(d),
		normalizer.WithJPEGQuality(a.cfg.Output.JPEGQuality),
		normalizer.WithLogger(a.log),
	)
}

func (a *app) adapter(n *normalizer.Normalizer, root string) *batch.Adapter {
	if root == "" {
		root = a.cfg.Scratch.Root
	}
	store := batch.NewDiskStore(root, a.cfg.Scratch.URLPrefix)
	return batch.NewAdapter(store, n,
		batch.WithWorkers(a.cfg.Batch.Workers),
		batch.WithKeepFailedInputs(a.cfg.Scratch.KeepFailedInputs),
		batch.WithLogger(a.log),
	)
}
