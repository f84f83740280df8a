// Package commands is the attendance command line: the API server plus
// direct subcommands over the same stores.
package commands

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/attendance/internal/config"
	"github.com/klabast/wb-services/attendance/internal/logging"
)

// cli carries the global flags and what PersistentPreRunE builds from them.
type cli struct {
	configPath string
	dataDir    string
	backend    string
	debug      bool
	yes        bool

	in       io.Reader
	buffered *bufio.Reader
	now      func() time.Time

	cfg *config.Config
	log *zap.Logger
}

// NewRoot returns the attendance root command.
func NewRoot() *cobra.Command {
	return newRoot(&cli{in: os.Stdin, now: time.Now})
}

func newRoot(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "attendance",
		Short: "Track class attendance and a daily calendar",
		Long: `attendance keeps per-subject attendance records and a whole-day
calendar in a local store (JSON files or SQLite).

Run "attendance serve" for the HTTP API, or use the subcommands to edit
the stores directly.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", config.DefaultConfigFile, "YAML config file")
	pf.StringVar(&c.dataDir, "data-dir", "", "Data directory (overrides config)")
	pf.StringVar(&c.backend, "backend", "", "Storage backend: file or sqlite (overrides config)")
	pf.BoolVar(&c.debug, "debug", false, "Development logging at debug level")
	pf.BoolVarP(&c.yes, "yes", "y", false, "Answer yes to confirmation prompts")

	root.AddCommand(
		c.serveCmd(),
		c.subjectCmd(),
		c.dailyCmd(),
		c.overviewCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.hashPasswordCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if c.backend != "" {
		cfg.Backend = c.backend
	}
	if c.debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	if c.log == nil {
		log, err := logging.New(cfg.LogLevel, cfg.Debug)
		if err != nil {
			return err
		}
		c.log = log
	}
	return nil
}
