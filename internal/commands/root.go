// Package commands implements the configgery CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/configgery/configgery-go/internal/client"
	"github.com/configgery/configgery-go/internal/config"
	"github.com/configgery/configgery-go/internal/sync"
)

var versionInfo struct {
	version string
	commit  string
	date    string
}

// SetVersionInfo sets version information from main (populated by goreleaser).
func SetVersionInfo(version, commit, date string) {
	versionInfo.version = version
	versionInfo.commit = commit
	versionInfo.date = date
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "configgery",
	Short: "Keep this device's configuration files in sync with configgery",
	Long: `configgery keeps a local directory of configuration files converged
to the device group assigned to this device:

1. Fetches the current device group metadata from the server
2. Prunes local files the server no longer declares
3. Downloads every entry whose content hash does not match

Setup:
  configgery init       - Write the .configgery.yaml device configuration

Environment variables (override .configgery.yaml, loaded from .env too):
  CONFIGGERY_URL    - Device API base URL
  CONFIGGERY_DIR    - Data directory
  CONFIGGERY_CERT   - Client certificate (PEM)
  CONFIGGERY_KEY    - Client private key (PEM)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configFlag != "" {
			config.SetPath(configFlag)
		}
		// Best effort only; the environment may already be populated.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to the device configuration file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(pruneCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// stack bundles the collaborators most commands need.
type stack struct {
	cfg    *config.Config
	log    *zap.Logger
	client *client.Client
	engine *sync.Engine
}

// loadStack loads the device configuration and builds the logger,
// transport and reconciliation engine.
func loadStack() (*stack, error) {
	cfg, err := config.Load()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no %s found - run 'configgery init' first", config.GetPath())
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.GetPath(), err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	cl, err := client.New(cfg.ServerURL, cfg.Certificate, cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	engine, err := sync.New(afero.NewOsFs(), cl, cfg.Directory, clockwork.NewRealClock(), log)
	if err != nil {
		return nil, err
	}

	return &stack{cfg: cfg, log: log, client: cl, engine: engine}, nil
}

func (s *stack) close() {
	_ = s.log.Sync()
}
