package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/GriffinCanCode/dicthub/internal/app"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/config"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dicthub/internal/shared/paths"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dicthub",
	Short: "DictHub - plugin based translation host",
	Long: `DictHub runs translation plugins in a JavaScript sandbox and streams
their results back to the caller.

Commands:
  serve      - HTTP and WebSocket server
  translate  - translate text with the enabled plugins
  detect     - detect the language of a text
  plugins    - list, enable, disable and check plugins`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./dicthub.yaml or "+paths.ConfigDir()+"/dicthub.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig uses --config, else the first dicthub.{yaml,yml,toml} found in
// the working or user config directory, else the environment alone.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	if path, ok := paths.FindConfig(); ok {
		return config.LoadFile(path)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	if verbose {
		logCfg.Level = "debug"
	}
	return logging.New(logCfg)
}

// setup loads the config and builds the app. Callers must Close it.
func setup(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return app.New(ctx, cfg, logger)
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
