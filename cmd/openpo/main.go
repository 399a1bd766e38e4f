package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"openpo/internal/config"
	"openpo/internal/logger"
	"openpo/internal/runner"
	"openpo/internal/store"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	appCfg *config.AppConfig
	log    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "openpo",
	Short: "Email each supplier its open purchase order report",
	Long: `openpo reads the open PO report and the supplier email directory,
keeps suppliers with quantity still due, and sends each one an email
with its Open_PO_<supplier>.xlsx report attached.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		appCfg = cfg

		logCfg := &logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
		if verbose {
			logCfg.Level = "debug"
		}
		log, err = logger.New(logCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to config.toml (default: next to the executable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the run ledger inside the data directory.
func openStore() (*store.Store, string, error) {
	dataDir, err := config.EnsureDataDir(appCfg)
	if err != nil {
		return nil, "", fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(filepath.Join(dataDir, "openpo.db"))
	if err != nil {
		return nil, "", err
	}
	return st, dataDir, nil
}

// newCoordinator wires config, ledger and logger.
func newCoordinator() (*runner.Coordinator, *store.Store, error) {
	st, dataDir, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return runner.NewCoordinator(appCfg, dataDir, st, log), st, nil
}
