package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garrison-sh/garrison/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	flagLogLevel     string
	flagJSONLogs     bool
	flagDataDir      string
	flagSFTPPath     string
	flagCollectorURL string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "garrison",
	Short: "Garrison - Game server and SFTP access provisioning",
	Long: `Garrison provisions per-subscription game server deployments and
manages tenant access to the shared SFTP gateway.

Server lifecycle runs through per-subscription compose files rendered
from game templates; SFTP access changes are applied as all-or-nothing
transactions with automatic rollback.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Config{
			Level:      log.Level(flagLogLevel),
			JSONOutput: flagJSONLogs,
		})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Garrison version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "Emit JSON logs instead of console output")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", defaultDataDir(), "Base directory for templates and compose files")
	rootCmd.PersistentFlags().StringVar(&flagSFTPPath, "sftp-path", "", "Directory holding the SFTP gateway configuration (default <data-dir>/sftp)")
	rootCmd.PersistentFlags().StringVar(&flagCollectorURL, "collector-url", "", "Management API endpoint to report results to")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(sftpCmd)
	rootCmd.AddCommand(deployCmd)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "servermgmnt"
	}
	return filepath.Join(home, "servermgmnt")
}

func sftpBasePath() string {
	if flagSFTPPath != "" {
		return flagSFTPPath
	}
	return filepath.Join(flagDataDir, "sftp")
}
