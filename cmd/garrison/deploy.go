package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/garrison-sh/garrison/pkg/atomicfile"
	"github.com/garrison-sh/garrison/pkg/execx"
	"github.com/garrison-sh/garrison/pkg/log"
	"github.com/garrison-sh/garrison/pkg/server"
	"github.com/garrison-sh/garrison/pkg/sftp"
)

var (
	flagTemplatesDir string
	flagSkipPull     bool
)

// images pulled during host preparation
var deployImages = []string{
	"atmoz/sftp",
	"petreleven11/valheim_server:v0.0.1",
}

const deployBackupTimeFormat = "2006-01-02 1504"

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Prepare a host for running game servers",
	Long: `Prepare a host: create the management directory tree, verify docker
is installed, pull the gateway and game images, install the game
templates, and write the default SFTP gateway configuration.

Existing templates are kept as timestamped .backup copies before being
replaced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeploy(cmd.Context())
	},
}

func init() {
	deployCmd.Flags().StringVar(&flagTemplatesDir, "templates-dir", "", "Directory holding game template files to install")
	deployCmd.Flags().BoolVar(&flagSkipPull, "skip-pull", false, "Skip pulling container images")
}

func runDeploy(ctx context.Context) error {
	paths := server.PathsAt(flagDataDir)
	if err := paths.Ensure(); err != nil {
		return fmt.Errorf("failed to create management directories: %w", err)
	}
	log.Logger.Info().Str("data_dir", flagDataDir).Msg("Management directories ready")

	runner := execx.NewShellRunner()
	result, err := runner.Run(ctx, "docker --version")
	if err != nil || result.ExitCode != 0 {
		return fmt.Errorf("docker is not available on this host")
	}
	log.Logger.Info().Str("version", strings.TrimSpace(result.Stdout)).Msg("Docker found")

	if !flagSkipPull {
		for _, image := range deployImages {
			log.Logger.Info().Str("image", image).Msg("Pulling image")
			result, err := runner.Run(ctx, fmt.Sprintf("docker pull %s", image))
			if err != nil || result.ExitCode != 0 {
				return fmt.Errorf("failed to pull %s: %s", image, strings.TrimSpace(result.Stderr))
			}
		}
	}

	if flagTemplatesDir != "" {
		if err := installTemplates(flagTemplatesDir, paths); err != nil {
			return err
		}
	}

	// Writes the default descriptor and an empty credential table if
	// this host has none yet
	if _, err := sftp.NewManager(sftp.Config{BasePath: sftpBasePath()}); err != nil {
		return fmt.Errorf("failed to initialize SFTP gateway configuration: %w", err)
	}
	log.Logger.Info().Str("path", sftpBasePath()).Msg("SFTP gateway configuration ready")

	log.Logger.Info().Msg("Host prepared")
	return nil
}

// installTemplates copies every game template and env template from
// sourceDir into the data directory, backing up files it replaces
func installTemplates(sourceDir string, paths server.Paths) error {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to read templates directory: %w", err)
	}

	installed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, "-template.yml") && !isEnvTemplate(name) {
			continue
		}

		src := filepath.Join(sourceDir, name)
		dest := filepath.Join(paths.GameTemplates, name)
		if err := backupCopy(dest); err != nil {
			return err
		}

		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", name, err)
		}
		if err := atomicfile.WriteFile(dest, data, 0644); err != nil {
			return fmt.Errorf("failed to install template %s: %w", name, err)
		}
		log.Logger.Info().Str("template", name).Msg("Installed template")
		installed++
	}

	if installed == 0 {
		return fmt.Errorf("no template files found in %s", sourceDir)
	}
	return nil
}

// isEnvTemplate matches game env templates like .valheim_env
func isEnvTemplate(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, "_env")
}

// backupCopy keeps a timestamped copy of path if it exists
func backupCopy(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s for backup: %w", path, err)
	}

	backup := fmt.Sprintf("%s.backup.%s", path, time.Now().UTC().Format(deployBackupTimeFormat))
	if err := atomicfile.WriteFile(backup, data, 0644); err != nil {
		return fmt.Errorf("failed to back up %s: %w", path, err)
	}
	return nil
}
