package server

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the management directory layout under the base path
type Paths struct {
	Base                string
	Logs                string
	GameTemplates       string
	SubscriptionCompose string
	GameConfigs         string
}

// DefaultPaths returns the layout rooted at ~/servermgmnt
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return PathsAt(filepath.Join(home, "servermgmnt")), nil
}

// PathsAt returns the layout rooted at base
func PathsAt(base string) Paths {
	return Paths{
		Base:                base,
		Logs:                filepath.Join(base, "logs"),
		GameTemplates:       filepath.Join(base, "docker-game-templates"),
		SubscriptionCompose: filepath.Join(base, "subscription-docker-compose"),
		GameConfigs:         filepath.Join(base, "game-configs"),
	}
}

// Ensure creates every directory in the layout
func (p Paths) Ensure() error {
	for _, dir := range []string{p.Logs, p.GameTemplates, p.SubscriptionCompose, p.GameConfigs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// TemplateFile returns the compose template path for a game type
func (p Paths) TemplateFile(gameType string) string {
	return filepath.Join(p.GameTemplates, gameType+"-template.yml")
}

// TemplateEnvFile returns the env template path for a game type
func (p Paths) TemplateEnvFile(gameType string) string {
	return filepath.Join(p.GameTemplates, "."+gameType+"_env")
}

// ComposeFile returns the per-subscription compose file path
func (p Paths) ComposeFile(gameType, subscriptionID string) string {
	return filepath.Join(p.SubscriptionCompose,
		fmt.Sprintf("docker-compose-%s-%s.yml", gameType, subscriptionID))
}

// EnvFile returns the per-subscription env file path
func (p Paths) EnvFile(gameType, subscriptionID string) string {
	return filepath.Join(p.SubscriptionCompose,
		fmt.Sprintf(".%s_%s_env", gameType, subscriptionID))
}
