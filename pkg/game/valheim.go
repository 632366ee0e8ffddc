package game

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/garrison-sh/garrison/pkg/types"
)

// ValheimHandler handles Valheim dedicated servers
type ValheimHandler struct{}

// NewValheimHandler creates the Valheim handler
func NewValheimHandler() *ValheimHandler {
	return &ValheimHandler{}
}

// GameType returns "valheim"
func (h *ValheimHandler) GameType() string {
	return "valheim"
}

// DefaultPorts returns the Valheim server ports
func (h *ValheimHandler) DefaultPorts() []int {
	return []int{2456, 2457}
}

// EnvFileName returns the per-subscription env file name
func (h *ValheimHandler) EnvFileName(subscriptionID string) string {
	return fmt.Sprintf(".valheim_%s_env", subscriptionID)
}

// ParseConfig decodes a base64-encoded JSON payload into a ValheimConfig.
// Missing fields keep their defaults.
func (h *ValheimHandler) ParseConfig(encoded string) (Config, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid config payload: %w", err)
	}

	cfg := defaultValheimConfig()
	if err := json.Unmarshal(decoded, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config payload: %w", err)
	}
	return cfg, nil
}

func defaultValheimConfig() types.ValheimConfig {
	return types.ValheimConfig{
		GameConfig: types.GameConfig{
			Name:       "myvalheimserver",
			Port:       2456,
			Password:   "somethingsecret",
			World:      "myworld",
			Public:     true,
			MaxPlayers: 10,
		},
		SaveInterval: 1800,
		Backups:      4,
		BackupShort:  7200,
		BackupLong:   43200,
		Preset:       "Normal",
		Modifiers: types.ValheimModifiers{
			Combat:       "normal",
			DeathPenalty: "casual",
			Resources:    "more",
			Raids:        "none",
			Portals:      "casual",
		},
	}
}

// Validate checks the parsed configuration
func (h *ValheimHandler) Validate(cfg Config) error {
	base := cfg.Base()
	if base.Name == "" || base.Port == 0 {
		return fmt.Errorf("valheim config requires a server name and port")
	}
	return nil
}

// GenerateEnv renders the environment variables the Valheim compose
// template consumes
func (h *ValheimHandler) GenerateEnv(cfg Config, subscriptionID string) (map[string]string, error) {
	vc, ok := cfg.(types.ValheimConfig)
	if !ok {
		return nil, fmt.Errorf("expected ValheimConfig, got %T", cfg)
	}

	public := "0"
	if vc.Public {
		public = "1"
	}

	return map[string]string{
		"PORT":               strconv.Itoa(vc.Port),
		"SERVER_NAME":        vc.Name,
		"SERVER_PASSWORD":    vc.Password,
		"CROSSPLAY_ENABLED":  strconv.FormatBool(vc.Crossplay),
		"WORLD_NAME":         vc.World,
		"PUBLIC":             public,
		"SAVE_DIR":           "/valheim/saves",
		"SAVE_INTERVAL":      strconv.Itoa(vc.SaveInterval),
		"KEEP_BACKUPS":       strconv.Itoa(vc.Backups),
		"BACKUPS_SHORT":      strconv.Itoa(vc.BackupShort),
		"BACKUPS_LONG":       strconv.Itoa(vc.BackupLong),
		"SERVER_PRESET":      vc.Preset,
		"MODIFIER_COMBAT":    vc.Modifiers.Combat,
		"MODIFIER_DEATH":     vc.Modifiers.DeathPenalty,
		"MODIFIER_RESOURCES": vc.Modifiers.Resources,
		"MODIFIER_RAIDS":     vc.Modifiers.Raids,
		"MODIFIER_PORTALS":   vc.Modifiers.Portals,
		"NO_MAP":             strconv.FormatBool(vc.NoMap),
		"PLAYER_EVENTS":      strconv.FormatBool(vc.PlayerEvents),
		"PASSIVE_MOBS":       strconv.FormatBool(vc.PassiveMobs),
		"NO_BUILD_COST":      strconv.FormatBool(vc.NoBuildCost),
	}, nil
}
