package types

import (
	"time"
)

// Action identifies the operation a Result describes
type Action string

const (
	ActionStart       Action = "start"
	ActionStop        Action = "stop"
	ActionRestart     Action = "restart"
	ActionStatus      Action = "status"
	ActionBackup      Action = "backup"
	ActionConfigure   Action = "configure"
	ActionSFTPUpdate  Action = "sftp_update"
	ActionSFTPRemove  Action = "sftp_remove"
	ActionSFTPRestart Action = "sftp_restart"
)

// Status represents the outcome of an operation
type Status string

const (
	StatusCompleted     Status = "completed"
	StatusAlreadyExists Status = "already_exists"
	StatusNotFound      Status = "not_found"
	StatusFailed        Status = "failed"
	StatusRunning       Status = "running"
	StatusStopped       Status = "stopped"
	StatusRemoved       Status = "removed"
	StatusConfigured    Status = "configured"
)

// Result is the standardized outcome of every management operation.
// It is the only signal callers receive; operations never surface raw
// errors past the component boundary. The JSON shape matches the
// collector contract (empty fields omitted).
type Result struct {
	Action         Action            `json:"action"`
	SubscriptionID string            `json:"subscription_id"`
	Status         Status            `json:"status"`
	Success        bool              `json:"success"`
	Error          string            `json:"error,omitempty"`
	ContainerID    string            `json:"container_id,omitempty"`
	ContainerIP    string            `json:"container_ip,omitempty"`
	Metrics        map[string]string `json:"metrics,omitempty"`
	Ports          []int             `json:"ports,omitempty"`
}

// Failure builds a failed Result for the given action and subscription
func Failure(action Action, subscriptionID string, err error) Result {
	r := Result{
		Action:         action,
		SubscriptionID: subscriptionID,
		Status:         StatusFailed,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Subscription is one provisioned game-server deployment tracked in the
// subscription registry
type Subscription struct {
	ID          string    `json:"id"`
	GameType    string    `json:"game_type"`
	Ports       []int     `json:"ports"`
	MemoryLimit string    `json:"memory_limit"`
	CPULimit    float64   `json:"cpu_limit"`
	ContainerID string    `json:"container_id,omitempty"`
	ContainerIP string    `json:"container_ip,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GameConfig is the base configuration shared by all game servers
type GameConfig struct {
	Name       string `json:"name"`
	Port       int    `json:"port"`
	Password   string `json:"password"`
	World      string `json:"world"`
	Public     bool   `json:"public"`
	MaxPlayers int    `json:"maxplayers"`
}

// Base returns the settings common to every game server. Concrete game
// configs embed GameConfig, so they satisfy handler interfaces expecting
// a Base method through promotion.
func (c GameConfig) Base() GameConfig {
	return c
}

// ValheimModifiers tunes world difficulty via named modifier keys
type ValheimModifiers struct {
	Combat       string `json:"Combat"`
	DeathPenalty string `json:"DeathPenalty"`
	Resources    string `json:"Resources"`
	Raids        string `json:"Raids"`
	Portals      string `json:"Portals"`
}

// ValheimConfig extends GameConfig with Valheim-specific settings
type ValheimConfig struct {
	GameConfig
	Crossplay    bool             `json:"crossplay"`
	SaveInterval int              `json:"saveinterval"`
	Backups      int              `json:"backups"`
	BackupShort  int              `json:"backupshort"`
	BackupLong   int              `json:"backuplong"`
	Preset       string           `json:"preset"`
	Modifiers    ValheimModifiers `json:"modifiers"`
	NoMap        bool             `json:"nomap"`
	PlayerEvents bool             `json:"playerevents"`
	PassiveMobs  bool             `json:"passivemobs"`
	NoBuildCost  bool             `json:"nobuildcost"`
}
