package game

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/garrison-sh/garrison/pkg/log"
	"github.com/garrison-sh/garrison/pkg/types"
)

// Config is a game-specific configuration. Every concrete config embeds
// types.GameConfig, which provides Base.
type Config interface {
	Base() types.GameConfig
}

// Handler translates an opaque encoded payload into the flat environment
// a game server's compose template consumes. Handlers are pure data
// transformations; they hold no state and touch no files.
type Handler interface {
	// GameType returns the game type identifier
	GameType() string

	// DefaultPorts returns the ports a server of this game listens on
	DefaultPorts() []int

	// EnvFileName returns the per-subscription env file name
	EnvFileName(subscriptionID string) string

	// ParseConfig decodes a base64-encoded JSON payload
	ParseConfig(encoded string) (Config, error)

	// GenerateEnv renders the environment variables for the compose file
	GenerateEnv(cfg Config, subscriptionID string) (map[string]string, error)

	// Validate checks a parsed configuration
	Validate(cfg Config) error
}

// Registry holds the registered game handlers
type Registry struct {
	handlers map[string]Handler
	logger   zerolog.Logger
}

// NewRegistry creates a registry with the built-in handlers registered
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[string]Handler),
		logger:   log.WithComponent("game"),
	}
	r.Register(NewValheimHandler())
	return r
}

// Register adds a handler, replacing any previous one for the same game
func (r *Registry) Register(h Handler) {
	r.handlers[h.GameType()] = h
	r.logger.Info().Str("game_type", h.GameType()).Msg("Registered game handler")
}

// Get returns the handler for gameType
func (r *Registry) Get(gameType string) (Handler, error) {
	h, ok := r.handlers[gameType]
	if !ok {
		return nil, fmt.Errorf("no handler registered for game type: %s", gameType)
	}
	return h, nil
}

// Supported returns the registered game types, sorted
func (r *Registry) Supported() []string {
	games := make([]string, 0, len(r.handlers))
	for gameType := range r.handlers {
		games = append(games, gameType)
	}
	sort.Strings(games)
	return games
}
