/*
Package game defines per-game configuration handlers.

A Handler knows everything game-specific: the default ports, how to
decode an incoming configuration payload, how to validate it, and how
to turn it into the environment variables the game's container image
expects. The rest of the system treats games uniformly through the
Registry.

# Core Components

Handler:
  - GameType: identifier used in CLI flags and file names
  - ParseConfig: decode a base64 JSON payload onto the game's defaults
  - Validate: reject configurations the game cannot run with
  - GenerateEnv: produce the container environment for a subscription

Registry:
  - Maps game type identifiers to handlers
  - NewRegistry registers every built-in game

Adding a game means implementing Handler and registering it; no other
package changes.

# Usage

	registry := game.NewRegistry()
	handler, err := registry.Get("valheim")
	if err != nil {
		return err
	}

	cfg, err := handler.ParseConfig(encodedPayload)
	if err != nil {
		return err
	}
	env, err := handler.GenerateEnv(cfg, "sub-1")
*/
package game
