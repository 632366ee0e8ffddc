package sftp

import "errors"

// Error variants for the configuration engine. Steps inside a transaction
// classify their failures with these sentinels; the orchestrator converts
// everything into a Result and never lets an error escape to the caller.
var (
	// ErrValidation rejects empty identifiers before any I/O happens
	ErrValidation = errors.New("invalid subscription_id or game_type")

	// ErrStoreRead marks a persisted artifact that is missing or
	// unparsable at a point where the transaction cannot proceed
	ErrStoreRead = errors.New("configuration artifact unreadable")

	// ErrReload marks a gateway that did not come back after a
	// configuration change
	ErrReload = errors.New("sftp service not running after restart")
)
