/*
Package log provides structured logging for Garrison using zerolog.

A single global logger is initialized once via Init and shared across
packages. Output is JSON for machine consumption or console format for
interactive use, selected by configuration. Context helpers create
child loggers carrying the fields used throughout the codebase.

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

	logger := log.WithComponent("sftp")
	logger.Info().Str("subscription_id", id).Msg("Added SFTP user")

Helper functions cover the simple cases:

	log.Info("Host prepared")
	log.Errorf("Failed to pull image", err)
*/
package log
