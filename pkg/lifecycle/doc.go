/*
Package lifecycle controls the SFTP gateway container through docker
compose.

The Controller interface separates what a reload needs (remove the old
container, bring the stack down and up, verify it is running) from how
those steps are executed, so the transaction engine can be tested
against a fake. ComposeController is the real implementation, shelling
out to docker and docker compose.

Status is a single observation of the container, not a wait loop: the
caller decides what a non-running gateway means.
*/
package lifecycle
