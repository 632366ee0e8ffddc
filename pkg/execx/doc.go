/*
Package execx runs shell commands and reports their outcome.

The Runner interface is the process boundary for everything that
shells out (docker, docker compose, ss, tar). A command that starts
and exits non-zero is a Result, not an error: callers inspect the exit
code and stderr and decide what failure means for them. Only a command
that could not run at all returns an error.
*/
package execx
