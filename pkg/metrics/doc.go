/*
Package metrics defines Prometheus counters for Garrison operations.

Counters are registered with promauto on the default registry and
labeled by action and terminal status, so transaction outcomes
(completed, already_exists, failed, rollbacks) can be graphed and
alerted on without parsing logs.
*/
package metrics
