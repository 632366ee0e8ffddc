package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SFTPTransactions counts gateway configuration transactions by
	// action and terminal status
	SFTPTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "garrison",
		Subsystem: "sftp",
		Name:      "transactions_total",
		Help:      "SFTP gateway configuration transactions by action and status",
	}, []string{"action", "status"})

	// SFTPReloadFailures counts gateway restarts that did not come back
	SFTPReloadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "garrison",
		Subsystem: "sftp",
		Name:      "reload_failures_total",
		Help:      "Gateway reloads that left the service not running",
	})

	// SFTPRollbacks counts snapshot restores triggered by failed
	// transactions
	SFTPRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "garrison",
		Subsystem: "sftp",
		Name:      "rollbacks_total",
		Help:      "Snapshot restores performed after failed transactions",
	})

	// ServerOperations counts game-server management operations by
	// action and terminal status
	ServerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "garrison",
		Subsystem: "server",
		Name:      "operations_total",
		Help:      "Game server management operations by action and status",
	}, []string{"action", "status"})
)
