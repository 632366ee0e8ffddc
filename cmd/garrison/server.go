package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garrison-sh/garrison/pkg/execx"
	"github.com/garrison-sh/garrison/pkg/log"
	"github.com/garrison-sh/garrison/pkg/netport"
	"github.com/garrison-sh/garrison/pkg/report"
	"github.com/garrison-sh/garrison/pkg/server"
	"github.com/garrison-sh/garrison/pkg/store"
	"github.com/garrison-sh/garrison/pkg/types"
)

var (
	flagSubscriptionID string
	flagGameType       string
	flagMemory         string
	flagCPU            float64
	flagCfgJSON        string
	flagDynamicPorts   bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage game server deployments",
}

func init() {
	serverCmd.PersistentFlags().StringVarP(&flagSubscriptionID, "subscription-id", "u", "", "Unique subscription identifier")
	serverCmd.PersistentFlags().StringVarP(&flagGameType, "game-type", "g", "", "Game type (valheim, ...)")

	serverStartCmd.Flags().StringVarP(&flagMemory, "memory", "m", "2g", "Memory limit (e.g. 2g)")
	serverStartCmd.Flags().Float64VarP(&flagCPU, "cpu", "c", 2.0, "CPU limit (e.g. 2.0)")
	serverStartCmd.Flags().BoolVar(&flagDynamicPorts, "dynamic-ports", false, "Allocate free host ports instead of the game's defaults")

	serverConfigureCmd.Flags().StringVar(&flagCfgJSON, "cfg-json", "", "Base64 encoded JSON configuration")

	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverStopCmd)
	serverCmd.AddCommand(serverRestartCmd)
	serverCmd.AddCommand(serverStatusCmd)
	serverCmd.AddCommand(serverBackupCmd)
	serverCmd.AddCommand(serverConfigureCmd)
	serverCmd.AddCommand(serverListCmd)
}

// newServerManager wires the manager with the subscription registry.
// The registry is optional: a locked or unreadable database only costs
// state tracking, never the operation itself.
func newServerManager() (*server.Manager, store.Store, error) {
	st, err := store.NewBoltStore(flagDataDir)
	if err != nil {
		log.Logger.Warn().Err(err).Msg("Subscription registry unavailable, continuing without it")
		st = nil
	}

	mgr, err := server.NewManager(server.Config{
		Paths: server.PathsAt(flagDataDir),
		Store: st,
	})
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, nil, err
	}
	return mgr, st, nil
}

func requireSubscription(mgr *server.Manager) error {
	if flagSubscriptionID == "" {
		return fmt.Errorf("--subscription-id is required")
	}
	if _, err := mgr.Registry().Get(flagGameType); err != nil {
		return fmt.Errorf("%v (supported: %s)", err, strings.Join(mgr.Registry().Supported(), ", "))
	}
	return nil
}

// emitResult prints the result and forwards it to the collector when
// one is configured
func emitResult(ctx context.Context, result types.Result) error {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))

	reporter := report.NewReporter(flagCollectorURL)
	if reporter.Enabled() {
		if err := reporter.Send(ctx, result); err != nil {
			log.Logger.Warn().Err(err).Msg("Result was not delivered to the collector")
		}
	}

	if !result.Success && result.Status != types.StatusNotFound {
		return fmt.Errorf("%s failed: %s", result.Action, result.Error)
	}
	return nil
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Create and start a game server for a subscription",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, st, err := newServerManager()
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}
		if err := requireSubscription(mgr); err != nil {
			return err
		}

		handler, err := mgr.Registry().Get(flagGameType)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ports := handler.DefaultPorts()
		if flagDynamicPorts {
			ports, err = netport.NewScanner(execx.NewShellRunner()).Available(ctx, len(handler.DefaultPorts()))
			if err != nil {
				return fmt.Errorf("failed to allocate ports: %w", err)
			}
		}
		log.Logger.Info().Ints("ports", ports).Str("game_type", flagGameType).Msg("Using ports")

		composeFile, err := mgr.CreateComposeFile(flagSubscriptionID, ports, flagMemory, flagCPU, flagGameType)
		if err != nil {
			return err
		}

		res := mgr.Start(ctx, composeFile, flagSubscriptionID, ports)
		if res.Success && st != nil {
			// The manager only records runtime state; fill in the
			// provisioning parameters it never sees.
			if sub, err := st.GetSubscription(flagSubscriptionID); err == nil {
				sub.GameType = flagGameType
				sub.MemoryLimit = flagMemory
				sub.CPULimit = flagCPU
				if err := st.SaveSubscription(sub); err != nil {
					log.Logger.Warn().Err(err).Msg("Failed to record provisioning parameters")
				}
			}
		}
		return emitResult(ctx, res)
	},
}

var serverStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a subscription's game server",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, st, err := newServerManager()
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}
		if err := requireSubscription(mgr); err != nil {
			return err
		}
		return emitResult(cmd.Context(), mgr.Stop(cmd.Context(), flagSubscriptionID, flagGameType))
	},
}

var serverRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart a subscription's game server",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, st, err := newServerManager()
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}
		if err := requireSubscription(mgr); err != nil {
			return err
		}
		return emitResult(cmd.Context(), mgr.Restart(cmd.Context(), flagSubscriptionID, flagGameType))
	},
}

var serverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report a game server's state and resource usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, st, err := newServerManager()
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}
		if err := requireSubscription(mgr); err != nil {
			return err
		}
		return emitResult(cmd.Context(), mgr.Status(cmd.Context(), flagSubscriptionID, flagGameType))
	},
}

var serverBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Archive a subscription's server data",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, st, err := newServerManager()
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}
		if flagSubscriptionID == "" {
			return fmt.Errorf("--subscription-id is required")
		}
		return emitResult(cmd.Context(), mgr.Backup(cmd.Context(), flagSubscriptionID))
	},
}

var serverConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Apply a new game configuration to a subscription",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, st, err := newServerManager()
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}
		if err := requireSubscription(mgr); err != nil {
			return err
		}
		if flagCfgJSON == "" {
			return fmt.Errorf("--cfg-json is required")
		}
		return emitResult(cmd.Context(), mgr.UpdateConfig(flagSubscriptionID, flagGameType, flagCfgJSON))
	},
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked subscriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.NewBoltStore(flagDataDir)
		if err != nil {
			return fmt.Errorf("failed to open subscription registry: %w", err)
		}
		defer st.Close()

		subs, err := st.ListSubscriptions()
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			fmt.Println("No subscriptions tracked")
			return nil
		}

		fmt.Printf("%-20s %-10s %-10s %-15s %s\n", "SUBSCRIPTION", "GAME", "STATUS", "IP", "PORTS")
		for _, sub := range subs {
			ports := make([]string, len(sub.Ports))
			for i, p := range sub.Ports {
				ports[i] = fmt.Sprintf("%d", p)
			}
			fmt.Printf("%-20s %-10s %-10s %-15s %s\n",
				sub.ID, sub.GameType, sub.Status, sub.ContainerIP, strings.Join(ports, ","))
		}
		return nil
	},
}
