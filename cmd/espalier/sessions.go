package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/espalier-ai/espalier/internal/logging"
	"github.com/espalier-ai/espalier/pkg/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted tutoring sessions",
	Long:  `List, inspect, and remove sessions from the configured store. Requires Redis; the in-memory store does not outlive the process.`,
}

// getManager builds a session manager from config. Session commands operate
// on shared state, so they refuse to run against the in-memory store.
func getManager(cmd *cobra.Command) (*session.Manager, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Redis.Enabled() {
		return nil, nil, fmt.Errorf("session commands need a redis store; set redis.addr or ESPALIER_REDIS_ADDR")
	}
	manager, _, cleanup, err := buildSessionManager(cfg, logging.NewNop())
	return manager, cleanup, err
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, cleanup, err := getManager(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		ids, err := manager.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(ids) == 0 {
			fmt.Println("No stored sessions.")
			return nil
		}
		for _, id := range ids {
			fmt.Println("- " + id)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the full state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, cleanup, err := getManager(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		state, err := manager.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load session %q: %w", args[0], err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, cleanup, err := getManager(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		var failed bool
		for _, id := range args {
			if err := manager.Delete(cmd.Context(), id); err != nil {
				fmt.Printf("Error removing %q: %v\n", id, err)
				failed = true
				continue
			}
			fmt.Printf("Removed session %q\n", id)
		}
		if failed {
			return fmt.Errorf("some sessions could not be removed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)
}
