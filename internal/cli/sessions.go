package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and manage chat sessions",
	Long: `List chat sessions, create new ones, or delete old ones.

Subcommands:
  list    List sessions (default)
  new     Create a session
  delete  Delete a session and its messages

Examples:
  agentdeck sessions
  agentdeck sessions new "Deploy pipeline triage"
  agentdeck sessions delete ses_01hxy`,
	RunE: runSessionsList,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE:  runSessionsList,
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsNew,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 50, "max results")
	sessionsListCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 50, "max results")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sessions, err := api.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}
	if sessionsLimit > 0 && len(sessions) > sessionsLimit {
		sessions = sessions[:sessionsLimit]
	}

	fmt.Printf("Sessions (%d):\n\n", len(sessions))
	for _, s := range sessions {
		fmt.Printf("- %s (%s)\n", s.Title, s.ID)
		if verbose {
			fmt.Printf("  %d messages, last activity %s\n",
				s.MessageCount, s.LastMessageAt.Format("2006-01-02 15:04"))
		}
	}

	return nil
}

func runSessionsNew(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	session, err := api.CreateSession(ctx, args[0])
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	fmt.Printf("Created session %s (%s)\n", session.Title, session.ID)
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := api.DeleteSession(ctx, args[0]); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	fmt.Printf("Deleted session %s\n", args[0])
	return nil
}
