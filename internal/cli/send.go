package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/internal/chat"
	"github.com/agentdeck/agentdeck/internal/metrics"
	"github.com/agentdeck/agentdeck/internal/models"
	"github.com/agentdeck/agentdeck/internal/stream"
)

var sendStats bool

var sendCmd = &cobra.Command{
	Use:   "send <session-id> <text>",
	Short: "Send one message and stream the response",
	Long: `Send a single message to a session and print the agent's response
as it streams in. Ctrl+C stops the stream without discarding what has
already arrived.

Examples:
  agentdeck send ses_01hxy "Summarize yesterday's deploy failures"
  agentdeck send ses_01hxy "Run the smoke tests" --stats`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVar(&sendStats, "stats", false, "print stream statistics afterwards")
}

func runSend(cmd *cobra.Command, args []string) error {
	sessionID, text := args[0], args[1]
	ctx := context.Background()

	store := chat.NewStore()
	store.SetActiveSession(sessionID)
	store.AddMessage(models.NewUserMessage(sessionID, text))

	collector := metrics.NewCollector()
	streamer := stream.New(api, store,
		stream.WithLogger(logger),
		stream.WithMetrics(collector),
	)

	// Print the assistant content incrementally as the store changes.
	printed := 0
	unsubscribe := store.Subscribe(func() {
		id := store.StreamingID()
		if id == "" {
			return
		}
		for _, msg := range store.Messages(sessionID) {
			if msg.ID == id && len(msg.Content) > printed {
				fmt.Print(msg.Content[printed:])
				printed = len(msg.Content)
				return
			}
		}
	})
	defer unsubscribe()

	// Ctrl+C stops the stream; already-printed output stands.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		streamer.StopStream()
	}()

	if err := streamer.SendStream(ctx, text); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	fmt.Println()

	printToolActivity(store, sessionID)

	if sendStats {
		printStreamStats(collector.Snapshot())
	}
	return nil
}

// printToolActivity summarizes tool calls and approvals from the
// response, if any.
func printToolActivity(store *chat.Store, sessionID string) {
	for _, msg := range store.Messages(sessionID) {
		if msg.Role != models.RoleAssistant {
			continue
		}
		for _, tc := range msg.ToolCalls {
			line := fmt.Sprintf("  ⚙ %s", tc.Name)
			if tc.Status != "" {
				line += fmt.Sprintf(" [%s]", tc.Status)
			}
			fmt.Println(defaultTheme.toolStyle().Render(line))
		}
		if msg.Approval != nil {
			line := fmt.Sprintf("  ⚠ approval %s: %s", msg.Approval.ID, msg.Approval.Status)
			fmt.Println(defaultTheme.approvalStyle().Render(line))
		}
	}
}

func printStreamStats(snap metrics.Snapshot) {
	fmt.Printf("\nStream stats:\n")
	fmt.Printf("  Streams:      %d\n", snap.StreamCount)
	fmt.Printf("  Total time:   %dms\n", snap.TotalTimeMs)
	fmt.Printf("  Delta bytes:  %d\n", snap.DeltaBytes)

	kinds := make([]string, 0, len(snap.Events))
	for kind := range snap.Events {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Printf("  %-18s %d\n", kind+":", snap.Events[kind])
	}
}
