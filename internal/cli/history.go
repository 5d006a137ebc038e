package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/internal/models"
)

var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Show the message history of a session",
	Long: `Print the full transcript of one session, including tool calls
and approval states.

Examples:
  agentdeck history ses_01hxy
  agentdeck history ses_01hxy -v`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	messages, err := api.SessionMessages(ctx, args[0])
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	if len(messages) == 0 {
		fmt.Println("No messages in this session.")
		return nil
	}

	for _, msg := range messages {
		fmt.Println(renderMessage(defaultTheme, msg))
	}
	return nil
}

// renderMessage formats one transcript turn.
func renderMessage(theme Theme, msg models.Message) string {
	var b strings.Builder

	switch msg.Role {
	case models.RoleUser:
		b.WriteString(theme.userStyle().Render("you"))
	case models.RoleAssistant:
		b.WriteString(theme.assistantStyle().Render("agent"))
	default:
		b.WriteString(msg.Role)
	}
	if msg.Status == models.StatusStreaming {
		b.WriteString(theme.hintStyle().Render(" (streaming)"))
	}
	b.WriteString("\n")
	b.WriteString(msg.Content)
	b.WriteString("\n")

	for _, tc := range msg.ToolCalls {
		line := fmt.Sprintf("  ⚙ %s", tc.Name)
		if tc.Status != "" {
			line += fmt.Sprintf(" [%s]", tc.Status)
		}
		b.WriteString(theme.toolStyle().Render(line))
		b.WriteString("\n")
	}

	if msg.Approval != nil {
		line := fmt.Sprintf("  ⚠ approval %s: %s", msg.Approval.ID, msg.Approval.Status)
		b.WriteString(theme.approvalStyle().Render(line))
		b.WriteString("\n")
	}

	return b.String()
}
