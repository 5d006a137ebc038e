package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/agentdeck/agentdeck/internal/chat"
	"github.com/agentdeck/agentdeck/internal/client"
	"github.com/agentdeck/agentdeck/internal/metrics"
	"github.com/agentdeck/agentdeck/internal/models"
	"github.com/agentdeck/agentdeck/internal/stream"
)

var chatStats bool

var chatCmd = &cobra.Command{
	Use:   "chat [session-id]",
	Short: "Chat with an agent interactively",
	Long: `Open an interactive chat view on a session. Responses stream in
token by token, with tool-call progress and approval prompts inline.

Without a session id the most recent session is resumed, or a new one is
created if none exist.

Keys:
  enter   send
  esc     stop the in-flight response
  ctrl+c  quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatStats, "stats", false, "print stream statistics on exit")
}

// storeUpdateMsg signals that the chat store changed.
type storeUpdateMsg struct{}

// streamDoneMsg carries the result of one completed send cycle.
type streamDoneMsg struct {
	err error
}

// chatModel is the bubbletea model for the interactive chat view.
type chatModel struct {
	store     *chat.Store
	streamer  *stream.Streamer
	sessionID string
	theme     Theme

	input   textinput.Model
	spin    spinner.Model
	updates chan struct{}

	width    int
	height   int
	notice   string
	quitting bool
}

func newChatModel(store *chat.Store, streamer *stream.Streamer, sessionID string, updates chan struct{}) chatModel {
	input := textinput.New()
	input.Placeholder = "Message the agent..."
	input.Focus()

	return chatModel{
		store:     store,
		streamer:  streamer,
		sessionID: sessionID,
		theme:     defaultTheme,
		input:     input,
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		updates:   updates,
		width:     80,
		height:    24,
	}
}

// Init starts listening for store updates.
func (m chatModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			m.streamer.StopStream()
			return m, tea.Quit

		case "esc":
			if m.store.StreamingID() != "" {
				m.streamer.StopStream()
				m.notice = "stopped"
			}
			return m, nil

		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.store.StreamingID() != "" {
				return m, nil
			}
			m.notice = ""
			m.input.SetValue("")
			m.store.AddMessage(models.NewUserMessage(m.sessionID, text))
			return m, tea.Batch(m.sendCmd(text), m.spin.Tick)
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if m.store.StreamingID() == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case storeUpdateMsg:
		// State is read from the store at render time; just re-arm.
		return m, m.waitForUpdate()

	case streamDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("send failed: %v", msg.err)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the transcript, status line, and input line.
func (m chatModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m chatModel) renderContent() string {
	var b strings.Builder

	for _, msg := range m.store.Messages(m.sessionID) {
		b.WriteString(renderMessage(m.theme, msg))
		b.WriteString("\n")
	}

	if m.store.StreamingID() != "" {
		b.WriteString(m.spin.View())
		b.WriteString(m.theme.hintStyle().Render(" streaming... esc to stop"))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(m.theme.hintStyle().Render(m.notice))
		b.WriteString("\n")
	}

	content := clampLines(b.String(), m.height-2)
	return content + "\n> " + m.input.View()
}

// clampLines keeps the last n lines so the transcript scrolls with the
// newest output.
func clampLines(s string, n int) string {
	if n <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// waitForUpdate blocks on the store-update channel outside of Update().
func (m chatModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return storeUpdateMsg{}
	}
}

// sendCmd drives one stream cycle in a command goroutine.
func (m chatModel) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return streamDoneMsg{err: m.streamer.SendStream(context.Background(), text)}
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("chat requires an interactive terminal; use 'agentdeck send' for scripting")
	}

	ctx := context.Background()

	sessions, err := api.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	var sessionID string
	switch {
	case len(args) == 1:
		sessionID = args[0]
	case len(sessions) > 0:
		sessionID = sessions[0].ID
	default:
		session, err := api.CreateSession(ctx, "New chat")
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		sessions = []models.Session{*session}
		sessionID = session.ID
	}

	history, err := api.SessionMessages(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	store := chat.NewStore()
	store.SetSessions(sessions)
	store.SetMessages(sessionID, history)
	store.SetActiveSession(sessionID)

	collector := metrics.NewCollector()
	streamer := stream.New(api, store,
		stream.WithLogger(logger),
		stream.WithMetrics(collector),
	)

	// Forward store mutations into the UI without blocking the decoder.
	updates := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	// Live session-list updates; best effort, the chat works without it.
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go func() {
		err := api.WatchSessions(watchCtx, func(ev client.SessionEvent) error {
			applySessionEvent(store, ev)
			return nil
		})
		if err != nil && watchCtx.Err() == nil {
			logger.Debug("session watch ended", "error", err)
		}
	}()

	p := tea.NewProgram(newChatModel(store, streamer, sessionID, updates))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}

	if chatStats {
		printStreamStats(collector.Snapshot())
	}
	return nil
}

// applySessionEvent folds a live session update into the store.
func applySessionEvent(store *chat.Store, ev client.SessionEvent) {
	if ev.Type == client.WatchSessionCreated {
		store.AddSession(ev.Session)
		return
	}
	sessions := store.Sessions()
	for i := range sessions {
		if sessions[i].ID == ev.Session.ID {
			sessions[i] = ev.Session
			store.SetSessions(sessions)
			return
		}
	}
	store.AddSession(ev.Session)
}
