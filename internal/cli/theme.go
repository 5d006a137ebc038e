package cli

import "github.com/charmbracelet/lipgloss"

// Theme holds the color scheme for transcript rendering.
type Theme struct {
	User      lipgloss.Color
	Assistant lipgloss.Color
	Tool      lipgloss.Color
	Approval  lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	User:      lipgloss.Color("#5FAFD7"), // light blue
	Assistant: lipgloss.Color("#00D787"), // green
	Tool:      lipgloss.Color("#AF87FF"), // purple
	Approval:  lipgloss.Color("#FFAF00"), // amber
	Error:     lipgloss.Color("#FF005F"), // red
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t Theme) assistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Assistant).Bold(true)
}

func (t Theme) toolStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Tool)
}

func (t Theme) approvalStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Approval).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}
