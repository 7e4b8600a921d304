package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for chat output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Accent  lipgloss.Color // Model/assistant color
	Dim     lipgloss.Color // Dimmed/help text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Accent:  lipgloss.Color("#7aa2f7"),
	Dim:     lipgloss.Color("#6e7681"),
}

// ChatStyles holds the styles used by the interactive chat commands.
type ChatStyles struct {
	Banner lipgloss.Style
	User   lipgloss.Style
	Model  lipgloss.Style
	Tool   lipgloss.Style
	Help   lipgloss.Style
	Error  lipgloss.Style
}

// NewChatStyles creates chat styles from a theme.
func NewChatStyles(t Theme) ChatStyles {
	return ChatStyles{
		Banner: lipgloss.NewStyle().Bold(true).Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
		User:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Model: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Tool:  lipgloss.NewStyle().Foreground(t.Dim).Italic(true),
		Help:  lipgloss.NewStyle().Foreground(t.Dim),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e")),
	}
}

// RenderBanner renders a boxed title with optional dimmed detail lines.
func (s ChatStyles) RenderBanner(title string, details ...string) string {
	var b strings.Builder
	b.WriteString(s.Banner.Render(title))
	b.WriteString("\n")
	for _, d := range details {
		b.WriteString(s.Help.Render(d))
		b.WriteString("\n")
	}
	return b.String()
}

// PromptLabel renders the user prompt label, e.g. "you> ".
func (s ChatStyles) PromptLabel(name string) string {
	return s.User.Render(name+">") + " "
}

// ModelLabel renders the model reply label.
func (s ChatStyles) ModelLabel(name string) string {
	return s.Model.Render(name+">") + " "
}
