package ui

import "github.com/charmbracelet/lipgloss"

// Colors for the UI theme.
var (
	ColorPrimary   = lipgloss.Color("#A78BFA") // Soft Purple
	ColorSecondary = lipgloss.Color("#22D3EE") // Bright Cyan
	ColorSuccess   = lipgloss.Color("#059669") // Emerald
	ColorWarning   = lipgloss.Color("#D97706") // Amber
	ColorError     = lipgloss.Color("#DC2626") // Red
	ColorMuted     = lipgloss.Color("#9CA3AF") // Gray 400
	ColorText      = lipgloss.Color("#F1F5F9") // Slate 100
	ColorBorder    = lipgloss.Color("#1E293B") // Slate 800
	ColorDim       = lipgloss.Color("#6B7280") // Gray 500
	ColorInfo      = lipgloss.Color("#2DD4BF") // Teal
)

// Styles holds the lipgloss styles used by the TUI.
type Styles struct {
	Header        lipgloss.Style
	UserPrompt    lipgloss.Style
	AssistantText lipgloss.Style
	CommandOutput lipgloss.Style
	Report        lipgloss.Style
	Plan          lipgloss.Style
	Error         lipgloss.Style
	StatusBar     lipgloss.Style
	StatusState   lipgloss.Style
	StatusAgents  lipgloss.Style
	Input         lipgloss.Style
	Dim           lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() *Styles {
	return &Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		UserPrompt: lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true),

		AssistantText: lipgloss.NewStyle().
			Foreground(ColorText),

		CommandOutput: lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginLeft(2),

		Report: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSuccess).
			Padding(0, 1),

		Plan: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorInfo).
			Padding(0, 1),

		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(ColorMuted).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ColorBorder),

		StatusState: lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true),

		StatusAgents: lipgloss.NewStyle().
			Foreground(ColorDim),

		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary),

		Dim: lipgloss.NewStyle().
			Foreground(ColorDim),
	}
}
