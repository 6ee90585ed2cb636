// Package styles provides colour themes and styling for the progress TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// Theme is the colour palette shared by the progress view and the CLI
// summary.
type Theme struct {
	Primary, Secondary     lipgloss.Color
	Background, Foreground lipgloss.Color
	Muted, Border          lipgloss.Color

	// Outcome colours, also used for run statuses.
	Success, Warning, Error lipgloss.Color
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"),
		Secondary:  lipgloss.Color("#06B6D4"),
		Background: lipgloss.Color("#1E1E2E"),
		Foreground: lipgloss.Color("#CDD6F4"),
		Muted:      lipgloss.Color("#6C7086"),
		Border:     lipgloss.Color("#45475A"),
		Success:    lipgloss.Color("#A6E3A1"),
		Warning:    lipgloss.Color("#F9E2AF"),
		Error:      lipgloss.Color("#F38BA8"),
	}
}

// Styles holds the lipgloss styles built from a Theme.
type Styles struct {
	theme *Theme

	Title, Subtitle, Normal, Muted lipgloss.Style
	Error, Success, Warning        lipgloss.Style

	// Stage list rows, one per stage state.
	StagePending, StageActive, StageDone, StageFailed lipgloss.Style
	Spinner                                          lipgloss.Style

	StatusBar, Help, Border lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		StagePending: lipgloss.NewStyle().
			Foreground(theme.Muted),

		StageActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		StageDone: lipgloss.NewStyle().
			Foreground(theme.Success),

		StageFailed: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Error),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Primary),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(lipgloss.Color("#181825")).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Status returns the style matching a run outcome.
func (s *Styles) Status(status domain.RunStatus) lipgloss.Style {
	switch status {
	case domain.RunCompleted:
		return s.Success
	case domain.RunCompletedWithWarnings:
		return s.Warning
	case domain.RunFailed:
		return s.Error
	default:
		return s.Normal
	}
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
