// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrisk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrisk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// State represents the current application state for display.
type State string

const (
	StateRunning    State = "running"
	StateCancelling State = "cancelling"
	StateFinished   State = "finished"
)

// Bar displays the run ID, elapsed time and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	state    State
	runID    string
	status   domain.RunStatus
	elapsed  time.Duration
	fullHelp bool
	width    int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateRunning,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	parts := make([]string, 0, 3)
	if s.runID != "" {
		parts = append(parts, "run "+s.runID)
	}
	parts = append(parts, s.elapsed.Round(time.Second).String())

	switch s.state {
	case StateCancelling:
		parts = append(parts, s.styles.Warning.Render("cancelling..."))
	case StateFinished:
		parts = append(parts, s.styles.Status(s.status).Render(s.status.Description()))
	case StateRunning:
		parts = append(parts, "running")
	}
	return s.styles.Muted.Render(strings.Join(parts, " · "))
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.fullHelp {
		for _, group := range s.keymap.FullHelp() {
			bindings = append(bindings, group...)
		}
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Help.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetRunID sets the run identifier shown on the left.
func (s *Bar) SetRunID(id string) {
	s.runID = id
}

// Finish switches the bar to the finished state with the given outcome.
func (s *Bar) Finish(status domain.RunStatus) {
	s.state = StateFinished
	s.status = status
}

// SetElapsed sets the elapsed run time.
func (s *Bar) SetElapsed(d time.Duration) {
	s.elapsed = d
}

// ToggleHelp switches between the short and full help hints.
func (s *Bar) ToggleHelp() {
	s.fullHelp = !s.fullHelp
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}
