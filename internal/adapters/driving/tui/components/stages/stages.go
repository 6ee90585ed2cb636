// Package stages renders the pipeline stage checklist with a spinner
// on the stage currently running.
package stages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docrisk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// State is the display state of one stage.
type State int

const (
	StatePending State = iota
	StateActive
	StateDone
	StateFailed
)

// Order is the sequence of working stages shown in the checklist.
var Order = []domain.Stage{
	domain.StageLoading,
	domain.StageChunking,
	domain.StageAnalyzing,
	domain.StageAnswering,
	domain.StageAggregating,
	domain.StagePublishing,
}

// List tracks stage progress for a single run.
type List struct {
	styles  *styles.Styles
	spinner spinner.Model
	states  map[domain.Stage]State
	details map[domain.Stage]string
	current domain.Stage
	errMsg  string
}

// NewList creates a checklist with every stage pending.
func NewList(s *styles.Styles) *List {
	if s == nil {
		s = styles.DefaultStyles()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Spinner

	l := &List{
		styles:  s,
		spinner: sp,
		states:  make(map[domain.Stage]State, len(Order)),
		details: make(map[domain.Stage]string, len(Order)),
		current: domain.StageIdle,
	}
	for _, st := range Order {
		l.states[st] = StatePending
	}
	return l
}

// Init starts the spinner.
func (l *List) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner.
func (l *List) Update(msg tea.Msg) (*List, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return l, nil
	}
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

// Apply records a stage event. Entering a stage completes every stage
// before it; repeated events for the current stage only refresh its detail.
func (l *List) Apply(event domain.StageEvent) {
	switch event.Stage {
	case domain.StageDone:
		for _, st := range Order {
			if l.states[st] == StateActive {
				l.states[st] = StateDone
			}
		}
		l.current = domain.StageDone
		return

	case domain.StageFailed:
		failed := domain.Stage(event.Detail)
		if _, ok := l.states[failed]; !ok {
			failed = l.current
		}
		if _, ok := l.states[failed]; ok {
			l.states[failed] = StateFailed
		}
		if event.Err != nil {
			l.errMsg = event.Err.Error()
		}
		l.current = domain.StageFailed
		return
	}

	idx := indexOf(event.Stage)
	if idx < 0 {
		return
	}
	for _, st := range Order[:idx] {
		if l.states[st] != StateFailed {
			l.states[st] = StateDone
		}
	}
	l.states[event.Stage] = StateActive
	l.current = event.Stage
	if event.Detail != "" {
		l.details[event.Stage] = event.Detail
	}
}

// Current returns the stage most recently entered.
func (l *List) Current() domain.Stage {
	return l.current
}

// State returns the display state of a stage.
func (l *List) State(stage domain.Stage) State {
	return l.states[stage]
}

// Detail returns the latest progress text of a stage.
func (l *List) Detail(stage domain.Stage) string {
	return l.details[stage]
}

// View renders the checklist, one line per stage.
func (l *List) View() string {
	var b strings.Builder
	for _, st := range Order {
		b.WriteString(l.renderLine(st))
		b.WriteString("\n")
	}
	if l.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(l.styles.Error.Render("Error: " + l.errMsg))
		b.WriteString("\n")
	}
	return b.String()
}

func (l *List) renderLine(stage domain.Stage) string {
	label := stage.Description()
	if d := l.details[stage]; d != "" {
		label = fmt.Sprintf("%s (%s)", label, d)
	}

	switch l.states[stage] {
	case StateActive:
		return l.spinner.View() + " " + l.styles.StageActive.Render(label)
	case StateDone:
		return l.styles.StageDone.Render("✓ " + label)
	case StateFailed:
		return l.styles.StageFailed.Render("✗ " + label)
	default:
		return l.styles.StagePending.Render("· " + label)
	}
}

func indexOf(stage domain.Stage) int {
	for i, st := range Order {
		if st == stage {
			return i
		}
	}
	return -1
}
