package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docrisk/internal/adapters/driving/tui/components/stages"
	"github.com/custodia-labs/docrisk/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docrisk/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrisk/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrisk/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrisk/internal/core/domain"
	"github.com/custodia-labs/docrisk/internal/core/ports/driving"
)

// App is the progress view of a single pipeline run following the Elm
// architecture. It starts the run on Init and quits once it finishes.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is cancelled when the user cancels or quits.
	ctx    context.Context
	cancel context.CancelFunc

	source string
	query  string

	styles *styles.Styles
	keymap *keymap.KeyMap
	stages *stages.List
	status *status.Bar

	// runID is taken from the first stage event. Events of other runs
	// sharing the same pipeline are ignored.
	runID string

	result   *domain.RunResult
	err      error
	finished bool

	now     func() time.Time
	started time.Time

	width int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the progress view for analysing source against query.
func NewApp(ports *Ports, source, query string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("creating app: %w", ErrMissingSource)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		ports:  ports,
		ctx:    ctx,
		cancel: cancel,
		source: source,
		query:  query,
		styles: s,
		keymap: km,
		stages: stages.NewList(s),
		status: status.NewBar(s, km),
		now:    time.Now,
	}, nil
}

// WithContext sets the parent context of the run.
func (a *App) WithContext(ctx context.Context) *App {
	a.cancel()
	a.ctx, a.cancel = context.WithCancel(ctx)
	return a
}

// Init implements tea.Model. It starts the spinner and the run.
func (a *App) Init() tea.Cmd {
	a.started = a.now()
	return tea.Batch(
		tea.SetWindowTitle("docrisk - "+a.source),
		a.stages.Init(),
		a.runCmd(),
	)
}

func (a *App) runCmd() tea.Cmd {
	ctx, pipeline, source, query := a.ctx, a.ports.Pipeline, a.source, a.query
	return func() tea.Msg {
		res, err := pipeline.Run(ctx, source, query)
		return messages.RunFinished{Result: res, Err: err}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !a.finished && !a.started.IsZero() {
		a.status.SetElapsed(a.now().Sub(a.started))
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.status.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.StageChanged:
		if a.runID == "" {
			a.runID = msg.Event.RunID
			a.status.SetRunID(a.runID)
		}
		if msg.Event.RunID == a.runID {
			a.stages.Apply(msg.Event)
		}
		return a, nil

	case messages.RunFinished:
		a.finished = true
		a.result = msg.Result
		a.err = msg.Err
		if msg.Result != nil && a.runID == "" {
			a.runID = msg.Result.RunID
			a.status.SetRunID(a.runID)
		}
		a.status.Finish(msg.Status())
		return a, tea.Quit

	case messages.Quit:
		a.cancel()
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.stages, cmd = a.stages.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Quit):
		a.cancel()
		return a, tea.Quit

	case keymap.Matches(key, a.keymap.Cancel):
		if !a.finished {
			a.cancel()
			a.status.SetState(status.StateCancelling)
		}
		return a, nil

	case keymap.Matches(key, a.keymap.Help):
		a.status.ToggleHelp()
		return a, nil
	}
	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("docrisk"))
	b.WriteString(" ")
	b.WriteString(a.styles.Muted.Render(a.source))
	b.WriteString("\n")
	if a.query != "" {
		b.WriteString(a.styles.Subtitle.Render("Query:"))
		b.WriteString(" ")
		b.WriteString(a.styles.Normal.Render(a.query))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.stages.View())

	if a.finished && a.result != nil {
		b.WriteString("\n")
		b.WriteString(a.summary())
	}

	b.WriteString("\n")
	b.WriteString(a.status.View())
	return b.String()
}

func (a *App) summary() string {
	var b strings.Builder
	if rep := a.result.Report; rep != nil {
		fmt.Fprintf(&b, "%d chunks, %d findings, %d gaps\n",
			rep.ChunkCount, len(rep.Findings), len(rep.Gaps))
	}
	for _, sr := range a.result.SinkResults {
		if sr.Delivered() {
			b.WriteString(a.styles.Success.Render("✓ " + sr.Sink))
			if sr.Location != "" {
				b.WriteString(a.styles.Muted.Render(" " + sr.Location))
			}
		} else {
			b.WriteString(a.styles.Error.Render("✗ " + sr.Sink + ": " + sr.Reason))
		}
		b.WriteString("\n")
	}
	for _, w := range a.result.Warnings {
		b.WriteString(a.styles.Warning.Render("! " + w))
		b.WriteString("\n")
	}
	return b.String()
}

// Observer returns a run observer forwarding stage events to program.
func Observer(program *tea.Program) driving.RunObserver {
	return driving.RunObserverFunc(func(event domain.StageEvent) {
		program.Send(messages.StageChanged{Event: event})
	})
}

// Run starts the TUI, blocks until the run finishes or the user quits
// and returns the pipeline's outcome.
func (a *App) Run(opts ...tea.ProgramOption) (*domain.RunResult, error) {
	defer a.cancel()

	p := tea.NewProgram(a, opts...)
	if a.ports.Observers != nil {
		a.ports.Observers.AddObserver(Observer(p))
	}
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	if !a.finished {
		return nil, fmt.Errorf("%w: interrupted", domain.ErrCancelled)
	}
	return a.result, a.err
}

// RunID returns the run being displayed.
func (a *App) RunID() string {
	return a.runID
}

// Finished reports whether the pipeline call has returned.
func (a *App) Finished() bool {
	return a.finished
}

// Result returns the run result once finished.
func (a *App) Result() *domain.RunResult {
	return a.result
}

// Err returns the error returned by the pipeline.
func (a *App) Err() error {
	return a.err
}

// Stages returns the stage checklist.
func (a *App) Stages() *stages.List {
	return a.stages
}
