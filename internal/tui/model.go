package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanguard-load/vanguard/internal/executor"
	"github.com/vanguard-load/vanguard/pkg/model"
)

type runState int

const (
	stateRunning runState = iota
	stateSummary
)

// MainModel is the top-level bubbletea program: it drives an Executor run
// on a background goroutine, forwards its progress callback into a
// DashModel, then hands off to a SummaryModel once the run returns.
// Grounded on internal/tui/model.go's MainModel, with the teacher's
// setup-wizard phase dropped (this repo's setup is flags/YAML, handled in
// cmd/vanguard before the program starts) and its channel-of-per-result
// draining replaced by this repo's aggregate progress callback.
type MainModel struct {
	state runState
	ctx   context.Context

	target      string
	method      string
	concurrency int

	dash *DashModel
	sum  *SummaryModel

	report model.Report
	runErr error

	progressCh chan model.Progress
	doneCh     chan runOutcome
	quitting   bool
}

type runOutcome struct {
	report model.Report
	err    error
}

type runDoneMsg runOutcome

// NewModel builds a MainModel ready to run cfg against ctx (carrying the
// process's cancellation signal, e.g. SIGINT/SIGTERM).
func NewModel(ctx context.Context, cfg model.RunConfig, target, method string) (MainModel, error) {
	progressCh := make(chan model.Progress, 64)
	ex, err := executor.New(cfg, func(p model.Progress) {
		select {
		case progressCh <- p:
		default:
		}
	})
	if err != nil {
		return MainModel{}, err
	}

	doneCh := make(chan runOutcome, 1)
	go func() {
		report, err := ex.Run(ctx)
		close(progressCh)
		doneCh <- runOutcome{report: report, err: err}
	}()

	return MainModel{
		state:       stateRunning,
		ctx:         ctx,
		target:      target,
		method:      method,
		concurrency: cfg.Concurrency,
		dash:        NewDashModel(target, method, cfg.Concurrency, cfg.Duration, progressCh),
		progressCh:  progressCh,
		doneCh:      doneCh,
	}, nil
}

func (m MainModel) Init() tea.Cmd {
	return tea.Batch(m.dash.Init(), waitForDone(m.doneCh))
}

func waitForDone(ch <-chan runOutcome) tea.Cmd {
	return func() tea.Msg {
		return runDoneMsg(<-ch)
	}
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case runDoneMsg:
		m.state = stateSummary
		m.report = msg.report
		m.runErr = msg.err
		m.sum = NewSummaryModel(m.report)
		return m, nil
	}

	if m.state == stateRunning {
		var cmd tea.Cmd
		var dm tea.Model
		dm, cmd = m.dash.Update(msg)
		m.dash = dm.(*DashModel)
		return m, cmd
	}
	return m, nil
}

func (m MainModel) View() string {
	if m.quitting {
		return "Exiting...\n"
	}
	switch m.state {
	case stateRunning:
		return m.dash.View()
	default:
		return m.sum.View()
	}
}

// Report returns the final report once the program has finished running.
// Zero-valued until the run completes.
func (m MainModel) Report() model.Report { return m.report }

// RunError returns a FatalRuntimeError encountered by the Executor itself
// (not a per-request outcome, which is always recorded instead).
func (m MainModel) RunError() error { return m.runErr }
