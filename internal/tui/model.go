// Package tui is the interactive surface: a run-configuration form, the
// result table, an equity-curve pane and a notification line. All state
// changes happen on the Bubble Tea update loop; network calls run as
// commands and come back as typed messages.
package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quantfold/backtestctl/internal/chart"
	"github.com/quantfold/backtestctl/internal/core"
	"github.com/quantfold/backtestctl/internal/metrics"
	"github.com/quantfold/backtestctl/internal/report"
	"github.com/quantfold/backtestctl/internal/results"
	"github.com/quantfold/backtestctl/internal/runner"
	"go.uber.org/zap"
)

// StrategyLister fetches the strategy catalog.
type StrategyLister interface {
	ListStrategies(ctx context.Context) ([]core.StrategyRef, error)
}

// Deps are the components the surface drives.
type Deps struct {
	Strategies StrategyLister
	Runner     *runner.Runner
	Store      *results.Store
	Projector  *chart.Projector
	Exporter   *report.Exporter
	Metrics    *metrics.Registry // optional
	Logger     *zap.Logger
}

// placeholderStrategy is shown when nothing is selected (or the catalog is
// empty); submitting with it selected fails validation before any call.
const placeholderStrategy = "-- none selected --"

// Form field indices.
const (
	fieldStrategy = iota
	fieldSymbol
	fieldStart
	fieldEnd
	fieldCapital
	fieldCount
)

// Messages.
type strategiesMsg struct {
	refs []core.StrategyRef
	err  error
}

type refreshedMsg struct{ err error }

type submitDoneMsg struct{ note runner.Notification }

type chartDoneMsg struct {
	backtestID string
	err        error
}

type exportDoneMsg struct {
	path string
	err  error
}

// focus areas
type area int

const (
	areaForm area = iota
	areaTable
)

// Model is the Bubble Tea model for the backtest client.
type Model struct {
	deps Deps
	log  *zap.Logger

	strategies  []core.StrategyRef
	strategyIdx int // 0 = placeholder

	inputs [fieldCount]textinput.Model // strategy slot unused
	field  int
	focus  area

	cursor     int
	submitting bool
	spin       spinner.Model

	notice      string
	noticeLevel runner.Level

	width  int
	height int
}

// NewModel builds the initial model from defaults held by the runner.
func NewModel(deps Deps) Model {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	draft := deps.Runner.Draft()

	var inputs [fieldCount]textinput.Model
	mk := func(value, placeholder string, width int) textinput.Model {
		ti := textinput.New()
		ti.SetValue(value)
		ti.Placeholder = placeholder
		ti.CharLimit = 32
		ti.Width = width
		return ti
	}
	inputs[fieldSymbol] = mk(draft.Symbol, "e.g. AAPL, BTC-USD", 16)
	inputs[fieldStart] = mk(draft.StartDate, core.DateLayout, 12)
	inputs[fieldEnd] = mk(draft.EndDate, core.DateLayout, 12)
	inputs[fieldCapital] = mk(strconv.FormatFloat(draft.InitialCapital, 'f', -1, 64), "10000", 12)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return Model{
		deps:   deps,
		log:    log,
		inputs: inputs,
		spin:   sp,
		width:  100,
		height: 32,
	}
}

// Init loads the strategy catalog and the known backtests.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadStrategies(), m.refreshBacktests())
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case strategiesMsg:
		if msg.err != nil {
			// Non-fatal: the selector stays on the placeholder and
			// submission remains blocked by validation.
			m.setNotice(runner.LevelError, "could not load strategies")
			return m, nil
		}
		m.strategies = msg.refs
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			m.setNotice(runner.LevelError, "could not refresh backtests")
		}
		m.clampCursor()
		return m, nil

	case submitDoneMsg:
		m.submitting = false
		m.setNotice(msg.note.Level, msg.note.Message)
		if m.deps.Metrics != nil {
			if msg.note.Level == runner.LevelInfo {
				m.deps.Metrics.RecordSubmission("succeeded")
			} else {
				m.deps.Metrics.RecordSubmission("failed")
			}
		}
		m.clampCursor()
		return m, nil

	case chartDoneMsg:
		if msg.err != nil {
			m.setNotice(runner.LevelError, "could not load chart for "+msg.backtestID)
		}
		return m, nil

	case exportDoneMsg:
		if m.deps.Metrics != nil {
			if msg.err != nil {
				m.deps.Metrics.RecordExport("failed")
			} else {
				m.deps.Metrics.RecordExport("succeeded")
			}
		}
		if msg.err != nil {
			m.setNotice(runner.LevelError, "report export failed")
		} else {
			m.setNotice(runner.LevelInfo, "report saved to "+msg.path)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.focus == areaForm && m.field != fieldStrategy && msg.String() == "q" {
			break // let "q" type into text inputs
		}
		return m, tea.Quit
	case "tab":
		return m.cycleFocus(1), nil
	case "shift+tab":
		return m.cycleFocus(-1), nil
	case "r":
		if m.focus == areaTable {
			return m, m.refreshBacktests()
		}
	case "p":
		if m.focus == areaTable {
			if id, ok := m.cursorBacktest(); ok {
				return m, m.exportReport(id)
			}
			return m, nil
		}
	case "enter":
		if m.focus == areaTable {
			if id, ok := m.cursorBacktest(); ok {
				return m, m.selectChart(id)
			}
			return m, nil
		}
		return m.submit()
	case "up", "k":
		if m.focus == areaTable {
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		}
		if msg.String() == "up" {
			return m.cycleFocus(-1), nil
		}
	case "down", "j":
		if m.focus == areaTable {
			if m.cursor < m.deps.Store.Len()-1 {
				m.cursor++
			}
			return m, nil
		}
		if msg.String() == "down" {
			return m.cycleFocus(1), nil
		}
	case "left", "right":
		if m.focus == areaForm && m.field == fieldStrategy {
			m.cycleStrategy(msg.String() == "right")
			return m, nil
		}
	}

	// Route everything else into the focused text input.
	if m.focus == areaForm && m.field != fieldStrategy {
		var cmd tea.Cmd
		m.inputs[m.field], cmd = m.inputs[m.field].Update(msg)
		return m, cmd
	}
	return m, nil
}

// cycleFocus moves through the form fields and then the table, wrapping in
// either direction.
func (m Model) cycleFocus(dir int) Model {
	if m.focus == areaForm {
		m.inputs[m.field].Blur()
	}

	pos := m.field
	if m.focus == areaTable {
		pos = fieldCount
	}
	pos = (pos + dir + fieldCount + 1) % (fieldCount + 1)

	if pos == fieldCount {
		m.focus = areaTable
	} else {
		m.focus = areaForm
		m.field = pos
		if m.field != fieldStrategy {
			m.inputs[m.field].Focus()
		}
	}
	return m
}

// cycleStrategy moves the strategy selection; index 0 is the placeholder.
func (m *Model) cycleStrategy(forward bool) {
	n := len(m.strategies) + 1
	if forward {
		m.strategyIdx = (m.strategyIdx + 1) % n
	} else {
		m.strategyIdx = (m.strategyIdx - 1 + n) % n
	}
}

// selectedStrategy returns the chosen strategy id, or "" for the placeholder.
func (m Model) selectedStrategy() string {
	if m.strategyIdx == 0 || m.strategyIdx > len(m.strategies) {
		return ""
	}
	return m.strategies[m.strategyIdx-1].ID
}

// submit pushes the form values into the runner draft and starts the
// submission. The busy flag in the runner blocks doubles; the local
// submitting flag only drives the spinner.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.deps.Runner.Busy() {
		m.setNotice(runner.LevelError, "a submission is already running")
		return m, nil
	}

	m.deps.Runner.SetStrategy(m.selectedStrategy())
	m.deps.Runner.SetSymbol(strings.TrimSpace(m.inputs[fieldSymbol].Value()))
	m.deps.Runner.SetDates(
		strings.TrimSpace(m.inputs[fieldStart].Value()),
		strings.TrimSpace(m.inputs[fieldEnd].Value()))

	capital, err := strconv.ParseFloat(strings.TrimSpace(m.inputs[fieldCapital].Value()), 64)
	if err != nil {
		capital = 0 // fails the positive-capital check with a clear prompt
	}
	m.deps.Runner.SetInitialCapital(capital)

	m.submitting = true
	m.notice = ""
	return m, tea.Batch(m.spin.Tick, m.runSubmit())
}

func (m Model) runSubmit() tea.Cmd {
	r := m.deps.Runner
	return func() tea.Msg {
		return submitDoneMsg{note: r.Submit(context.Background())}
	}
}

func (m Model) loadStrategies() tea.Cmd {
	gw := m.deps.Strategies
	return func() tea.Msg {
		refs, err := gw.ListStrategies(context.Background())
		return strategiesMsg{refs: refs, err: err}
	}
}

func (m Model) refreshBacktests() tea.Cmd {
	store := m.deps.Store
	return func() tea.Msg {
		return refreshedMsg{err: store.Refresh(context.Background())}
	}
}

func (m Model) selectChart(backtestID string) tea.Cmd {
	p := m.deps.Projector
	if m.deps.Metrics != nil {
		m.deps.Metrics.RecordChartSelection()
	}
	return func() tea.Msg {
		return chartDoneMsg{backtestID: backtestID, err: p.Select(context.Background(), backtestID)}
	}
}

func (m Model) exportReport(backtestID string) tea.Cmd {
	e := m.deps.Exporter
	return func() tea.Msg {
		path, err := e.Export(context.Background(), backtestID)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m *Model) setNotice(level runner.Level, text string) {
	m.noticeLevel = level
	m.notice = text
}

func (m Model) cursorBacktest() (string, bool) {
	all := m.deps.Store.All()
	if m.cursor < 0 || m.cursor >= len(all) {
		return "", false
	}
	return all[m.cursor].ID, true
}

func (m *Model) clampCursor() {
	if n := m.deps.Store.Len(); m.cursor >= n && n > 0 {
		m.cursor = n - 1
	} else if m.deps.Store.Len() == 0 {
		m.cursor = 0
	}
}
