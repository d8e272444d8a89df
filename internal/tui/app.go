// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/furitype/internal/layout"
	"github.com/verte-zerg/furitype/internal/logging"
	"github.com/verte-zerg/furitype/internal/model"
	"github.com/verte-zerg/furitype/internal/problems"
	"github.com/verte-zerg/furitype/internal/stats"
	"github.com/verte-zerg/furitype/internal/typing"
)

type screen int

const (
	screenPicker screen = iota
	screenTyping
	screenResult
)

// chromeRows is the number of rows used by everything except the text.
const chromeRows = 6

// Options configures an App.
type Options struct {
	Layout *layout.Layout
	// Source starts a run immediately and disables the picker.
	Source      Source
	ProblemsDir string
	Runs        RunSaver
	// Events triggers a picker reload when problem files change.
	Events <-chan problems.Event
	Clock  typing.Clock
}

// App implements the Bubble Tea practice UI.
type App struct {
	opts      Options
	keys      keyMap
	help      help.Model
	picker    list.Model
	hasPicker bool

	screen screen
	source Source
	typing typing.TypingModel
	result typing.ResultModel

	width  int
	height int
	notice string
}

type problemsChangedMsg struct {
	event problems.Event
}

// New builds the App. With opts.Source set the first run is loaded here so
// that load errors surface before the terminal is taken over.
func New(opts Options) (*App, error) {
	if opts.Layout == nil {
		return nil, errors.New("layout is required")
	}
	if opts.Clock == nil {
		opts.Clock = typing.SystemClock{}
	}
	a := &App{opts: opts, keys: defaultKeyMap(), help: help.New()}
	if opts.Source != nil {
		if err := a.start(opts.Source); err != nil {
			return nil, err
		}
		return a, nil
	}
	found, err := problems.List(opts.ProblemsDir)
	if err != nil {
		return nil, err
	}
	a.picker = newPicker(problemItems(found))
	a.hasPicker = true
	a.screen = screenPicker
	return a, nil
}

// Run starts the program on the alternate screen.
func Run(opts Options) error {
	app, err := New(opts)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run ui: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return waitForEvent(a.opts.Events)
}

func waitForEvent(ch <-chan problems.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return problemsChangedMsg{event: ev}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.hasPicker {
			a.picker.SetSize(msg.Width, max(msg.Height-1, 1))
		}
		a.typing = typing.Resize(a.typing, a.scrollMax())
		return a, nil
	case problemsChangedMsg:
		return a, tea.Batch(a.reloadProblems(msg.event), waitForEvent(a.opts.Events))
	case tea.KeyMsg:
		if key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}
		switch a.screen {
		case screenTyping:
			return a.updateTyping(msg)
		case screenResult:
			return a.updateResult(msg)
		default:
			return a.updatePicker(msg)
		}
	}
	if a.screen == screenPicker {
		var cmd tea.Cmd
		a.picker, cmd = a.picker.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.picker.FilterState() != list.Filtering && key.Matches(msg, a.keys.Select) {
		item, ok := a.picker.SelectedItem().(problemItem)
		if !ok {
			return a, nil
		}
		if err := a.start(ProblemSource{Problem: item.problem}); err != nil {
			a.fail("failed to load problem", err)
			return a, a.picker.NewStatusMessage(a.notice)
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)
	return a, cmd
}

func (a *App) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back):
		return a.back()
	case key.Matches(msg, a.keys.Restart):
		a.restart()
		return a, nil
	}
	switch msg.Type {
	case tea.KeySpace:
		a.feed(' ')
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if !a.feed(r) {
				break
			}
		}
	}
	return a, nil
}

func (a *App) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Next), key.Matches(msg, a.keys.Restart):
		a.restart()
	case key.Matches(msg, a.keys.Back):
		return a.back()
	}
	return a, nil
}

func (a *App) back() (tea.Model, tea.Cmd) {
	if !a.hasPicker {
		return a, tea.Quit
	}
	a.screen = screenPicker
	return a, nil
}

func (a *App) restart() {
	if a.source == nil {
		return
	}
	if err := a.start(a.source); err != nil {
		a.fail("failed to restart", err)
	}
}

// feed sends one key to the engine. It returns false once the run is over.
func (a *App) feed(r rune) bool {
	before := a.typing.Status
	switch next := typing.KeyInput(a.typing, r).(type) {
	case typing.TypingModel:
		a.typing = next
		logKey(r, next, before)
		return true
	case typing.ResultModel:
		logKey(r, next.Typing, before)
		a.finish(next)
	}
	return false
}

func logKey(r rune, tm typing.TypingModel, before typing.Status) {
	if len(tm.Sessions) == 0 {
		return
	}
	inputs := tm.Sessions[len(tm.Sessions)-1].Inputs
	if len(inputs) == 0 {
		return
	}
	logging.LogKeystroke(r, inputs[len(inputs)-1].Correct, before.Line, before.Segment, before.Char)
}

func (a *App) start(src Source) error {
	content, err := src.Load(context.Background())
	if err != nil {
		return err
	}
	tm := typing.New(content, a.opts.Layout,
		typing.WithClock(a.opts.Clock),
		typing.WithScroll(a.scrollMax()),
	)
	if tm.Finished() {
		return fmt.Errorf("%s has nothing to type", src.Name())
	}
	a.source = src
	a.typing = tm
	a.result = typing.ResultModel{}
	a.screen = screenTyping
	a.notice = ""
	if missing := uncovered(content, a.opts.Layout); missing > 0 {
		a.notice = fmt.Sprintf("%d segment(s) cannot be typed with layout %s", missing, a.opts.Layout.Name())
		logging.Warn("layout does not cover problem", zap.String("problem", src.Name()), zap.Int("segments", missing))
	}
	logging.Debug("run started", zap.String("source", src.Name()), zap.Int("lines", len(content.Lines)))
	return nil
}

func uncovered(content model.Content, l *layout.Layout) int {
	missing := 0
	for _, line := range content.Lines {
		for _, seg := range line.Segments {
			if !l.Covers(model.Target(seg)) {
				missing++
			}
		}
	}
	return missing
}

func (a *App) finish(res typing.ResultModel) {
	a.result = res
	a.typing = res.Typing
	a.screen = screenResult

	metrics := stats.Compute(res.Typing)
	run := runStats(a.source.Name(), a.opts.Layout.Name(), res.Typing, metrics)
	logging.LogRunFinished(run.Problem, metrics.TypeCount, metrics.MissCount, metrics.TotalTime)
	if a.opts.Runs == nil {
		return
	}
	if _, err := a.opts.Runs.InsertRun(context.Background(), run, stats.KeyStats(res.Typing)); err != nil {
		a.fail("failed to save run", err)
	}
}

func runStats(problem, layoutName string, tm typing.TypingModel, m stats.Metrics) model.RunStats {
	run := model.RunStats{
		Problem:    problem,
		Title:      tm.Content.Title.String(),
		Layout:     layoutName,
		Lines:      len(tm.Content.Lines),
		Typed:      m.TypeCount,
		Missed:     m.MissCount,
		DurationMs: m.TotalTime.Milliseconds(),
	}
	for _, s := range tm.Sessions {
		if len(s.Inputs) == 0 {
			continue
		}
		if run.StartedAt.IsZero() || s.Start().Before(run.StartedAt) {
			run.StartedAt = s.Start()
		}
		if s.End().After(run.EndedAt) {
			run.EndedAt = s.End()
		}
	}
	return run
}

func (a *App) reloadProblems(ev problems.Event) tea.Cmd {
	logging.Debug("problems changed", zap.String("path", ev.Path), zap.String("op", ev.Op.String()))
	if !a.hasPicker {
		return nil
	}
	found, err := problems.List(a.opts.ProblemsDir)
	if err != nil {
		a.fail("failed to reload problems", err)
		return nil
	}
	return a.picker.SetItems(problemItems(found))
}

func (a *App) fail(msg string, err error) {
	a.notice = fmt.Sprintf("%s: %v", msg, err)
	logging.Error(msg, zap.Error(err))
}

func (a *App) scrollMax() float64 {
	return float64(max(a.height-chromeRows, 0))
}

func (a *App) contentWidth() int {
	if a.width == 0 {
		return 0
	}
	return max(int(float64(a.width)*0.70), 1)
}

// View implements tea.Model.
func (a *App) View() string {
	switch a.screen {
	case screenTyping:
		return a.viewTyping()
	case screenResult:
		return a.viewResult()
	default:
		if a.notice == "" {
			return a.picker.View()
		}
		return a.picker.View() + "\n" + footerStyle.Render(a.notice)
	}
}

func (a *App) viewTyping() string {
	width := a.contentWidth()
	li := a.typing.Status.Line

	rows := []string{titleStyle.Render(a.title()), ""}
	rows = append(rows, wrapRubyCells(buildRubyCells(a.typing, li-1, lineView{context: true}), width)...)
	rows = append(rows, wrapRubyCells(buildRubyCells(a.typing, li, lineView{active: true}), width)...)
	rows = append(rows, wrapRubyCells(buildRubyCells(a.typing, li+1, lineView{context: true}), width)...)
	rows = append(rows, "", renderInput(a.typing.Status))

	footer := renderFooter(stats.Compute(a.typing), a.notice)
	if a.width == 0 || a.height == 0 {
		return strings.Join(rows, "\n") + "\n" + footer
	}
	content := lipgloss.NewStyle().Width(width).Render(strings.Join(rows, "\n"))
	if a.height < 3 {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(a.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (a *App) title() string {
	if title := a.typing.Content.Title.String(); title != "" {
		return title
	}
	if a.source != nil {
		return a.source.Name()
	}
	return ""
}

// renderInput shows the romaji typed toward the current key followed by the
// last rejected key.
func renderInput(st typing.Status) string {
	out := inputStyle.Render(string(st.Unconfirmed))
	if st.HasLastWrong {
		out += incorrectStyle.Render(string(st.LastWrong))
	}
	return out
}

func renderFooter(m stats.Metrics, notice string) string {
	segments := []string{
		fmt.Sprintf("Speed %.2f keys/s", m.Speed),
		fmt.Sprintf("Accuracy %.1f%%", m.Accuracy*100),
		fmt.Sprintf("Misses %d", m.MissCount),
		fmt.Sprintf("Time %s", stats.FormatDuration(m.TotalTime)),
	}
	if notice != "" {
		segments = append(segments, notice)
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (a *App) viewResult() string {
	m := stats.Compute(a.result.Typing)
	rows := []string{
		cardTitleStyle.Render(a.title()),
		"",
		resultRow("Speed", fmt.Sprintf("%.2f keys/s", m.Speed)),
		resultRow("Accuracy", fmt.Sprintf("%.1f%%", m.Accuracy*100)),
		resultRow("Typed", fmt.Sprintf("%d", m.TypeCount)),
		resultRow("Misses", fmt.Sprintf("%d", m.MissCount)),
		resultRow("Time", stats.FormatDuration(m.TotalTime)),
	}
	body := cardStyle.Render(strings.Join(rows, "\n")) + "\n\n" + a.help.View(a.keys)
	if a.notice != "" {
		body += "\n" + footerStyle.Render(a.notice)
	}
	if a.width == 0 || a.height == 0 {
		return body
	}
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, body)
}

func resultRow(label, value string) string {
	return cardTitleStyle.Render(fmt.Sprintf("%-9s", label)) + cardValueStyle.Render(value)
}
