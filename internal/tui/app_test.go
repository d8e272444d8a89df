package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/furitype/internal/generator"
	"github.com/verte-zerg/furitype/internal/markup"
	"github.com/verte-zerg/furitype/internal/model"
	"github.com/verte-zerg/furitype/internal/problems"
	"github.com/verte-zerg/furitype/internal/typing"
)

type staticSource struct {
	text string
}

func (s staticSource) Name() string { return "static" }

func (s staticSource) Load(context.Context) (model.Content, error) {
	return markup.Parse(s.text), nil
}

type fakeRuns struct {
	runs []model.RunStats
	keys [][]model.KeyStats
	err  error
}

func (f *fakeRuns) InsertRun(_ context.Context, run model.RunStats, keys []model.KeyStats) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.runs = append(f.runs, run)
	f.keys = append(f.keys, keys)
	return int64(len(f.runs)), nil
}

type fakeWeak struct {
	aggs []model.KeyAggregate
}

func (f fakeWeak) GetWeakKeys(context.Context, int) ([]model.KeyAggregate, error) {
	return f.aggs, nil
}

var t0 = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

// stepClock advances 100ms on every reading.
func stepClock() typing.Clock {
	now := t0
	return typing.ClockFunc(func() time.Time {
		now = now.Add(100 * time.Millisecond)
		return now
	})
}

func newTestApp(t *testing.T, text string, runs RunSaver) *App {
	t.Helper()
	app, err := New(Options{
		Layout: rubyLayout(),
		Source: staticSource{text: text},
		Runs:   runs,
		Clock:  stepClock(),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func typeRunes(a *App, s string) {
	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestAppCompletesRunAndSavesResult(t *testing.T) {
	runs := &fakeRuns{}
	app := newTestApp(t, "#title テスト\nab\nb", runs)
	if app.screen != screenTyping {
		t.Fatalf("expected typing screen")
	}

	typeRunes(app, "axbb")

	if app.screen != screenResult {
		t.Fatalf("expected result screen, got %v", app.screen)
	}
	if len(runs.runs) != 1 {
		t.Fatalf("expected one saved run, got %d", len(runs.runs))
	}
	run := runs.runs[0]
	if run.Problem != "static" || run.Title != "テスト" || run.Layout != "test" || run.Lines != 2 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Typed != 3 || run.Missed != 1 {
		t.Fatalf("unexpected counts: %+v", run)
	}
	if run.DurationMs != 300 {
		t.Fatalf("expected 300ms, got %d", run.DurationMs)
	}
	if !run.StartedAt.Equal(t0.Add(100*time.Millisecond)) || !run.EndedAt.Equal(t0.Add(400*time.Millisecond)) {
		t.Fatalf("unexpected run bounds: %v - %v", run.StartedAt, run.EndedAt)
	}
	want := []model.KeyStats{{Key: "a", Correct: 1}, {Key: "b", Correct: 1, Incorrect: 1}}
	got := runs.keys[0]
	if len(got) != len(want) {
		t.Fatalf("expected %d key stats, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if !strings.Contains(app.View(), "Accuracy") {
		t.Fatalf("expected result card")
	}
}

func TestAppStopsFeedingAfterFinish(t *testing.T) {
	runs := &fakeRuns{}
	app := newTestApp(t, "#title\na", runs)

	typeRunes(app, "aaaa")

	if app.screen != screenResult || len(runs.runs) != 1 {
		t.Fatalf("expected a single finished run")
	}
	if got := len(app.result.Typing.Sessions[0].Inputs); got != 1 {
		t.Fatalf("expected keys after finish to be dropped, got %d inputs", got)
	}
}

func TestAppSpaceKey(t *testing.T) {
	app := newTestApp(t, "#title\na b", nil)
	typeRunes(app, "a")
	app.Update(tea.KeyMsg{Type: tea.KeySpace})
	if app.typing.Status.Char != 2 {
		t.Fatalf("expected space to be accepted, cursor at %d", app.typing.Status.Char)
	}
}

func TestAppShowsUnconfirmedInput(t *testing.T) {
	app := newTestApp(t, "#title\n(漢字/かんじ)", nil)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	typeRunes(app, "kaq")

	if string(app.typing.Status.Unconfirmed) != "" || !app.typing.Status.HasLastWrong {
		t.Fatalf("unexpected status: %+v", app.typing.Status)
	}
	typeRunes(app, "n")
	view := app.View()
	if !containsAll(view, []string{"漢字", "Speed", "Misses 1"}) {
		t.Fatalf("typing view missing parts:\n%s", view)
	}
	if string(app.typing.Status.Unconfirmed) != "n" {
		t.Fatalf("expected pending romaji, got %q", string(app.typing.Status.Unconfirmed))
	}
}

func TestAppRestart(t *testing.T) {
	app := newTestApp(t, "#title\nab", nil)
	typeRunes(app, "a")

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	if app.typing.Status.Char != 0 || len(app.typing.Sessions) != 0 {
		t.Fatalf("expected a fresh run, got %+v", app.typing.Status)
	}
}

func TestAppIgnoresBackspace(t *testing.T) {
	app := newTestApp(t, "#title\nか", nil)
	typeRunes(app, "k")

	app.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	if string(app.typing.Status.Unconfirmed) != "k" || len(app.typing.Sessions[0].Inputs) != 1 {
		t.Fatalf("expected backspace to leave input untouched, got %+v", app.typing.Status)
	}
}

func TestAppResultNextStartsAgain(t *testing.T) {
	app := newTestApp(t, "#title\na", nil)
	typeRunes(app, "a")
	if app.screen != screenResult {
		t.Fatalf("expected result screen")
	}
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if app.screen != screenTyping || len(app.typing.Sessions) != 0 {
		t.Fatalf("expected a new run")
	}
}

func TestAppEscQuitsWithoutPicker(t *testing.T) {
	app := newTestApp(t, "#title\nab", nil)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestAppSaveFailureIsShown(t *testing.T) {
	app := newTestApp(t, "#title\na", &fakeRuns{err: errors.New("disk full")})
	typeRunes(app, "a")
	if !strings.Contains(app.notice, "disk full") {
		t.Fatalf("expected notice, got %q", app.notice)
	}
}

func TestAppResizeClampsScroll(t *testing.T) {
	app := newTestApp(t, "#title\nab", nil)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	if app.typing.Scroll.Max != 14 || app.typing.Scroll.Offset != 0 {
		t.Fatalf("unexpected scroll: %+v", app.typing.Scroll)
	}
}

func TestAppPickerStartsSelectedProblem(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "aaa.ntq"), []byte("#title mine\nab\n"), 0o644); err != nil {
		t.Fatalf("write problem: %v", err)
	}
	app, err := New(Options{Layout: rubyLayout(), ProblemsDir: dir, Clock: stepClock()})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if app.screen != screenPicker {
		t.Fatalf("expected picker")
	}

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if app.screen != screenTyping {
		t.Fatalf("expected typing screen, notice %q", app.notice)
	}
	if app.source.Name() != "aaa" || app.typing.Content.Title.String() != "mine" {
		t.Fatalf("unexpected source %q", app.source.Name())
	}

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if app.screen != screenPicker {
		t.Fatalf("expected esc to return to picker")
	}
}

func TestAppReloadsProblemsOnEvent(t *testing.T) {
	dir := t.TempDir()
	app, err := New(Options{Layout: rubyLayout(), ProblemsDir: dir})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	before := len(app.picker.Items())

	path := filepath.Join(dir, "extra.ntq")
	if err := os.WriteFile(path, []byte("#title extra\nab\n"), 0o644); err != nil {
		t.Fatalf("write problem: %v", err)
	}
	app.Update(problemsChangedMsg{event: problems.Event{Path: path}})

	if got := len(app.picker.Items()); got != before+1 {
		t.Fatalf("expected %d items, got %d", before+1, got)
	}
}

func TestWaitForEvent(t *testing.T) {
	if waitForEvent(nil) != nil {
		t.Fatalf("expected no command without a channel")
	}
	ch := make(chan problems.Event, 1)
	ch <- problems.Event{Path: "x.ntq"}
	msg, ok := waitForEvent(ch)().(problemsChangedMsg)
	if !ok || msg.event.Path != "x.ntq" {
		t.Fatalf("unexpected message: %#v", msg)
	}
}

func TestDrillSourceBiasesTowardWeakKeys(t *testing.T) {
	src := &DrillSource{
		Generator:  generator.NewWithSeed(1),
		Pool:       []string{"か", "き"},
		Lines:      3,
		Length:     8,
		FocusWeak:  true,
		WeakTop:    1,
		WeakFactor: 50,
		WeakWindow: 10,
		Weak:       fakeWeak{aggs: []model.KeyAggregate{{Key: "き", Correct: 1, Incorrect: 9}}},
	}
	content, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load drill: %v", err)
	}
	if len(content.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(content.Lines))
	}
	text := ""
	for _, line := range content.Lines {
		text += line.String()
	}
	if strings.Count(text, "き") <= strings.Count(text, "か") {
		t.Fatalf("expected weak key to dominate: %s", text)
	}
}

func TestDrillSourceEmptyPool(t *testing.T) {
	src := &DrillSource{Generator: generator.NewWithSeed(1)}
	if _, err := src.Load(context.Background()); err == nil {
		t.Fatalf("expected error for empty pool")
	}
}

func TestNewRequiresLayout(t *testing.T) {
	if _, err := New(Options{Source: staticSource{text: "#title\na"}}); err == nil {
		t.Fatalf("expected error without layout")
	}
}
