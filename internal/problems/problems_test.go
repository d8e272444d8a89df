package problems

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/furitype/internal/layout"
	"github.com/verte-zerg/furitype/internal/model"
)

func writeProblem(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestIsProblemFile(t *testing.T) {
	assert.True(t, IsProblemFile("greetings.ntq"))
	assert.True(t, IsProblemFile("/tmp/UPPER.NTQ"))
	assert.False(t, IsProblemFile(".hidden.ntq"))
	assert.False(t, IsProblemFile("notes.txt"))
	assert.Equal(t, "greetings", NameOf("/a/b/greetings.ntq"))
}

func TestListMergesDirAndBundled(t *testing.T) {
	dir := t.TempDir()
	writeProblem(t, dir, "mine.ntq", "#title (自作/じさく)\nあいう\n")
	writeProblem(t, dir, "weather.ntq", "#title override\nかさ\n")
	writeProblem(t, dir, "readme.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.ntq"), 0o755))

	list, err := List(dir)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(list), 4)
	assert.Equal(t, "mine", list[0].Name)
	assert.Equal(t, "自作", list[0].Title)
	assert.Equal(t, "weather", list[1].Name)
	assert.False(t, list[1].Bundled())
	assert.Equal(t, "override", list[1].Title)

	names := map[string]int{}
	for _, p := range list {
		names[p.Name]++
	}
	assert.Equal(t, 1, names["weather"])
	assert.Equal(t, 1, names["greetings"])
	assert.Zero(t, names["readme"])
	assert.Zero(t, names["sub"])
}

func TestListMissingDir(t *testing.T) {
	list, err := List(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	for _, p := range list {
		assert.True(t, p.Bundled())
	}
	assert.NotEmpty(t, list)
}

func TestBundledProblemsAreTypeable(t *testing.T) {
	l, err := layout.Default()
	require.NoError(t, err)

	list, err := List("")
	require.NoError(t, err)
	require.NotEmpty(t, list)
	for _, p := range list {
		content, err := Load(p)
		require.NoError(t, err, p.Name)
		assert.NotEmpty(t, p.Title, p.Name)
		for i, line := range content.Lines {
			for _, seg := range line.Segments {
				assert.Truef(t, l.Covers(model.Target(seg)), "%s line %d: %q", p.Name, i, model.Target(seg))
			}
		}
	}
}

func TestFindAndLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeProblem(t, dir, "blank.ntq", "#title nothing\n\n   \n")

	p, err := Find(dir, "blank")
	require.NoError(t, err)
	_, err = Load(p)
	assert.Error(t, err)

	_, err = Find(dir, "nope")
	assert.Error(t, err)

	path := writeProblem(t, dir, "one.ntq", "#title\n(漢/かん)")
	content, err := Load(FromPath(path))
	require.NoError(t, err)
	require.Len(t, content.Lines, 1)
	assert.Equal(t, model.Annotated{Base: "漢", Reading: "かん"}, content.Lines[0].Segments[0])
}

func TestWatcherReportsNewProblem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "problems")
	w, err := NewWatcher(dir, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })

	writeProblem(t, dir, "ignored.txt", "x")
	path := writeProblem(t, dir, "fresh.ntq", "あ")

	select {
	case ev := <-w.Events():
		assert.Equal(t, "fresh.ntq", filepath.Base(ev.Path))
		assert.Equal(t, filepath.Base(path), filepath.Base(ev.Path))
	case err := <-w.Errors():
		t.Fatalf("watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher event")
	}
}
