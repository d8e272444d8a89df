package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/furitype/internal/config"
	"github.com/verte-zerg/furitype/internal/layout"
	"github.com/verte-zerg/furitype/internal/logging"
	"github.com/verte-zerg/furitype/internal/markup"
	"github.com/verte-zerg/furitype/internal/problems"
)

func TestDescribeContent(t *testing.T) {
	l := layout.New("test", []layout.Entry{
		{Key: "か", Encodings: []string{"ka"}},
		{Key: "ん", Encodings: []string{"nn"}},
		{Key: "じ", Encodings: []string{"zi"}},
	})
	content := markup.Parse("#title 題\n(漢字/かんじ)です")

	var buf bytes.Buffer
	warnings, err := describeContent(&buf, content, l)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if warnings != 1 {
		t.Fatalf("expected 1 warning, got %d", warnings)
	}
	out := buf.String()
	for _, want := range []string{
		"title: 題",
		"line 1: 漢字です",
		"1 ruby  漢字 / かんじ",
		`2 plain "です"`,
		`warning: "です" is not typeable with layout test`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDescribeContentEmpty(t *testing.T) {
	var buf bytes.Buffer
	if _, err := describeContent(&buf, markup.Parse(""), layout.New("test", nil)); err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !strings.Contains(buf.String(), "no lines to type") {
		t.Fatalf("expected empty notice, got %q", buf.String())
	}
}

func TestWriteProblemList(t *testing.T) {
	found := []problems.Problem{
		{Name: "mine", Path: "/tmp/mine.ntq", Title: "自分"},
		{Name: "weather", Title: "天気"},
	}
	var buf bytes.Buffer
	if err := writeProblemList(&buf, found, map[string]int{"weather": 3, "drill": 2}); err != nil {
		t.Fatalf("write list: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, two problems and one history row, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "Name") || !strings.Contains(lines[1], "/tmp/mine.ntq") {
		t.Fatalf("unexpected rows: %q", lines)
	}
	if !strings.Contains(lines[2], "   3  bundled") {
		t.Fatalf("expected run count for weather, got %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "drill") || !strings.HasSuffix(lines[3], "history") {
		t.Fatalf("expected history row, got %q", lines[3])
	}
}

func TestWriteProblemListEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeProblemList(&buf, nil, nil); err != nil {
		t.Fatalf("write list: %v", err)
	}
	if buf.String() != "No problems found.\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.LoadConfig(path); err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	uncommented := strings.ReplaceAll(defaultConfigTemplate(), "# drill-lines", "drill-lines")
	if err := os.WriteFile(path, []byte(uncommented), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("uncommented template should decode: %v", err)
	}
	if cfg.Practice.DrillLines == nil || *cfg.Practice.DrillLines != config.DefaultDrillLines {
		t.Fatalf("expected drill-lines from template, got %+v", cfg.Practice.DrillLines)
	}
}

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	var lines, length int
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&lines, "lines", 1, "")
	cmd.Flags().IntVar(&length, "length", 1, "")
	if err := cmd.Flags().Parse([]string{"--lines", "7"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	fromFile := 9
	applyIntConfig(cmd, "lines", &lines, &fromFile)
	applyIntConfig(cmd, "length", &length, &fromFile)
	applyIntConfig(cmd, "length", &length, nil)

	if lines != 7 {
		t.Fatalf("expected flag to win, got %d", lines)
	}
	if length != 9 {
		t.Fatalf("expected config value, got %d", length)
	}
}

type stopFunc func() error

func (f stopFunc) Stop() error { return f() }

func TestStopWatcherLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logging.SetLogger(zap.New(core))
	t.Cleanup(func() { logging.SetLogger(nil) })

	stopWatcher(stopFunc(func() error { return nil }))
	if logs.Len() != 0 {
		t.Fatalf("expected no log entries, got %d", logs.Len())
	}

	stopWatcher(stopFunc(func() error { return errors.New("bad descriptor") }))
	entries := logs.FilterMessage("problem watcher shutdown").All()
	if len(entries) != 1 {
		t.Fatalf("expected one shutdown warning, got %d", logs.Len())
	}
	if got := entries[0].ContextMap()["error"]; got != "bad descriptor" {
		t.Fatalf("expected error field, got %v", got)
	}
}
