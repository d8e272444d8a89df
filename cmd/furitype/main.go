// Package main provides the CLI entrypoint for furitype.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/furitype/internal/config"
	"github.com/verte-zerg/furitype/internal/generator"
	"github.com/verte-zerg/furitype/internal/layout"
	"github.com/verte-zerg/furitype/internal/logging"
	"github.com/verte-zerg/furitype/internal/markup"
	"github.com/verte-zerg/furitype/internal/model"
	"github.com/verte-zerg/furitype/internal/problems"
	"github.com/verte-zerg/furitype/internal/stats"
	"github.com/verte-zerg/furitype/internal/statsui"
	"github.com/verte-zerg/furitype/internal/store"
	"github.com/verte-zerg/furitype/internal/tui"
)

var (
	logLevel   string
	layoutPath string

	practiceFile        string
	practiceProblemsDir string

	// Commands without drill flags still validate these, so they start at
	// the defaults.
	drillLines      = config.DefaultDrillLines
	drillLength     = config.DefaultDrillLength
	drillFocusWeak  bool
	drillWeakTop    = config.DefaultWeakTop
	drillWeakFactor = config.DefaultWeakFactor
	drillWeakWindow = config.DefaultWeakWindow

	statsProblem     string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsKeys        string
	statsPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "furitype",
		Short:         "Furigana typing trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logging.Initialize(logLevel, config.DefaultLogPath())
		},
		RunE: runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level written to the log file (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&layoutPath, "layout", "", "romaji layout file (.yaml or .toml; default: built-in)")
	rootCmd.Flags().StringVar(&practiceFile, "file", "", "practise this problem file instead of opening the picker")
	rootCmd.Flags().StringVar(&practiceProblemsDir, "problems-dir", config.DefaultProblemsDir(), "directory with .ntq problem files")

	rootCmd.AddCommand(newDrillCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newProblemsCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadPracticeConfig merges the config file into flags the user did not set
// and validates the result.
func loadPracticeConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "layout", &layoutPath, fileCfg.Practice.Layout)
	applyStringConfig(cmd, "problems-dir", &practiceProblemsDir, fileCfg.Practice.ProblemsDir)
	applyBoolConfig(cmd, "focus-weak", &drillFocusWeak, fileCfg.Practice.FocusWeak)
	applyIntConfig(cmd, "weak-top", &drillWeakTop, fileCfg.Practice.WeakTop)
	applyFloatConfig(cmd, "weak-factor", &drillWeakFactor, fileCfg.Practice.WeakFactor)
	applyIntConfig(cmd, "weak-window", &drillWeakWindow, fileCfg.Practice.WeakWindow)
	applyIntConfig(cmd, "lines", &drillLines, fileCfg.Practice.DrillLines)
	applyIntConfig(cmd, "length", &drillLength, fileCfg.Practice.DrillLength)

	cfg := model.Config{
		LayoutPath:  layoutPath,
		ProblemsDir: practiceProblemsDir,
		FocusWeak:   drillFocusWeak,
		WeakTop:     drillWeakTop,
		WeakFactor:  drillWeakFactor,
		WeakWindow:  drillWeakWindow,
		DrillLines:  drillLines,
		DrillLength: drillLength,
	}
	if err := config.Validate(cfg); err != nil {
		return model.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openStore() (*store.Store, func(), error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}, nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadPracticeConfig(cmd)
	if err != nil {
		return err
	}
	l, err := layout.Load(cfg.LayoutPath)
	if err != nil {
		return fmt.Errorf("failed to load layout: %w", err)
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	opts := tui.Options{Layout: l, ProblemsDir: cfg.ProblemsDir, Runs: st}
	if practiceFile != "" {
		opts.Source = tui.ProblemSource{Problem: problems.FromPath(practiceFile)}
		return tui.Run(opts)
	}

	watcher, err := problems.NewWatcher(cfg.ProblemsDir, problems.DefaultDebounce)
	if err != nil {
		logging.Warn("problem watcher unavailable", zap.Error(err))
		return tui.Run(opts)
	}
	if err := watcher.Start(); err != nil {
		logging.Warn("problem watcher unavailable", zap.Error(err))
	} else {
		opts.Events = watcher.Events()
		go func() {
			for werr := range watcher.Errors() {
				logging.Warn("problem watcher error", zap.Error(werr))
			}
		}()
	}
	defer stopWatcher(watcher)
	return tui.Run(opts)
}

func stopWatcher(w interface{ Stop() error }) {
	if err := w.Stop(); err != nil {
		logging.Warn("problem watcher shutdown", zap.Error(err))
	}
}

func newDrillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drill",
		Short: "Practise generated kana drills",
		Args:  cobra.NoArgs,
		RunE:  runDrillCmd,
	}
	cmd.Flags().IntVar(&drillLines, "lines", config.DefaultDrillLines, "lines per drill")
	cmd.Flags().IntVar(&drillLength, "length", config.DefaultDrillLength, "kana per line")
	cmd.Flags().BoolVar(&drillFocusWeak, "focus-weak", false, "bias drills toward weak keys")
	cmd.Flags().IntVar(&drillWeakTop, "weak-top", config.DefaultWeakTop, "number of weak keys to focus on")
	cmd.Flags().Float64Var(&drillWeakFactor, "weak-factor", config.DefaultWeakFactor, "weight factor for weak keys")
	cmd.Flags().IntVar(&drillWeakWindow, "weak-window", config.DefaultWeakWindow, "number of recent runs to compute weak keys")
	return cmd
}

func runDrillCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadPracticeConfig(cmd)
	if err != nil {
		return err
	}
	l, err := layout.Load(cfg.LayoutPath)
	if err != nil {
		return fmt.Errorf("failed to load layout: %w", err)
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	source := &tui.DrillSource{
		Generator:  generator.New(),
		Pool:       generator.Pool(l),
		Lines:      cfg.DrillLines,
		Length:     cfg.DrillLength,
		FocusWeak:  cfg.FocusWeak,
		WeakTop:    cfg.WeakTop,
		WeakFactor: cfg.WeakFactor,
		WeakWindow: cfg.WeakWindow,
		Weak:       st,
	}
	return tui.Run(tui.Options{Layout: l, Source: source, Runs: st})
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsProblem, "problem", "", "problem filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N runs")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", config.DefaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsKeys, "keys", "", "comma-separated keys for per-key curves")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "curve-window", &statsCurveWindow, fileCfg.Stats.CurveWindow)
	applyStringConfig(cmd, "keys", &statsKeys, fileCfg.Stats.Keys)
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	cfg := model.StatsConfig{
		Problem:     statsProblem,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Keys:        statsKeys,
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if statsPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		return renderStatsReport(context.Background(), cmd.OutOrStdout(), st, cfg, stats.TerminalWidth(os.Stdout))
	}
	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func renderStatsReport(ctx context.Context, w io.Writer, st *store.Store, cfg model.StatsConfig, width int) error {
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if err := stats.RenderSummary(w, report.Runs); err != nil {
		return err
	}
	if len(report.Runs) == 0 {
		return nil
	}
	if err := stats.RenderCurves(w, report.Runs, cfg.CurveWindow, width); err != nil {
		return err
	}
	if err := stats.RenderKeyCurves(w, report.Runs, report.PerRun, report.Keys, cfg.CurveWindow, width); err != nil {
		return err
	}
	return stats.RenderKeyTable(w, report.KeyAggsWindow)
}

func newProblemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problems",
		Short: "List available problems",
		Args:  cobra.NoArgs,
		RunE:  runProblemsCmd,
	}
	cmd.Flags().StringVar(&practiceProblemsDir, "problems-dir", config.DefaultProblemsDir(), "directory with .ntq problem files")
	return cmd
}

func runProblemsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadPracticeConfig(cmd)
	if err != nil {
		return err
	}
	found, err := problems.List(cfg.ProblemsDir)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	counts, err := st.ListProblems(context.Background())
	if err != nil {
		return fmt.Errorf("failed to count runs: %w", err)
	}
	return writeProblemList(cmd.OutOrStdout(), found, counts)
}

func writeProblemList(w io.Writer, found []problems.Problem, counts map[string]int) error {
	if len(found) == 0 {
		_, err := fmt.Fprintln(w, "No problems found.")
		return err
	}
	nameWidth, titleWidth := len("Name"), len("Title")
	for _, p := range found {
		nameWidth = max(nameWidth, runewidth.StringWidth(p.Name))
		titleWidth = max(titleWidth, runewidth.StringWidth(p.Title))
	}
	for name := range counts {
		nameWidth = max(nameWidth, runewidth.StringWidth(name))
	}
	row := func(name, title, runs, source string) error {
		_, err := fmt.Fprintf(w, "%s  %s  %4s  %s\n",
			runewidth.FillRight(name, nameWidth), runewidth.FillRight(title, titleWidth), runs, source)
		return err
	}
	if err := row("Name", "Title", "Runs", "Source"); err != nil {
		return err
	}
	listed := map[string]struct{}{}
	for _, p := range found {
		listed[p.Name] = struct{}{}
		if err := row(p.Name, p.Title, fmt.Sprintf("%d", counts[p.Name]), p.Source()); err != nil {
			return err
		}
	}
	// Practised names without a file, e.g. drills or deleted problems.
	for _, name := range sortedKeys(counts) {
		if _, ok := listed[name]; ok {
			continue
		}
		if err := row(name, "", fmt.Sprintf("%d", counts[name]), "history"); err != nil {
			return err
		}
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Show how a problem file is parsed",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheckCmd,
	}
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadPracticeConfig(cmd)
	if err != nil {
		return err
	}
	l, err := layout.Load(cfg.LayoutPath)
	if err != nil {
		return fmt.Errorf("failed to load layout: %w", err)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read problem: %w", err)
	}
	warnings, err := describeContent(cmd.OutOrStdout(), markup.Parse(string(data)), l)
	if err != nil {
		return err
	}
	if warnings > 0 {
		return fmt.Errorf("%d segment(s) cannot be typed with layout %s", warnings, l.Name())
	}
	return nil
}

// describeContent prints the parsed structure of content and returns the
// number of segments l cannot type.
func describeContent(w io.Writer, content model.Content, l *layout.Layout) (int, error) {
	var lines []string
	if title := content.Title.String(); title != "" {
		lines = append(lines, fmt.Sprintf("title: %s", title))
	}
	warnings := 0
	for li, line := range content.Lines {
		lines = append(lines, fmt.Sprintf("line %d: %s", li+1, line.String()))
		for si, seg := range line.Segments {
			switch s := seg.(type) {
			case model.Annotated:
				lines = append(lines, fmt.Sprintf("  %d ruby  %s / %s", si+1, s.Base, s.Reading))
			case model.Plain:
				lines = append(lines, fmt.Sprintf("  %d plain %q", si+1, s.Text))
			}
			if !l.Covers(model.Target(seg)) {
				warnings++
				lines = append(lines, fmt.Sprintf("    warning: %q is not typeable with layout %s", string(model.Target(seg)), l.Name()))
			}
		}
	}
	if len(content.Lines) == 0 {
		lines = append(lines, "no lines to type")
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return warnings, fmt.Errorf("failed to write output: %w", err)
		}
	}
	return warnings, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# furitype configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# layout = ""             # Romaji layout file (.yaml or .toml); empty uses the built-in table
# problems-dir = %q
# focus-weak = false      # Bias drills toward weak keys
# weak-top = %d           # Number of weak keys to focus on
# weak-factor = %.1f      # Weight factor for weak keys
# weak-window = %d        # Number of recent runs to compute weak keys
# drill-lines = %d        # Lines per drill
# drill-length = %d       # Kana per drill line

[stats]
# curve-window = %d       # Moving average window
# keys = ""               # Comma-separated keys for per-key curves
`,
		config.DefaultProblemsDir(),
		config.DefaultWeakTop,
		config.DefaultWeakFactor,
		config.DefaultWeakWindow,
		config.DefaultDrillLines,
		config.DefaultDrillLength,
		config.DefaultCurveWindow,
	)
}

// sortedKeys returns the keys of counts in order, for stable output.
func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
