// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/furitype/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for practice runs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			problem TEXT NOT NULL,
			title TEXT NOT NULL,
			layout TEXT NOT NULL,
			lines INTEGER NOT NULL,
			typed INTEGER NOT NULL,
			missed INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_key_stats (
			run_id INTEGER NOT NULL,
			target_key TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			PRIMARY KEY (run_id, target_key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_problem ON runs(problem);`,
		`CREATE INDEX IF NOT EXISTS idx_run_key_stats_key ON run_key_stats(target_key);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a completed run and its per-key stats.
func (s *Store) InsertRun(ctx context.Context, run model.RunStats, keys []model.KeyStats) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, ended_at, problem, title, layout, lines, typed, missed, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.EndedAt.UTC().Format(time.RFC3339Nano),
		run.Problem,
		run.Title,
		run.Layout,
		run.Lines,
		run.Typed,
		run.Missed,
		run.DurationMs,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(keys) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO run_key_stats (run_id, target_key, correct, incorrect) VALUES (?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ks := range keys {
			if _, err = stmt.ExecContext(ctx, id, ks.Key, ks.Correct, ks.Incorrect); err != nil {
				return 0, fmt.Errorf("failed to insert key stats: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// GetWeakKeys aggregates key stats over the most recent runs.
func (s *Store) GetWeakKeys(ctx context.Context, window int) ([]model.KeyAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_runs AS (
		SELECT id FROM runs
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT ks.target_key, SUM(ks.correct) AS correct, SUM(ks.incorrect) AS incorrect
	FROM run_key_stats ks
	JOIN recent_runs r ON r.id = ks.run_id
	GROUP BY ks.target_key`

	rows, err := s.db.QueryContext(ctx, query, window)
	if err != nil {
		return nil, err
	}
	return scanKeyAggregates(rows)
}

// ListRuns returns run aggregates filtered by stats config, oldest first.
func (s *Store) ListRuns(ctx context.Context, cfg model.StatsConfig) ([]model.RunAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Problem != "" {
		clauses = append(clauses, "problem = ?")
		args = append(args, cfg.Problem)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, problem, typed, missed, duration_ms
		FROM runs
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var runs []model.RunAggregate
	for rows.Next() {
		var agg model.RunAggregate
		var endedAt string
		if err := rows.Scan(&agg.RunID, &endedAt, &agg.Problem, &agg.Typed, &agg.Missed, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run time: %w", err)
		}
		agg.EndedAt = parsed
		runs = append(runs, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListKeyAggregatesForRuns aggregates per-key stats across runs.
func (s *Store) ListKeyAggregatesForRuns(ctx context.Context, runIDs []int64) ([]model.KeyAggregate, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(runIDs)
	query := fmt.Sprintf(`SELECT target_key, SUM(correct) AS correct, SUM(incorrect) AS incorrect
		FROM run_key_stats
		WHERE run_id IN (%s)
		GROUP BY target_key`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanKeyAggregates(rows)
}

// ListKeyStatsForRuns returns per-run stats for selected keys.
func (s *Store) ListKeyStatsForRuns(ctx context.Context, runIDs []int64, keys []string) (map[int64]map[string]model.KeyAggregate, error) {
	result := map[int64]map[string]model.KeyAggregate{}
	if len(runIDs) == 0 || len(keys) == 0 {
		return result, nil
	}
	idPlaceholders, args := inClause(runIDs)
	keyPlaceholders := make([]string, len(keys))
	for i, key := range keys {
		keyPlaceholders[i] = "?"
		args = append(args, key)
	}
	query := fmt.Sprintf(`SELECT run_id, target_key, correct, incorrect
		FROM run_key_stats
		WHERE run_id IN (%s) AND target_key IN (%s)`, idPlaceholders, strings.Join(keyPlaceholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	for rows.Next() {
		var runID int64
		var agg model.KeyAggregate
		if err := rows.Scan(&runID, &agg.Key, &agg.Correct, &agg.Incorrect); err != nil {
			return nil, err
		}
		if _, ok := result[runID]; !ok {
			result[runID] = map[string]model.KeyAggregate{}
		}
		result[runID][agg.Key] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListProblems returns every practised problem name with its run count.
func (s *Store) ListProblems(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT problem, COUNT(*) FROM runs GROUP BY problem`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	result := map[string]int{}
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		result[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanKeyAggregates(rows *sql.Rows) ([]model.KeyAggregate, error) {
	defer closeRows(rows)
	var result []model.KeyAggregate
	for rows.Next() {
		var agg model.KeyAggregate
		if err := rows.Scan(&agg.Key, &agg.Correct, &agg.Incorrect); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}
