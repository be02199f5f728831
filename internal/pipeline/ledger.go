package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".
)

// LedgerDirName is the directory under the target where per-run ledger
// snapshots and reports are written.
const LedgerDirName = ".flatmove"

// ledgerFilePattern matches per-run ledger snapshot files.
const ledgerFilePattern = "ledger_*.db"

// Ledger persists one run's transfer attempts as MappingEntry rows in a
// per-run SQLite file. Entries are appended when an attempt completes
// (success or failure) and are never mutated afterward; resume and rollback
// consume the newest snapshot by file mtime.
//
// A single sole-writer connection (SetMaxOpenConns(1)) serializes appends
// from concurrent transfer workers.
type Ledger struct {
	db     *sql.DB
	path   string
	runID  string
	logger *slog.Logger
}

// CreateLedger creates a fresh ledger snapshot for a run, applying the
// embedded schema migrations. The file lives under <target>/.flatmove/ and
// carries the run timestamp and ID in its name.
func CreateLedger(ctx context.Context, targetDir, runID string, logger *slog.Logger) (*Ledger, error) {
	dir := filepath.Join(targetDir, LedgerDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: creating ledger directory: %w", err)
	}

	name := fmt.Sprintf("ledger_%s_%s.db", time.Now().Format("20060102_150405"), shortID(runID))
	path := filepath.Join(dir, name)

	l, err := openLedgerDB(ctx, path, logger)
	if err != nil {
		return nil, err
	}

	l.runID = runID
	logger.Info("ledger: snapshot created", "path", path, "run_id", runID)

	return l, nil
}

// OpenLedger opens an existing ledger snapshot read-write (rollback updates
// nothing but needs the same schema; migrations are a no-op on an
// up-to-date file).
func OpenLedger(ctx context.Context, path string, logger *slog.Logger) (*Ledger, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("pipeline: ledger %s: %w", path, err)
	}

	return openLedgerDB(ctx, path, logger)
}

// LedgerPaths returns all ledger snapshots under the target directory,
// oldest first by mtime.
func LedgerPaths(targetDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(targetDir, LedgerDirName, ledgerFilePattern))
	if err != nil {
		return nil, fmt.Errorf("pipeline: listing ledgers: %w", err)
	}

	slices.SortFunc(matches, func(a, b string) int {
		ai, aErr := os.Stat(a)
		bi, bErr := os.Stat(b)

		if aErr != nil || bErr != nil {
			return strings.Compare(a, b)
		}

		return ai.ModTime().Compare(bi.ModTime())
	})

	return matches, nil
}

// LatestLedgerPath returns the newest-by-mtime ledger snapshot under the
// target directory, or "" when none exists yet.
func LatestLedgerPath(targetDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(targetDir, LedgerDirName, ledgerFilePattern))
	if err != nil {
		return "", fmt.Errorf("pipeline: listing ledgers: %w", err)
	}

	var (
		newest      string
		newestMtime time.Time
	)

	for _, m := range matches {
		info, statErr := os.Stat(m)
		if statErr != nil {
			continue
		}

		if newest == "" || info.ModTime().After(newestMtime) {
			newest = m
			newestMtime = info.ModTime()
		}
	}

	return newest, nil
}

// openLedgerDB opens the SQLite file, sets pragmas, and applies migrations.
func openLedgerDB(ctx context.Context, path string, logger *slog.Logger) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: opening ledger %s: %w", path, err)
	}

	// Sole writer: transfer workers funnel all appends through one
	// connection, so the ledger is the single serialized critical section.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, execErr := db.ExecContext(ctx, p); execErr != nil {
			db.Close()
			return nil, fmt.Errorf("pipeline: setting pragma: %w", execErr)
		}
	}

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Ledger{db: db, path: path, logger: logger}, nil
}

// Path returns the snapshot's file path.
func (l *Ledger) Path() string { return l.path }

// Close releases the database handle.
func (l *Ledger) Close() error { return l.db.Close() }

// Record appends one transfer attempt. Each operation ID appears at most
// once per snapshot; a duplicate insert is a programming error and
// surfaces as a constraint violation.
func (l *Ledger) Record(ctx context.Context, e *MappingEntry) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO mapping_entries
			(operation_id, run_id, source_path, target_path, operation,
			 timestamp, success, error, size_bytes, new_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OperationID, l.runID, e.SourcePath, e.TargetPath, string(e.Operation),
		e.Timestamp.UnixNano(), boolToInt(e.Success), e.Error, e.SizeBytes, e.NewName,
	)
	if err != nil {
		return fmt.Errorf("pipeline: ledger insert %s: %w", e.OperationID, err)
	}

	return nil
}

// Entries returns every entry in the snapshot in insertion order.
func (l *Ledger) Entries(ctx context.Context) ([]MappingEntry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT operation_id, source_path, target_path, operation,
			timestamp, success, error, size_bytes, new_name
		 FROM mapping_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pipeline: ledger query: %w", err)
	}
	defer rows.Close()

	var entries []MappingEntry

	for rows.Next() {
		var (
			e       MappingEntry
			op      string
			ts      int64
			success int
		)

		if scanErr := rows.Scan(&e.OperationID, &e.SourcePath, &e.TargetPath, &op,
			&ts, &success, &e.Error, &e.SizeBytes, &e.NewName); scanErr != nil {
			return nil, fmt.Errorf("pipeline: scanning ledger row: %w", scanErr)
		}

		e.Operation = OperationKind(op)
		e.Timestamp = time.Unix(0, ts)
		e.Success = success != 0
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: iterating ledger rows: %w", err)
	}

	return entries, nil
}

// SuccessfulByOperationID returns the successful entries keyed by operation
// ID, the shape the resume filter consumes.
func (l *Ledger) SuccessfulByOperationID(ctx context.Context) (map[string]MappingEntry, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]MappingEntry)

	for _, e := range entries {
		if e.Success {
			byID[e.OperationID] = e
		}
	}

	return byID, nil
}

// Summary returns the per-snapshot success/failure counts, used by the
// history listing.
func (l *Ledger) Summary(ctx context.Context) (succeeded, failed int, err error) {
	err = l.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(success), 0),
			COALESCE(SUM(1 - success), 0)
		 FROM mapping_entries`).Scan(&succeeded, &failed)
	if err != nil {
		return 0, 0, fmt.Errorf("pipeline: ledger summary: %w", err)
	}

	return succeeded, failed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// shortID returns the first 8 characters of a run ID for use in filenames.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}

	return id[:8]
}
