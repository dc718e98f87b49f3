package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultBusyTimeout = 2 * time.Second
	defaultLoadLimit   = 20
)

// Run is one persisted analysis outcome: which package pair was scanned,
// what the scan counted, and where the report landed.
type Run struct {
	ID                   string
	StartedAt            time.Time
	DurationMS           int64
	DownstreamPackage    string
	DownstreamVersion    string
	UpstreamPackage      string
	UpstreamVersion      string
	ModulesScanned       int
	ModulesWithReexports int
	TotalReexports       int
	ParseFailures        int
	ReportPath           string
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun persists one analysis run. A missing ID or start time is
// filled in so callers can hand over a bare counter struct.
func (s *Store) SaveRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	query := `
INSERT INTO runs (
  id, started_at_utc, duration_ms, downstream_package, downstream_version,
  upstream_package, upstream_version, modules_scanned, modules_with_reexports,
  total_reexports, parse_failures, report_path
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  duration_ms=excluded.duration_ms,
  modules_scanned=excluded.modules_scanned,
  modules_with_reexports=excluded.modules_with_reexports,
  total_reexports=excluded.total_reexports,
  parse_failures=excluded.parse_failures,
  report_path=excluded.report_path
`
	return s.withRetry("save run", func() error {
		_, err := s.db.Exec(
			query,
			run.ID,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.DurationMS,
			run.DownstreamPackage,
			run.DownstreamVersion,
			run.UpstreamPackage,
			run.UpstreamVersion,
			run.ModulesScanned,
			run.ModulesWithReexports,
			run.TotalReexports,
			run.ParseFailures,
			run.ReportPath,
		)
		return err
	})
}

// LoadRuns returns the most recent runs, newest first.
func (s *Store) LoadRuns(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = defaultLoadLimit
	}

	query := `
SELECT
  id, started_at_utc, duration_ms, downstream_package, downstream_version,
  upstream_package, upstream_version, modules_scanned, modules_with_reexports,
  total_reexports, parse_failures, report_path
FROM runs
ORDER BY started_at_utc DESC, id DESC
LIMIT ?
`
	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var (
			startedRaw string
			run        Run
		)
		if err := rows.Scan(
			&run.ID,
			&startedRaw,
			&run.DurationMS,
			&run.DownstreamPackage,
			&run.DownstreamVersion,
			&run.UpstreamPackage,
			&run.UpstreamVersion,
			&run.ModulesScanned,
			&run.ModulesWithReexports,
			&run.TotalReexports,
			&run.ParseFailures,
			&run.ReportPath,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		startedAt, err := time.Parse(time.RFC3339Nano, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", startedRaw, err)
		}
		run.StartedAt = startedAt.UTC()

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}
