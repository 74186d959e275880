package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig configures the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/audit.db",
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteStorage is a SQLite-backed Storage.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (and initializes, if needed) the audit database.
func NewSQLiteStorage(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", config.Path, config.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger.With("component", "audit.storage.sqlite"),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	s.logger.Info("audit storage initialized", "path", config.Path)
	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_record (
			id              TEXT PRIMARY KEY,
			session_id      TEXT NOT NULL,
			kind            TEXT NOT NULL,
			recorded_at     TIMESTAMP NOT NULL,
			requester_id    INTEGER NOT NULL DEFAULT 0,
			requester_email TEXT NOT NULL DEFAULT '',
			requester_role  TEXT NOT NULL DEFAULT '',
			action          TEXT NOT NULL DEFAULT '',
			target_id       INTEGER NOT NULL DEFAULT 0,
			allowed         BOOLEAN NOT NULL DEFAULT 0,
			matched_rule    TEXT NOT NULL DEFAULT '',
			reason          TEXT NOT NULL DEFAULT '',
			outcome         TEXT NOT NULL DEFAULT '',
			duration_ms     INTEGER NOT NULL DEFAULT 0,
			iterations      INTEGER NOT NULL DEFAULT 0,
			bounded         BOOLEAN NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_record(session_id);
		CREATE INDEX IF NOT EXISTS idx_audit_recorded ON audit_record(recorded_at);
		CREATE INDEX IF NOT EXISTS idx_audit_kind ON audit_record(kind);
	`)
	return err
}

// Store implements Storage.
func (s *SQLiteStorage) Store(ctx context.Context, record *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_record (
			id, session_id, kind, recorded_at,
			requester_id, requester_email, requester_role,
			action, target_id, allowed, matched_rule, reason,
			outcome, duration_ms, iterations, bounded
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.SessionID, record.Kind, record.RecordedAt,
		record.RequesterID, record.RequesterEmail, record.RequesterRole,
		record.Action, record.TargetID, record.Allowed, record.MatchedRule, record.Reason,
		record.Outcome, record.DurationMS, record.Iterations, record.Bounded,
	)
	return err
}

// Query implements Storage.
func (s *SQLiteStorage) Query(ctx context.Context, query *Query) ([]*Record, error) {
	where, args := buildWhere(query)
	q := `
		SELECT id, session_id, kind, recorded_at,
		       requester_id, requester_email, requester_role,
		       action, target_id, allowed, matched_rule, reason,
		       outcome, duration_ms, iterations, bounded
		FROM audit_record` + where + ` ORDER BY recorded_at DESC`
	if query != nil && query.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", query.Limit, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.Kind, &r.RecordedAt,
			&r.RequesterID, &r.RequesterEmail, &r.RequesterRole,
			&r.Action, &r.TargetID, &r.Allowed, &r.MatchedRule, &r.Reason,
			&r.Outcome, &r.DurationMS, &r.Iterations, &r.Bounded,
		); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Count implements Storage.
func (s *SQLiteStorage) Count(ctx context.Context, query *Query) (int64, error) {
	where, args := buildWhere(query)
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_record`+where, args...).Scan(&n)
	return n, err
}

// DeleteBefore implements Storage.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_record WHERE recorded_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteOldest implements Storage.
func (s *SQLiteStorage) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM audit_record WHERE id IN (
			SELECT id FROM audit_record ORDER BY recorded_at ASC LIMIT ?
		)`, n)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close implements Storage.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func buildWhere(q *Query) (string, []any) {
	if q == nil {
		return "", nil
	}
	var conds []string
	var args []any
	if q.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, q.SessionID)
	}
	if q.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, q.Kind)
	}
	if q.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, q.Action)
	}
	if q.StartTime != nil {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, *q.StartTime)
	}
	if q.EndTime != nil {
		conds = append(conds, "recorded_at <= ?")
		args = append(args, *q.EndTime)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
