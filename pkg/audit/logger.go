package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tokenwise-ai/tokenwise/pkg/models"
)

// Config controls the event log subsystem.
type Config struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Logger writes and queries bookkeeping events (budget decisions, cache
// hits and misses) in a dedicated SQLite database. A nil *Logger is a
// valid no-op sink, so callers never have to branch on whether event
// logging is enabled.
type Logger struct {
	db   *sql.DB
	cfg  Config
	done chan struct{}
	wg   sync.WaitGroup
}

// New opens the event SQLite database and creates the schema.
func New(cfg Config) (*Logger, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open event db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate event db: %w", err)
	}

	l := &Logger{
		db:   db,
		cfg:  cfg,
		done: make(chan struct{}),
	}

	if cfg.RetentionDays > 0 {
		l.wg.Add(1)
		go l.retentionLoop()
	}

	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		kind       TEXT NOT NULL,
		model      TEXT NOT NULL,
		operation  TEXT,
		tokens     INTEGER NOT NULL DEFAULT 0,
		allowed    INTEGER NOT NULL DEFAULT 1,
		detail     TEXT,
		created_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at)`)
	return err
}

// Log inserts an event. Safe to call on a nil Logger.
func (l *Logger) Log(e models.Event) error {
	if l == nil || l.db == nil {
		return nil
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := l.db.Exec(
		`INSERT INTO events (kind, model, operation, tokens, allowed, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(e.Kind), e.Model, e.Operation, e.Tokens, e.Allowed, e.Detail, created,
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// Query returns events matching the given options, newest first.
func (l *Logger) Query(ctx context.Context, opts models.EventQueryOpts) ([]models.Event, error) {
	q := `SELECT id, kind, model, operation, tokens, allowed, detail, created_at
		FROM events WHERE 1=1`
	var args []any

	if opts.Kind != "" {
		q += " AND kind = ?"
		args = append(args, string(opts.Kind))
	}
	if opts.Model != "" {
		q += " AND model = ?"
		args = append(args, opts.Model)
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since)
	}

	q += " ORDER BY created_at DESC, id DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		var kind string
		var operation, detail sql.NullString
		if err := rows.Scan(&e.ID, &kind, &e.Model, &operation, &e.Tokens, &e.Allowed, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		e.Kind = models.EventKind(kind)
		e.Operation = operation.String
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// Stats returns aggregate counts and token sums grouped by kind and day.
func (l *Logger) Stats(ctx context.Context) ([]models.EventStat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT kind, date(created_at) as day, count(*) as cnt, COALESCE(SUM(tokens), 0)
		 FROM events GROUP BY kind, day ORDER BY day DESC, kind`)
	if err != nil {
		return nil, fmt.Errorf("event stats: %w", err)
	}
	defer rows.Close()

	var stats []models.EventStat
	for rows.Next() {
		var s models.EventStat
		var day sql.NullString
		if err := rows.Scan(&s.Kind, &day, &s.Count, &s.Tokens); err != nil {
			return nil, fmt.Errorf("scan event stat: %w", err)
		}
		s.Day = day.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Cleanup deletes events older than the configured retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -l.cfg.RetentionDays)
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("event cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database. Safe to
// call on a nil Logger.
func (l *Logger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}

func (l *Logger) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			_, _ = l.Cleanup(context.Background())
		}
	}
}
