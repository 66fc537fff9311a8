// Package eventlog persists tracer.Session events to SQLite, keyed by
// (pid, seq), so a trace can be replayed or queried after the traced
// process has exited.
package eventlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"tracy/pkg/tracer"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	pid        INTEGER NOT NULL,
	seq        INTEGER NOT NULL,
	kind       INTEGER NOT NULL,
	syscall_nr INTEGER NOT NULL,
	syscall_name TEXT NOT NULL,
	entry      INTEGER NOT NULL,
	ret        INTEGER NOT NULL,
	signal     INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL,
	PRIMARY KEY (pid, seq)
);

CREATE INDEX IF NOT EXISTS idx_events_pid ON events(pid);
`

// Config configures a SQLiteLogger.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// DefaultConfig returns sensible defaults for path.
func DefaultConfig(path string) Config {
	return Config{Path: path, BusyTimeout: 5 * time.Second}
}

// SQLiteLogger implements tracer.Logger by appending every dispatched
// event to a SQLite table instead of (or alongside) printing it.
type SQLiteLogger struct {
	db       *sql.DB
	resolver tracer.NameResolver
	seq      map[int]int64
}

// Open creates or reuses the database at cfg.Path and ensures its schema
// exists.
func Open(cfg Config, resolver tracer.NameResolver) (*SQLiteLogger, error) {
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventlog: init schema: %w", err)
	}

	return &SQLiteLogger{db: db, resolver: resolver, seq: make(map[int]int64)}, nil
}

// Close closes the underlying database.
func (l *SQLiteLogger) Close() error {
	return l.db.Close()
}

func (l *SQLiteLogger) nextSeq(pid int) int64 {
	n := l.seq[pid]
	l.seq[pid] = n + 1
	return n
}

func (l *SQLiteLogger) insert(ev *tracer.Event) {
	name := l.resolver.Name(ev.SyscallNr)
	pid := ev.Tracee.Pid()

	_, err := l.db.Exec(
		`INSERT OR REPLACE INTO events
			(pid, seq, kind, syscall_nr, syscall_name, entry, ret, signal, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pid, l.nextSeq(pid), int(ev.Kind), ev.SyscallNr, name,
		boolToInt(ev.Entry), ev.Return, ev.Signal, time.Now().Unix(),
	)
	if err != nil {
		// An eventlog write failure shouldn't take down the trace; the
		// session's own Logger slot is strictly best-effort persistence.
		return
	}
}

// LogEntry implements tracer.Logger.
func (l *SQLiteLogger) LogEntry(ev *tracer.Event) { l.insert(ev) }

// LogExit implements tracer.Logger.
func (l *SQLiteLogger) LogExit(ev *tracer.Event) { l.insert(ev) }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
