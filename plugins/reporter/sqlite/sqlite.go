// Package sqlite implements a reporter storing messages and events in a
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"firestige.xyz/ngtrace/internal/core"
	"firestige.xyz/ngtrace/internal/log"
	"firestige.xyz/ngtrace/pkg/plugin"
	"firestige.xyz/ngtrace/plugins/parser/ng"
)

const pluginName = "sqlite"

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS messages (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    time    REAL,
    src_mac TEXT NOT NULL,
    dst_mac TEXT NOT NULL,
    marker  TEXT NOT NULL,
    data    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    message_id INTEGER NOT NULL REFERENCES messages(id),
    seq        INTEGER NOT NULL,
    time       REAL,
    src_mac    TEXT NOT NULL,
    dst_mac    TEXT NOT NULL,
    command    TEXT NOT NULL,
    flags      TEXT NOT NULL DEFAULT '',
    src_id     TEXT,
    dst_id     TEXT,
    direction  TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    data       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS events_pair ON events(src_id, dst_id, time);
`

const (
	insertMessage = `INSERT INTO messages (time, src_mac, dst_mac, marker, data) VALUES (?, ?, ?, ?, ?)`
	insertEvent   = `INSERT INTO events (message_id, seq, time, src_mac, dst_mac, command, flags, src_id, dst_id, direction, detail, data)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// Config represents sqlite reporter configuration.
type Config struct {
	Path     string `mapstructure:"path"`
	Truncate bool   `mapstructure:"truncate"` // clear previous rows on start
}

// SQLiteReporter batches messages in a transaction committed on Flush.
type SQLiteReporter struct {
	config Config
	db     *sql.DB
	tx     *sql.Tx
	seq    int
	stored int
}

// NewSQLiteReporter creates a new sqlite reporter.
func NewSQLiteReporter() plugin.Reporter {
	return &SQLiteReporter{}
}

// Name returns the plugin name.
func (r *SQLiteReporter) Name() string {
	return pluginName
}

// Init decodes the reporter options. path is required.
func (r *SQLiteReporter) Init(cfg map[string]any) error {
	if err := plugin.DecodeOptions(pluginName, cfg, &r.config); err != nil {
		return err
	}
	if r.config.Path == "" {
		return fmt.Errorf("%w: %s: path is required", core.ErrConfigInvalid, pluginName)
	}
	return nil
}

// Start opens the database and creates the schema.
func (r *SQLiteReporter) Start(ctx context.Context) error {
	if dir := filepath.Dir(r.config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create db dir: %v", core.ErrSinkWrite, err)
		}
	}

	db, err := sql.Open("sqlite", r.config.Path)
	if err != nil {
		return fmt.Errorf("%w: open db: %v", core.ErrSinkWrite, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("%w: init schema: %v", core.ErrSinkWrite, err)
	}
	if r.config.Truncate {
		if _, err := db.ExecContext(ctx, "DELETE FROM events; DELETE FROM messages;"); err != nil {
			db.Close()
			return fmt.Errorf("%w: truncate: %v", core.ErrSinkWrite, err)
		}
	}
	r.db = db

	log.GetLogger().WithField("path", r.config.Path).Debug("sqlite reporter started")
	return nil
}

// Report stores msg and one row per event.
func (r *SQLiteReporter) Report(ctx context.Context, msg *core.Message) error {
	if msg == nil {
		return fmt.Errorf("nil message")
	}
	if r.db == nil {
		return fmt.Errorf("%w: %s not started", core.ErrSinkWrite, pluginName)
	}
	if r.tx == nil {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: begin: %v", core.ErrSinkWrite, err)
		}
		r.tx = tx
	}

	src, dst := msg.Link.Src.String(), msg.Link.Dst.String()
	res, err := r.tx.ExecContext(ctx, insertMessage, nullFloat(msg.Time), src, dst, msg.Marker, msg.Data)
	if err != nil {
		return fmt.Errorf("%w: insert message: %v", core.ErrSinkWrite, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: message id: %v", core.ErrSinkWrite, err)
	}

	for _, ev := range msg.Events {
		r.seq++
		_, err := r.tx.ExecContext(ctx, insertEvent,
			id, r.seq, nullFloat(ev.Time), src, dst,
			ev.Command, strings.Join(ev.Flags, " "),
			nullString(ev.SrcID), nullString(ev.DstID),
			ng.DirectionOf(ev.Command).String(), ng.Detail(ev), msg.Data)
		if err != nil {
			return fmt.Errorf("%w: insert event: %v", core.ErrSinkWrite, err)
		}
	}
	r.stored++
	return nil
}

// Flush commits the pending transaction.
func (r *SQLiteReporter) Flush(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	tx := r.tx
	r.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrSinkWrite, err)
	}
	return nil
}

// Stop rolls back anything not flushed and closes the database.
func (r *SQLiteReporter) Stop(ctx context.Context) error {
	if r.tx != nil {
		r.tx.Rollback()
		r.tx = nil
	}
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	log.GetLogger().WithFields(map[string]interface{}{
		"path":     r.config.Path,
		"messages": r.stored,
	}).Info("sqlite reporter stopped")
	return err
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
