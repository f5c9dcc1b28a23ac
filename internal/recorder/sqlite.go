package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"EngulfSentinel/internal/model"
)

// SQLiteRecorder journals scan cycles and entries to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so external readers don't block the bot.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_cycles (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			symbol     TEXT,
			timeframe  TEXT,
			last_bar   INTEGER,
			candidates INTEGER,
			zones      INTEGER,
			bullish    INTEGER,
			bearish    INTEGER,
			error      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_ts ON scan_cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS combos (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id       INTEGER NOT NULL REFERENCES scan_cycles(id),
			direction     TEXT,
			rank          INTEGER,
			trigger_time  INTEGER,
			trigger_high  REAL,
			trigger_low   REAL,
			partner_time  INTEGER,
			partner_high  REAL,
			partner_low   REAL,
			trigger_level REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_combos_scan ON combos(scan_id)`,

		`CREATE TABLE IF NOT EXISTS entries (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			order_id      TEXT,
			symbol        TEXT,
			side          TEXT,
			price         REAL,
			trigger_time  INTEGER,
			trigger_level REAL,
			partner_time  INTEGER,
			volume        REAL,
			sl_pips       REAL,
			tp_pips       REAL,
			label         TEXT,
			executor      TEXT,
			error         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_ts ON entries(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", stmtHead(s), err)
		}
	}
	return nil
}

// stmtHead shortens a statement for error messages.
func stmtHead(s string) string {
	return s[:min(len(s), 40)]
}

// RecordScan writes the cycle row and one row per combo in a single transaction.
func (r *SQLiteRecorder) RecordScan(cycle *ScanCycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	bull := cycle.Combos.Combos(model.Bullish)
	bear := cycle.Combos.Combos(model.Bearish)
	res, err := tx.Exec(`INSERT INTO scan_cycles
		(timestamp, symbol, timeframe, last_bar, candidates, zones, bullish, bearish, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		r.at(cycle.At), cycle.Symbol, string(cycle.Timeframe), unixOrZero(cycle.LastBar),
		cycle.Candidates, cycle.Zones, len(bull), len(bear), cycle.Err,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	scanID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("scan id: %w", err)
	}

	for _, list := range [][]model.Combo{bull, bear} {
		for rank, c := range list {
			if _, err := tx.Exec(`INSERT INTO combos
				(scan_id, direction, rank, trigger_time, trigger_high, trigger_low,
				 partner_time, partner_high, partner_low, trigger_level)
				VALUES (?,?,?,?,?,?,?,?,?,?)`,
				scanID, c.Direction.String(), rank,
				c.Trigger.Time.Unix(), c.Trigger.High, c.Trigger.Low,
				c.Partner.Time.Unix(), c.Partner.High, c.Partner.Low, c.TriggerLevel(),
			); err != nil {
				return fmt.Errorf("insert combo: %w", err)
			}
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordEntry(evt *EntryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sig := evt.Signal
	_, err := r.db.Exec(`INSERT INTO entries
		(timestamp, order_id, symbol, side, price, trigger_time, trigger_level, partner_time,
		 volume, sl_pips, tp_pips, label, executor, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.at(sig.At), evt.Order.ID, evt.Order.Symbol, string(sig.Side), sig.Price,
		sig.Combo.Trigger.Time.Unix(), sig.Combo.TriggerLevel(), sig.Combo.Partner.Time.Unix(),
		evt.Order.Volume, evt.Order.StopLossPips, evt.Order.TakeProfitPips, evt.Order.Label,
		evt.Executor, evt.Err,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

func (r *SQLiteRecorder) at(t time.Time) int64 {
	if t.IsZero() {
		return r.now().Unix()
	}
	return t.Unix()
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
