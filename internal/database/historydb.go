package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/golddust/internal/dispatcher"
	"github.com/nao1215/golddust/internal/model"
)

// FileName is the database file created inside the history directory.
const FileName = "golddust.db"

// DefaultListLimit caps list queries when the caller passes a non-positive limit.
const DefaultListLimit = 20

// HistoryDB stores route decisions and dispatcher events.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL switches the journal to write-ahead logging, letting
	// `golddust history` read while a dispatcher writes.
	EnableWAL bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite has a single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := hdb.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS route_decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		target TEXT NOT NULL,
		found INTEGER NOT NULL,
		backend TEXT,
		kind TEXT,
		latency_ms REAL,
		failure_rate REAL,
		message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_timestamp ON route_decisions(timestamp);

	CREATE TABLE IF NOT EXISTS dispatch_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		peer TEXT NOT NULL,
		method TEXT,
		target TEXT,
		egress TEXT,
		outcome TEXT NOT NULL,
		advisory TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON dispatch_events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_outcome ON dispatch_events(outcome);
	`
	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// Decision is a stored route decision.
type Decision struct {
	ID     int64
	Time   time.Time
	Target string
	Choice model.BackendChoice
}

// InsertDecision stores the answer given for target at time at.
func (h *HistoryDB) InsertDecision(ctx context.Context, at time.Time, target string, choice model.BackendChoice) (int64, error) {
	var (
		backend, kind    sql.NullString
		latency, failure sql.NullFloat64
	)
	if choice.Found() {
		backend = sql.NullString{String: choice.Backend.Name, Valid: true}
		text, err := choice.Backend.Kind.MarshalText()
		if err != nil {
			return 0, err
		}
		kind = sql.NullString{String: string(text), Valid: true}
		latency = sql.NullFloat64{Float64: choice.Health.LatencyMS, Valid: true}
		failure = sql.NullFloat64{Float64: choice.Health.FailureRate, Valid: true}
	}

	result, err := h.db.ExecContext(ctx, `
		INSERT INTO route_decisions (timestamp, target, found, backend, kind, latency_ms, failure_rate, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, formatTimestamp(at), target, choice.Found(), backend, kind, latency, failure, choice.Message)
	if err != nil {
		return 0, fmt.Errorf("failed to insert route decision: %w", err)
	}
	return result.LastInsertId()
}

// ListDecisions returns the newest decisions first.
func (h *HistoryDB) ListDecisions(ctx context.Context, limit int) ([]Decision, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, timestamp, target, found, backend, kind, latency_ms, failure_rate, message
		FROM route_decisions
		ORDER BY id DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query route decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var (
			d                Decision
			ts               string
			found            bool
			backend, kind    sql.NullString
			latency, failure sql.NullFloat64
			message          sql.NullString
		)
		if err := rows.Scan(&d.ID, &ts, &d.Target, &found, &backend, &kind, &latency, &failure, &message); err != nil {
			return nil, fmt.Errorf("failed to scan route decision: %w", err)
		}
		d.Time = parseTimestamp(ts)

		if found {
			k, err := model.ParseBackendKind(kind.String)
			if err != nil {
				return nil, fmt.Errorf("route decision %d: %w", d.ID, err)
			}
			d.Choice = model.NewBackendChoice(model.BackendHealth{
				Name:        backend.String,
				Kind:        k,
				LatencyMS:   latency.Float64,
				FailureRate: failure.Float64,
				Enabled:     true,
			})
		} else {
			d.Choice = model.NoBackend(message.String)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// ConnectionEvent is a stored dispatcher event.
type ConnectionEvent struct {
	ID       int64
	Time     time.Time
	Peer     string
	Method   string
	Target   string
	Egress   string // "" when the connection ended before the egress choice
	Outcome  dispatcher.Outcome
	Advisory string
	Error    string
}

// Record implements dispatcher.Recorder.
func (h *HistoryDB) Record(ctx context.Context, ev dispatcher.Event) error {
	var egress, errText sql.NullString
	if ev.EgressDecided() {
		egress = sql.NullString{String: ev.Egress.String(), Valid: true}
	}
	if ev.Err != nil {
		errText = sql.NullString{String: ev.Err.Error(), Valid: true}
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO dispatch_events (timestamp, peer, method, target, egress, outcome, advisory, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, formatTimestamp(ev.Time), ev.Peer, ev.Method, ev.Target, egress, string(ev.Outcome), ev.Advisory, errText)
	if err != nil {
		return fmt.Errorf("failed to insert dispatch event: %w", err)
	}
	return nil
}

// ListEvents returns the newest dispatcher events first.
func (h *HistoryDB) ListEvents(ctx context.Context, limit int) ([]ConnectionEvent, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, timestamp, peer, method, target, egress, outcome, advisory, error
		FROM dispatch_events
		ORDER BY id DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatch events: %w", err)
	}
	defer rows.Close()

	var events []ConnectionEvent
	for rows.Next() {
		var (
			ev                                      ConnectionEvent
			ts, outcome                             string
			method, target, egress, advisory, errTx sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.Peer, &method, &target, &egress, &outcome, &advisory, &errTx); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch event: %w", err)
		}
		ev.Time = parseTimestamp(ts)
		ev.Method, ev.Target, ev.Egress = method.String, target.String, egress.String
		ev.Outcome = dispatcher.Outcome(outcome)
		ev.Advisory, ev.Error = advisory.String, errTx.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountEvents returns how many dispatcher events ended with each outcome.
func (h *HistoryDB) CountEvents(ctx context.Context) (map[dispatcher.Outcome]int, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT outcome, COUNT(*) FROM dispatch_events GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count dispatch events: %w", err)
	}
	defer rows.Close()

	counts := make(map[dispatcher.Outcome]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[dispatcher.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats lists the layouts parseTimestamp accepts, most specific first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when s matches no known layout.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
