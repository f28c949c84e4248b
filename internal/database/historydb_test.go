package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/golddust/internal/dispatcher"
	"github.com/nao1215/golddust/internal/model"
)

// setupTestDB opens a database in a temporary directory.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates nested directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "a", "b")
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("missing database without create", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Errorf("Open() error = %v, want ErrDatabaseNotFound", err)
		}
	})

	t.Run("reopen existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if _, err := db.InsertDecision(context.Background(), time.Now(), "a:1", model.NoBackend("none")); err != nil {
			t.Fatalf("InsertDecision() error = %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{EnableWAL: true})
		if err != nil {
			t.Fatalf("reopen error = %v", err)
		}
		defer db.Close()

		got, err := db.ListDecisions(context.Background(), 0)
		if err != nil {
			t.Fatalf("ListDecisions() error = %v", err)
		}
		if len(got) != 1 {
			t.Errorf("decisions after reopen = %d, want 1", len(got))
		}
	})
}

func TestDecisions(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	found := model.NewBackendChoice(model.BackendHealth{
		Name: "oxen-node-2", Kind: model.KindOxen, LatencyMS: 52.5, FailureRate: 0.01, Enabled: true,
	})
	if _, err := db.InsertDecision(ctx, at, "example.com:443", found); err != nil {
		t.Fatalf("InsertDecision() error = %v", err)
	}
	none := model.NoBackend("no healthy backend available (oxen and tor exhausted)")
	if _, err := db.InsertDecision(ctx, at.Add(time.Minute), "example.org:80", none); err != nil {
		t.Fatalf("InsertDecision() error = %v", err)
	}

	got, err := db.ListDecisions(ctx, 10)
	if err != nil {
		t.Fatalf("ListDecisions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListDecisions() returned %d rows, want 2", len(got))
	}

	newest, oldest := got[0], got[1]
	if newest.Target != "example.org:80" || newest.Choice.Found() {
		t.Errorf("newest = %+v, want no-backend for example.org:80", newest)
	}
	if newest.Choice.Message != none.Message {
		t.Errorf("Message = %q, want %q", newest.Choice.Message, none.Message)
	}

	if !oldest.Choice.Found() {
		t.Fatalf("oldest should carry a backend: %+v", oldest)
	}
	if oldest.Choice.Backend != found.Backend {
		t.Errorf("Backend = %+v, want %+v", oldest.Choice.Backend, found.Backend)
	}
	if oldest.Choice.Health != found.Health {
		t.Errorf("Health = %+v, want %+v", oldest.Choice.Health, found.Health)
	}
	if !oldest.Time.Equal(at) {
		t.Errorf("Time = %v, want %v", oldest.Time, at)
	}
}

func TestListDecisionsLimit(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	for range DefaultListLimit + 5 {
		if _, err := db.InsertDecision(ctx, time.Now(), "a:1", model.NoBackend("x")); err != nil {
			t.Fatalf("InsertDecision() error = %v", err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 3, want: 3},
		{limit: 0, want: DefaultListLimit},
		{limit: -1, want: DefaultListLimit},
		{limit: 100, want: DefaultListLimit + 5},
	}
	for _, tt := range tests {
		got, err := db.ListDecisions(ctx, tt.limit)
		if err != nil {
			t.Fatalf("ListDecisions(%d) error = %v", tt.limit, err)
		}
		if len(got) != tt.want {
			t.Errorf("ListDecisions(%d) returned %d rows, want %d", tt.limit, len(got), tt.want)
		}
	}
}

func TestRecordEvents(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []dispatcher.Event{
		{
			Time: at, Peer: "127.0.0.1:50000", Method: "CONNECT", Target: "example.com:443",
			Egress: model.EgressDirect, Outcome: dispatcher.OutcomeRelayed, Advisory: "oxen-node-1",
		},
		{
			Time: at.Add(time.Second), Peer: "127.0.0.1:50001", Method: "GET", Target: "/",
			Outcome: dispatcher.OutcomeMethodNotAllowed,
		},
		{
			Time: at.Add(2 * time.Second), Peer: "127.0.0.1:50002", Method: "CONNECT", Target: "down.example:443",
			Egress: model.EgressTor, Outcome: dispatcher.OutcomeUpstreamFailed, Err: errors.New("connection refused"),
		},
	}
	for _, ev := range events {
		if err := db.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := db.ListEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListEvents() returned %d rows, want 3", len(got))
	}

	failed, rejected, relayed := got[0], got[1], got[2]
	if failed.Outcome != dispatcher.OutcomeUpstreamFailed || failed.Egress != "tor" || failed.Error != "connection refused" {
		t.Errorf("failed event = %+v", failed)
	}
	if rejected.Egress != "" {
		t.Errorf("rejected event egress = %q, want empty", rejected.Egress)
	}
	if relayed.Egress != "direct" || relayed.Advisory != "oxen-node-1" || relayed.Error != "" {
		t.Errorf("relayed event = %+v", relayed)
	}
	if !relayed.Time.Equal(at) {
		t.Errorf("Time = %v, want %v", relayed.Time, at)
	}

	counts, err := db.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents() error = %v", err)
	}
	for _, outcome := range []dispatcher.Outcome{
		dispatcher.OutcomeRelayed, dispatcher.OutcomeMethodNotAllowed, dispatcher.OutcomeUpstreamFailed,
	} {
		if counts[outcome] != 1 {
			t.Errorf("counts[%s] = %d, want 1", outcome, counts[outcome])
		}
	}
}

func TestRecordConcurrent(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			ev := dispatcher.Event{Time: time.Now(), Peer: "127.0.0.1:1", Outcome: dispatcher.OutcomeRejected}
			if err := db.Record(ctx, ev); err != nil {
				t.Errorf("Record() error = %v", err)
			}
		})
	}
	wg.Wait()

	counts, err := db.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents() error = %v", err)
	}
	if counts[dispatcher.OutcomeRejected] != 20 {
		t.Errorf("rejected count = %d, want 20", counts[dispatcher.OutcomeRejected])
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{input: "2026-03-01T12:00:00.5Z", want: time.Date(2026, 3, 1, 12, 0, 0, 5e8, time.UTC)},
		{input: "2026-03-01T12:00:00Z", want: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{input: "2026-03-01 12:00:00", want: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{input: "garbage", want: time.Time{}},
	}
	for _, tt := range tests {
		if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
