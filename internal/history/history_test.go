package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvandessel/neurofig/internal/figures"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEntry(figure string) Entry {
	return Entry{
		Figure:   figure,
		Group:    "timings",
		Format:   "eps",
		Path:     "results/" + figure + ".eps",
		Bytes:    1024,
		Checksum: "abc123",
		Params:   map[string]float64{"bins": 100},
		Options:  map[string]string{"density": "true"},
		Summary:  []figures.Stat{{Name: "Data mean", Value: "1500"}},
		Duration: 250 * time.Millisecond,
	}
}

func TestOpen_CreatesDatabase(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	want := filepath.Join(root, ".neurofig", "history.db")
	if s.Path() != want {
		t.Errorf("Path() = %q, want %q", s.Path(), want)
	}
}

func TestOpen_Reopen(t *testing.T) {
	root := t.TempDir()
	s, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Record(context.Background(), sampleEntry("firing-times")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	s.Close()

	s, err = Open(root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d entries after reopen, want 1", len(got))
	}
}

func TestRecordGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := sampleEntry("firing-times")
	e.Created = created

	id, err := s.Record(ctx, e)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Figure != e.Figure || got.Group != e.Group || got.Path != e.Path || got.Bytes != e.Bytes {
		t.Errorf("got %+v, want %+v", got, e)
	}
	if got.Params["bins"] != 100 || got.Options["density"] != "true" {
		t.Errorf("params/options = %v / %v", got.Params, got.Options)
	}
	if len(got.Summary) != 1 || got.Summary[0].Name != "Data mean" {
		t.Errorf("summary = %v", got.Summary)
	}
	if got.Duration != 250*time.Millisecond {
		t.Errorf("duration = %v, want 250ms", got.Duration)
	}
	if !got.Created.Equal(created) {
		t.Errorf("created = %v, want %v", got.Created, created)
	}
}

func TestRecord_EmptyMaps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	e := Entry{Figure: "coincidence", Format: "png", Path: "results/c.png", Checksum: "x"}
	id, err := s.Record(ctx, e)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Params != nil || got.Options != nil || got.Summary != nil || got.Group != "" {
		t.Errorf("expected empty optional fields, got %+v", got)
	}
	if got.Created.IsZero() {
		t.Error("Created was not stamped")
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"sigmoid", "firing-times", "sigmoid", "epsc"} {
		if _, err := s.Record(ctx, sampleEntry(name)); err != nil {
			t.Fatalf("Record %s: %v", name, err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"epsc", "sigmoid", "firing-times", "sigmoid"}},
		{"limit", Filter{Limit: 2}, []string{"epsc", "sigmoid"}},
		{"by figure", Filter{Figure: "sigmoid"}, []string{"sigmoid", "sigmoid"}},
		{"unknown figure", Filter{Figure: "nope"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].Figure != tt.want[i] {
					t.Errorf("entry %d = %q, want %q", i, got[i].Figure, tt.want[i])
				}
			}
			for i := 1; i < len(got); i++ {
				if got[i].ID >= got[i-1].ID {
					t.Errorf("entries not newest first: %d after %d", got[i].ID, got[i-1].ID)
				}
			}
		})
	}
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	var last int64
	for i := 0; i < 5; i++ {
		id, err := s.Record(ctx, sampleEntry("sigmoid"))
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		last = id
	}

	removed, err := s.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	got, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != last {
		t.Errorf("kept %+v, want the 2 newest", got)
	}

	if _, err := s.Prune(ctx, -1); err == nil {
		t.Error("expected error for negative keep")
	}
	if removed, _ := s.Prune(ctx, 10); removed != 0 {
		t.Errorf("prune above size removed %d", removed)
	}
}

func TestClose_Twice(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestInitSchema_RejectsNewer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}
	if err := InitSchema(ctx, s.db); err == nil {
		t.Error("expected error for a newer schema")
	}
}
