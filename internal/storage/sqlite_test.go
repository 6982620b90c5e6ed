package storage

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) != len(v2) || len(v1) != 2 {
		t.Errorf("migration count: %d -> %d, want 2", len(v1), len(v2))
	}
}

func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)
	for _, idx := range []string{"idx_fills_created", "idx_fills_outcome"} {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count); err != nil {
			t.Fatalf("querying index %s: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %s not found", idx)
		}
	}
}

func TestRecordAndGetFill(t *testing.T) {
	s := openTestStore(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 500, time.UTC)
	f, err := s.RecordFill(Fill{
		CreatedAt:  at,
		Source:     "cli",
		AppName:    "Safari",
		FieldLabel: "Email",
		FieldType:  "Email Address",
		Strategy:   "direct",
		Outcome:    OutcomeReturned,
		Chars:      7,
	})
	if err != nil {
		t.Fatalf("RecordFill: %v", err)
	}
	if f.ID == "" {
		t.Fatal("RecordFill did not assign an ID")
	}

	got, err := s.GetFill(f.ID)
	if err != nil {
		t.Fatalf("GetFill: %v", err)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, at)
	}
	if got.ProfileID != "default" || got.FieldType != "Email Address" || got.Chars != 7 || got.Outcome != OutcomeReturned {
		t.Errorf("unexpected fill: %+v", got)
	}

	if _, err := s.GetFill("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetFill(missing) err = %v, want ErrNotFound", err)
	}
}

func TestRecentFillsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := s.RecordFill(Fill{
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
			FieldLabel: string(rune('a' + i)),
			Outcome:    OutcomeFilled,
		}); err != nil {
			t.Fatal(err)
		}
	}
	fills, err := s.RecentFills(3)
	if err != nil {
		t.Fatalf("RecentFills: %v", err)
	}
	if len(fills) != 3 {
		t.Fatalf("len = %d, want 3", len(fills))
	}
	for i, want := range []string{"e", "d", "c"} {
		if fills[i].FieldLabel != want {
			t.Errorf("fills[%d] = %q, want %q", i, fills[i].FieldLabel, want)
		}
	}
}

func TestPurgeBeforeAndStats(t *testing.T) {
	s := openTestStore(t)
	old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, f := range []Fill{
		{CreatedAt: old, Outcome: OutcomeFailed},
		{CreatedAt: old.Add(time.Second), Outcome: OutcomeFilled},
		{CreatedAt: recent, Outcome: OutcomeFilled},
	} {
		if _, err := s.RecordFill(f); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.FillStats()
	if err != nil {
		t.Fatalf("FillStats: %v", err)
	}
	if stats[OutcomeFilled] != 2 || stats[OutcomeFailed] != 1 {
		t.Errorf("stats = %v", stats)
	}

	n, err := s.PurgeBefore(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("PurgeBefore: %v", err)
	}
	if n != 2 {
		t.Errorf("purged %d, want 2", n)
	}
	left, _ := s.RecentFills(10)
	if len(left) != 1 || !left[0].CreatedAt.Equal(recent) {
		t.Errorf("remaining = %+v", left)
	}
}
