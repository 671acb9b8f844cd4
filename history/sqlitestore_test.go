package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreRecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := HistoryRecord{
			Host:              "web01",
			CollectionID:      "coll-" + string(rune('a'+i)),
			CollectedAt:       base.Add(time.Duration(i) * time.Hour),
			ClusterCount:      2 + i,
			OverallConfidence: 0.5 + float64(i)*0.1,
			WarningCount:      i,
			SchemaVersion:     "1.0",
		}
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record #%d: %v", i, err)
		}
	}

	recent, err := store.Recent(ctx, "web01", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	if !recent[0].CollectedAt.After(recent[1].CollectedAt) {
		t.Errorf("expected recent records ordered newest first, got %+v", recent)
	}
}

func TestSQLiteStoreRecordIsIdempotentPerCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	rec := HistoryRecord{Host: "web01", CollectionID: "coll-a", CollectedAt: time.Now().UTC(), ClusterCount: 1, SchemaVersion: "1.0"}
	if err := store.Record(ctx, rec); err != nil {
		t.Fatalf("first Record: %v", err)
	}
	rec.ClusterCount = 5
	if err := store.Record(ctx, rec); err != nil {
		t.Fatalf("second Record: %v", err)
	}

	recent, err := store.Recent(ctx, "web01", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("len(recent) = %d, want 1 (re-recording the same collection must overwrite)", len(recent))
	}
	if recent[0].ClusterCount != 5 {
		t.Errorf("ClusterCount = %d, want 5", recent[0].ClusterCount)
	}
}

func TestSQLiteStoreRecentFiltersByHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	store.Record(ctx, HistoryRecord{Host: "web01", CollectionID: "a", CollectedAt: time.Now().UTC(), SchemaVersion: "1.0"})
	store.Record(ctx, HistoryRecord{Host: "web02", CollectionID: "b", CollectedAt: time.Now().UTC(), SchemaVersion: "1.0"})

	recent, err := store.Recent(ctx, "web02", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Host != "web02" {
		t.Fatalf("recent = %+v, want only web02's record", recent)
	}
}
