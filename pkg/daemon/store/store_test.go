package store_test

import (
	"sync"
	"testing"
	"time"

	"github.com/lumenapp/lumen/pkg/daemon/store"
	"github.com/lumenapp/lumen/pkg/library"
)

func imageEntry(id string, year int, scoreVal int64) store.Entry {
	return store.Entry{
		AssetID:      id,
		MediaType:    library.MediaImage,
		PixelWidth:   3000,
		PixelHeight:  2000,
		CreationYear: year,
		Score:        scoreVal,
	}
}

func TestStoreNotReadyUntilFirstReplace(t *testing.T) {
	s := store.Open()
	defer s.Close()

	if s.Ready() {
		t.Error("store should not be ready before first build")
	}

	s.ReplaceAll(map[string]store.Entry{
		"a": imageEntry("a", 2021, 10),
	})

	if !s.Ready() {
		t.Error("store should be ready after ReplaceAll")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", s.Len())
	}
}

func TestStoreApply(t *testing.T) {
	s := store.Open()
	defer s.Close()

	s.ReplaceAll(map[string]store.Entry{
		"a": imageEntry("a", 2021, 10),
		"b": imageEntry("b", 2021, 20),
	})

	applied := s.Apply(store.Mutation{
		Upserts: []store.Entry{imageEntry("c", 2022, 30), imageEntry("a", 2021, 99)},
		Deletes: []string{"b", "missing"},
	})

	// Two upserts plus one real delete; the unknown id does not count.
	if applied != 3 {
		t.Errorf("expected 3 applied, got %d", applied)
	}

	snap := s.Snapshot()
	if len(snap.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(snap.Entries))
	}
	if snap.Entries["a"].Score != 99 {
		t.Errorf("upsert did not replace entry: score %d", snap.Entries["a"].Score)
	}
	if _, ok := snap.Entries["b"]; ok {
		t.Error("deleted entry still present")
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := store.Open()
	defer s.Close()

	s.ReplaceAll(map[string]store.Entry{"a": imageEntry("a", 2021, 10)})
	snap := s.Snapshot()

	s.Apply(store.Mutation{Deletes: []string{"a"}})

	if _, ok := snap.Entries["a"]; !ok {
		t.Error("snapshot mutated by later store writes")
	}

	// Writing into the snapshot must not leak back either.
	snap.Entries["x"] = imageEntry("x", 2020, 1)
	if s.Len() != 0 {
		t.Errorf("store affected by snapshot writes: %d entries", s.Len())
	}
}

func TestStoreKeysAreDistinct(t *testing.T) {
	s := store.Open()
	defer s.Close()

	// Upserting the same id repeatedly keeps exactly one entry.
	for i := 0; i < 5; i++ {
		s.Apply(store.Mutation{Upserts: []store.Entry{imageEntry("a", 2021, int64(i))}})
	}

	snap := s.Snapshot()
	if len(snap.Entries) != 1 {
		t.Errorf("expected 1 entry for repeated id, got %d", len(snap.Entries))
	}
}

func TestStoreNormalizesKeyMismatch(t *testing.T) {
	s := store.Open()
	defer s.Close()

	e := imageEntry("other", 2021, 1)
	s.ReplaceAll(map[string]store.Entry{"a": e})

	snap := s.Snapshot()
	if snap.Entries["a"].AssetID != "a" {
		t.Errorf("expected AssetID normalized to map key, got %q", snap.Entries["a"].AssetID)
	}
}

func TestStoreConcurrentWriters(t *testing.T) {
	s := store.Open()
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := string(rune('a' + n))
				s.Apply(store.Mutation{Upserts: []store.Entry{imageEntry(id, 2021, int64(j))}})
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 8 {
		t.Errorf("expected 8 entries, got %d", s.Len())
	}
}

func TestStoreCloseDropsLateOps(t *testing.T) {
	s := store.Open()
	s.ReplaceAll(map[string]store.Entry{"a": imageEntry("a", 2021, 10)})
	s.Close()

	// Operations after Close are no-ops, not hangs.
	done := make(chan struct{})
	go func() {
		s.Apply(store.Mutation{Deletes: []string{"a"}})
		_ = s.Snapshot()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("operation on closed store blocked")
	}
}

func TestEntryFromAsset(t *testing.T) {
	created := time.Date(2019, 3, 14, 9, 0, 0, 0, time.UTC)
	a := library.Asset{
		ID:        "asset-1",
		Type:      library.MediaImage,
		CreatedAt: created,
		Width:     4032,
		Height:    3024,
		Adjusted:  true,
		Location:  &library.Coordinate{Latitude: 41.9, Longitude: 12.5},
	}

	e := store.FromAsset(a)

	if e.AssetID != "asset-1" {
		t.Errorf("unexpected asset id %q", e.AssetID)
	}
	if e.CreationYear != 2019 {
		t.Errorf("expected creation year 2019, got %d", e.CreationYear)
	}
	if !e.HasLocation || e.Latitude == nil || e.Longitude == nil {
		t.Fatal("location not carried over")
	}
	if *e.Latitude != 41.9 || *e.Longitude != 12.5 {
		t.Errorf("wrong coordinates: %v,%v", *e.Latitude, *e.Longitude)
	}
	// +150 adjustments, +20 aspect, +10 location.
	if e.Score != 180 {
		t.Errorf("expected cached score 180, got %d", e.Score)
	}
	if !e.Qualifies() {
		t.Error("visible image entry should qualify")
	}

	hidden := a
	hidden.Hidden = true
	if store.FromAsset(hidden).Qualifies() {
		t.Error("hidden entry should not qualify")
	}
}
