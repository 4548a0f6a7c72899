package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenapp/lumen/pkg/daemon/query"
	"github.com/lumenapp/lumen/pkg/daemon/store"
	"github.com/lumenapp/lumen/pkg/library"
	"github.com/lumenapp/lumen/pkg/library/librarytest"
)

func asset(id string, year int, w, h int) library.Asset {
	return library.Asset{
		ID:          id,
		Type:        library.MediaImage,
		CreatedAt:   time.Date(year, 7, 1, 0, 0, 0, 0, time.UTC),
		Width:       w,
		Height:      h,
		Fingerprint: id + "-v1",
	}
}

// seed loads the store and library with the same assets.
func seed(t *testing.T, lib *librarytest.Fake, s *store.Store, assets ...library.Asset) {
	t.Helper()
	entries := make(map[string]store.Entry, len(assets))
	for _, a := range assets {
		lib.Put(a)
		entries[a.ID] = store.FromAsset(a)
	}
	s.ReplaceAll(entries)
}

func TestTopForYear(t *testing.T) {
	lib := librarytest.New()
	s := store.Open()
	defer s.Close()

	good := asset("good", 2021, 4000, 3000)
	good.Adjusted = true // 170
	plain := asset("plain", 2021, 4000, 3000) // 20
	lowres := asset("lowres", 2021, 500, 500) // -80
	otherYear := asset("other", 2019, 4000, 3000)
	hidden := asset("hidden", 2021, 4000, 3000)
	hidden.Hidden = true

	seed(t, lib, s, good, plain, lowres, otherYear, hidden)

	items := query.New(lib, s).TopForYear(context.Background(), 2021, 10)

	require.Len(t, items, 3)
	assert.Equal(t, "good", items[0].ID)
	assert.Equal(t, "plain", items[1].ID)
	assert.Equal(t, "lowres", items[2].ID)

	// Sorted by non-increasing score.
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].Score, items[i].Score)
	}
}

func TestTopForYearLimit(t *testing.T) {
	lib := librarytest.New()
	s := store.Open()
	defer s.Close()

	var assets []library.Asset
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		assets = append(assets, asset(id, 2021, 4000, 3000))
	}
	seed(t, lib, s, assets...)

	e := query.New(lib, s)
	assert.Len(t, e.TopForYear(context.Background(), 2021, 2), 2)

	// limit <= 0 falls back to the default of 10.
	assert.Len(t, e.TopForYear(context.Background(), 2021, 0), 5)
}

func TestTopForYearDropsUnresolvable(t *testing.T) {
	lib := librarytest.New()
	s := store.Open()
	defer s.Close()

	a := asset("a", 2021, 4000, 3000)
	b := asset("b", 2021, 4000, 3000)
	seed(t, lib, s, a, b)

	// The asset vanished from the library but the index is stale.
	lib.Remove("a")

	items := query.New(lib, s).TopForYear(context.Background(), 2021, 10)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
}

func TestTopForYearStaleEntryNotBackfilled(t *testing.T) {
	lib := librarytest.New()
	s := store.Open()
	defer s.Close()

	top := asset("top", 2021, 4000, 3000)
	top.Adjusted = true // 170
	low := asset("low", 2021, 4000, 3000) // 20
	seed(t, lib, s, top, low)

	// The top-ranked asset vanished from the library. Truncation
	// happens before resolution, so the lower-ranked entry must not
	// take its slot.
	lib.Remove("top")

	items := query.New(lib, s).TopForYear(context.Background(), 2021, 1)
	assert.Empty(t, items)
}

func TestTopForYearEmptyWhenNotReady(t *testing.T) {
	lib := librarytest.New()
	s := store.Open()
	defer s.Close()

	items := query.New(lib, s).TopForYear(context.Background(), 2021, 10)
	assert.Empty(t, items)
}

func TestTopForPlace(t *testing.T) {
	lib := librarytest.New()
	s := store.Open()
	defer s.Close()

	lisbon1 := asset("l1", 2021, 4000, 3000)
	lisbon1.DepthEffect = true // 320
	lisbon2 := asset("l2", 2022, 4000, 3000) // 20
	elsewhere := asset("e1", 2021, 4000, 3000)
	seed(t, lib, s, lisbon1, lisbon2, elsewhere)
	lib.SetGroup(library.GroupPlace, "Lisbon", "l1", "l2")

	e := query.New(lib, s)

	items := e.TopForPlace(context.Background(), "Lisbon", 10)
	require.Len(t, items, 2)
	assert.Equal(t, "l1", items[0].ID)
	assert.Equal(t, "l2", items[1].ID)

	// Unknown grouping yields empty, not an error.
	assert.Empty(t, e.TopForPlace(context.Background(), "Atlantis", 10))
}

func TestTopForPerson(t *testing.T) {
	lib := librarytest.New()
	s := store.Open()
	defer s.Close()

	a := asset("a", 2021, 4000, 3000)
	b := asset("b", 2021, 4000, 3000)
	b.Adjusted = true
	seed(t, lib, s, a, b)
	lib.SetGroup(library.GroupPerson, "Alice", "a", "b", "not-indexed")

	items := query.New(lib, s).TopForPerson(context.Background(), "Alice", 10)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
}

func TestYears(t *testing.T) {
	lib := librarytest.New()
	s := store.Open()
	defer s.Close()

	seed(t, lib, s,
		asset("a", 2019, 4000, 3000),
		asset("b", 2021, 4000, 3000),
		asset("c", 2021, 4000, 3000),
		asset("d", 2023, 4000, 3000),
	)

	years := query.New(lib, s).Years(context.Background())
	assert.Equal(t, []int{2023, 2021, 2019}, years)
}

func TestYearsExcludesHidden(t *testing.T) {
	lib := librarytest.New()
	s := store.Open()
	defer s.Close()

	hidden := asset("h", 1999, 4000, 3000)
	hidden.Hidden = true
	seed(t, lib, s, hidden, asset("a", 2021, 4000, 3000))

	years := query.New(lib, s).Years(context.Background())
	assert.Equal(t, []int{2021}, years)
}

func TestPlacesAndPeople(t *testing.T) {
	lib := librarytest.New()
	s := store.Open()
	defer s.Close()

	lib.SetGroup(library.GroupPlace, "Lisbon", "a")
	lib.SetGroup(library.GroupPlace, "Berlin", "b")
	lib.SetGroup(library.GroupPlace, "Empty") // no members
	lib.SetGroup(library.GroupPerson, "Alice", "a")

	e := query.New(lib, s)
	assert.Equal(t, []string{"Berlin", "Lisbon"}, e.Places(context.Background()))
	assert.Equal(t, []string{"Alice"}, e.People(context.Background()))
}
