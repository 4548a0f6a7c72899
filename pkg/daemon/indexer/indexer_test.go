package indexer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenapp/lumen/pkg/daemon/indexer"
	"github.com/lumenapp/lumen/pkg/daemon/store"
	"github.com/lumenapp/lumen/pkg/library"
	"github.com/lumenapp/lumen/pkg/library/librarytest"
)

func asset(id string, year int) library.Asset {
	return library.Asset{
		ID:          id,
		Type:        library.MediaImage,
		CreatedAt:   time.Date(year, 7, 1, 0, 0, 0, 0, time.UTC),
		Width:       3000,
		Height:      2000,
		Fingerprint: id + "-v1",
	}
}

func TestBuildReplacesStore(t *testing.T) {
	lib := librarytest.New()
	lib.Put(asset("a", 2021))
	lib.Put(asset("b", 2022))

	s := store.Open()
	defer s.Close()

	// Seed a stale entry that the build must wipe.
	s.ReplaceAll(map[string]store.Entry{"stale": {AssetID: "stale", MediaType: library.MediaImage}})

	ix := indexer.New(lib, s)
	res, err := ix.Build(context.Background())
	require.NoError(t, err)
	require.False(t, res.Skipped)

	assert.Equal(t, 2, res.Entries)
	assert.Len(t, res.Assets, 2)

	snap := s.Snapshot()
	assert.Len(t, snap.Entries, 2)
	assert.NotContains(t, snap.Entries, "stale")
	assert.Equal(t, 2021, snap.Entries["a"].CreationYear)
	assert.True(t, s.Ready())
}

func TestBuildScoresEntries(t *testing.T) {
	lib := librarytest.New()
	a := asset("a", 2021)
	a.Width, a.Height = 500, 500
	lib.Put(a)

	s := store.Open()
	defer s.Close()

	_, err := indexer.New(lib, s).Build(context.Background())
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, int64(-80), snap.Entries["a"].Score)
}

func TestBuildFetchFailure(t *testing.T) {
	lib := librarytest.New()
	lib.SetImagesErr(errors.New("library unavailable"))

	s := store.Open()
	defer s.Close()

	_, err := indexer.New(lib, s).Build(context.Background())
	require.Error(t, err)
	assert.False(t, s.Ready(), "failed build must not mark the store ready")
}

func TestConcurrentBuildDropped(t *testing.T) {
	lib := &slowLibrary{Fake: librarytest.New(), delay: 50 * time.Millisecond}
	lib.Put(asset("a", 2021))

	s := store.Open()
	defer s.Close()
	ix := indexer.New(lib, s)

	var wg sync.WaitGroup
	results := make([]*indexer.Result, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := ix.Build(context.Background())
			require.NoError(t, err)
			results[n] = res
		}(i)
	}
	wg.Wait()

	skipped := 0
	for _, res := range results {
		if res.Skipped {
			skipped++
		}
	}
	assert.Equal(t, 1, skipped, "exactly one concurrent build should be dropped")
	assert.False(t, ix.Building())
}

// slowLibrary delays Images so two builds reliably overlap.
type slowLibrary struct {
	*librarytest.Fake
	delay time.Duration
}

func (s *slowLibrary) Images(ctx context.Context) ([]library.Asset, error) {
	time.Sleep(s.delay)
	return s.Fake.Images(ctx)
}
