package fslibrary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaCacheRoundTrip(t *testing.T) {
	c, err := openMetaCache(t.TempDir())
	require.NoError(t, err)
	defer c.close()

	_, _, ok := c.get("a.jpg", "fp1")
	assert.False(t, ok)

	c.put("a.jpg", "fp1", 4032, 3024)

	w, h, ok := c.get("a.jpg", "fp1")
	require.True(t, ok)
	assert.Equal(t, 4032, w)
	assert.Equal(t, 3024, h)

	// A stale fingerprint misses even though the id is cached.
	_, _, ok = c.get("a.jpg", "fp2")
	assert.False(t, ok)
}

func TestMetaCacheInMemory(t *testing.T) {
	c, err := openMetaCache("")
	require.NoError(t, err)
	defer c.close()

	c.put("b.jpg", "fp", 100, 50)
	w, h, ok := c.get("b.jpg", "fp")
	require.True(t, ok)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestMetaCachePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	c, err := openMetaCache(dir)
	require.NoError(t, err)
	c.put("c.jpg", "fp", 640, 480)
	require.NoError(t, c.close())

	c, err = openMetaCache(dir)
	require.NoError(t, err)
	defer c.close()

	w, h, ok := c.get("c.jpg", "fp")
	require.True(t, ok)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}
