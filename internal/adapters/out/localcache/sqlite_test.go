package localcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRoundtrip(t *testing.T) {
	c := openTemp(t)

	require.NoError(t, c.Set("cart", []byte(`[{"productId":"p1"}]`)))

	got, err := c.Get("cart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"p1"}]`, string(got))
}

func TestGetMissingKeyIsNil(t *testing.T) {
	c := openTemp(t)

	got, err := c.Get("wishlist")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSetReplacesAndRemoveIsIdempotent(t *testing.T) {
	c := openTemp(t)

	require.NoError(t, c.Set("cart", []byte(`[1]`)))
	require.NoError(t, c.Set("cart", []byte(`[2]`)))

	got, err := c.Get("cart")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[2]`), got)

	require.NoError(t, c.Remove("cart"))
	require.NoError(t, c.Remove("cart"))

	got, err = c.Get("cart")
	require.NoError(t, err)
	assert.Nil(t, got)
}
