package categorization

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *MerchantIndex {
	t.Helper()

	index, err := NewMerchantIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func TestMerchantIndex_AddAndLookup(t *testing.T) {
	index := newTestIndex(t)

	require.NoError(t, index.Add("Coffee Shop Lisbon", "Dining"))
	require.NoError(t, index.Add("Galp Posto Matosinhos", "Transport"))

	count, err := index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	t.Run("finds nearby description", func(t *testing.T) {
		category, found, err := index.Lookup("Coffee Shop Porto")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Dining", category)
	})

	t.Run("unrelated description misses", func(t *testing.T) {
		_, found, err := index.Lookup("Qwerty Zzz Unknown")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestMerchantIndex_ReAddReplacesCategory(t *testing.T) {
	index := newTestIndex(t)

	require.NoError(t, index.Add("Galp Posto Matosinhos", "Transport"))
	require.NoError(t, index.Add("galp posto matosinhos", "Business"))

	count, err := index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	category, found, err := index.Lookup("Galp Posto")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Business", category)
}

func TestMerchantIndex_IgnoresBlankEntries(t *testing.T) {
	index := newTestIndex(t)

	require.NoError(t, index.Add("   ", "Dining"))
	require.NoError(t, index.Add("Coffee Shop", ""))

	count, err := index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestMerchantIndex_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merchants.bleve")

	index, err := NewMerchantIndex(path)
	require.NoError(t, err)
	require.NoError(t, index.Add("Farmacia Central", "Health"))
	require.NoError(t, index.Close())

	reopened, err := NewMerchantIndex(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	category, found, err := reopened.Lookup("Farmacia Central")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Health", category)
}
