package fold

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarah-happy/tote/pkg/blobstore"
	"github.com/sarah-happy/tote/pkg/item"
)

func newStore(t *testing.T) *blobstore.Store {
	t.Helper()
	s, err := blobstore.Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func someItems(n int) []item.Item {
	out := make([]item.Item, n)
	for i := 0; i < n; i++ {
		out[i] = item.Dir(fmt.Sprintf("d%04d", i), item.NewTime(time.Unix(0, 0)))
	}
	return out
}

func TestFoldSinglePageRoundTrip(t *testing.T) {
	store := newStore(t)
	items := someItems(5)

	folded, err := Fold(items, store, DefaultPageSize)
	require.NoError(t, err)
	require.Len(t, folded, 1)
	assert.Equal(t, item.TypeFold, folded[0].Type)
	assert.Equal(t, 5, folded[0].Count)
	assert.Equal(t, "d0000", folded[0].NameMin)
	assert.Equal(t, "d0004", folded[0].NameMax)

	unfolded, err := Unfold(folded, store)
	require.NoError(t, err)
	require.Len(t, unfolded, 5)
	for i, it := range unfolded {
		assert.Equal(t, fmt.Sprintf("d%04d", i), it.Name)
	}
}

func TestFoldSplitsAtPageSize(t *testing.T) {
	store := newStore(t)
	items := someItems(50)

	folded, err := Fold(items, store, 256)
	require.NoError(t, err)
	assert.Greater(t, len(folded), 1)

	total := 0
	for _, f := range folded {
		total += f.Count
	}
	assert.Equal(t, 50, total)

	unfolded, err := Unfold(folded, store)
	require.NoError(t, err)
	assert.Len(t, unfolded, 50)
	for i, it := range unfolded {
		assert.Equal(t, fmt.Sprintf("d%04d", i), it.Name)
	}
}

func TestFoldEmptyInput(t *testing.T) {
	store := newStore(t)
	folded, err := Fold(nil, store, DefaultPageSize)
	require.NoError(t, err)
	assert.Empty(t, folded)
}

func TestUnfoldPassesThroughNonFoldItems(t *testing.T) {
	store := newStore(t)
	items := someItems(2)
	unfolded, err := Unfold(items, store)
	require.NoError(t, err)
	assert.Len(t, unfolded, 2)
}

func TestUnfoldNestedFolds(t *testing.T) {
	store := newStore(t)
	items := someItems(10)

	inner, err := Fold(items[:5], store, DefaultPageSize)
	require.NoError(t, err)
	outerItems := append(inner, items[5:]...)

	unfolded, err := Unfold(outerItems, store)
	require.NoError(t, err)
	assert.Len(t, unfolded, 10)
}
