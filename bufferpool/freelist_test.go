package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameFreeListPopOrderAndIndex(t *testing.T) {
	fl := newFrameFreeList(3)
	require.Equal(t, 3, fl.len())

	// constructed free in ascending frame id order
	first, ok := fl.pop()
	require.True(t, ok)
	require.Equal(t, 0, first)

	second, ok := fl.pop()
	require.True(t, ok)
	require.Equal(t, 1, second)

	// popping removes the entry from the index too, not just the list
	_, indexed := fl.index.Find(first)
	require.False(t, indexed)

	fl.push(first)
	require.Equal(t, 2, fl.len())
	_, indexed = fl.index.Find(first)
	require.True(t, indexed)
}

func TestFrameFreeListExhaustion(t *testing.T) {
	fl := newFrameFreeList(1)

	_, ok := fl.pop()
	require.True(t, ok)

	_, ok = fl.pop()
	require.False(t, ok)
	require.Equal(t, 0, fl.len())
}
