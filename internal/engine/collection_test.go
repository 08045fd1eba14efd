package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testIndex uint32

func TestCollectionReusesLowestFreeIndex(t *testing.T) {
	c := NewCollection[testIndex, int]()
	for want := testIndex(1); want <= 4; want++ {
		idx, _ := c.Allocate()
		assert.Equal(t, want, idx)
	}

	require.True(t, c.Erase(3))
	require.True(t, c.Erase(2))
	assert.False(t, c.Erase(2))
	assert.False(t, c.Exists(2))
	assert.Equal(t, 2, c.Len())

	idx, _ := c.Allocate()
	assert.Equal(t, testIndex(2), idx)
	idx, _ = c.Allocate()
	assert.Equal(t, testIndex(3), idx)
	idx, _ = c.Allocate()
	assert.Equal(t, testIndex(5), idx)
}

func TestCollectionAllocateAt(t *testing.T) {
	c := NewCollection[testIndex, string]()

	_, err := c.AllocateAt(0)
	require.Error(t, err)

	v, err := c.AllocateAt(4)
	require.NoError(t, err)
	*v = "four"
	_, err = c.AllocateAt(4)
	require.Error(t, err)

	// Indices skipped by AllocateAt are handed out first.
	for want := testIndex(1); want <= 3; want++ {
		idx, _ := c.Allocate()
		assert.Equal(t, want, idx)
	}
	idx, _ := c.Allocate()
	assert.Equal(t, testIndex(5), idx)

	got, ok := c.Get(4)
	require.True(t, ok)
	assert.Equal(t, "four", *got)
}

func TestCollectionAllSkipsErased(t *testing.T) {
	c := NewCollection[testIndex, int]()
	for i := range 5 {
		_, v := c.Allocate()
		*v = i * 10
	}

	var seen []testIndex
	for idx := range c.All() {
		seen = append(seen, idx)
		if idx == 2 {
			c.Erase(4)
		}
	}
	assert.Equal(t, []testIndex{1, 2, 3, 5}, seen)
	assert.Equal(t, []testIndex{1, 2, 3, 5}, c.Indices())
}
