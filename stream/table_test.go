package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableInsertGetDel(t *testing.T) {
	var tbl Table
	s := New(1, 65535)
	tbl.Insert(s)

	got := tbl.Get(1)
	require.NotNil(t, got)
	assert.Equal(t, uint32(1), got.ID())

	assert.Nil(t, tbl.Get(99))

	del := tbl.Del(1)
	require.NotNil(t, del)
	assert.Nil(t, tbl.Get(1))
}

func TestTableLenCountsOnlyActive(t *testing.T) {
	var tbl Table
	tbl.Insert(New(1, 65535))
	s2 := New(3, 65535)
	tbl.Insert(s2)
	s2.MarkReset(0)

	assert.Equal(t, 1, tbl.Len())
}

func TestRecentlyResetRingEvicts(t *testing.T) {
	var tbl Table
	for i := uint32(1); i <= 21; i += 2 {
		tbl.MarkRecentlyReset(i)
	}
	// Ring capacity is 7; only the last 7 of the 11 marked IDs survive.
	assert.False(t, tbl.WasRecentlyReset(1))
	assert.True(t, tbl.WasRecentlyReset(21))
}

func TestManyStreamsAcrossBuckets(t *testing.T) {
	var tbl Table
	for i := uint32(1); i < 500; i += 2 {
		tbl.Insert(New(i, 65535))
	}
	assert.Equal(t, 250, tbl.Len())
	assert.NotNil(t, tbl.Get(499))
}
