package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonotonicIDsWithinOneMillisecond(t *testing.T) {
	now := time.UnixMilli(1_750_000_000_000)
	ids := NewMonotonicIDs(func() time.Time { return now })

	first := ids.Next()
	second := ids.Next()
	assert.Equal(t, now.UnixMilli(), first)
	assert.Equal(t, first+1, second)

	now = now.Add(time.Second)
	assert.Equal(t, now.UnixMilli(), ids.Next())
}

func TestMonotonicIDsSkipObserved(t *testing.T) {
	ids := NewMonotonicIDs(func() time.Time { return time.UnixMilli(10) })
	ids.Observe(500)
	ids.Observe(20)
	assert.EqualValues(t, 501, ids.Next())
}

func TestSequenceIDs(t *testing.T) {
	var ids SequenceIDs
	assert.EqualValues(t, 1, ids.Next())
	ids.Observe(7)
	assert.EqualValues(t, 8, ids.Next())
}
