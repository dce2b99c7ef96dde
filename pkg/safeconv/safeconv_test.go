package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUint64ToInt64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(42), Uint64ToInt64(42))
	assert.Equal(t, int64(math.MaxInt64), Uint64ToInt64(math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64), Uint64ToInt64(math.MaxUint64))
}

func TestInt64ToUint64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(42), Int64ToUint64(42))
	assert.Equal(t, uint64(0), Int64ToUint64(-1))
	assert.Equal(t, uint64(math.MaxInt64), Int64ToUint64(math.MaxInt64))
}
