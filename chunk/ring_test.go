package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Ring_AppendAcquireRelease_cleanupFiresOnce(t *testing.T) {
	assert := assert.New(t)

	r := NewRing()
	calls := 0
	c, err := r.Append([]byte("hello"), func(cookie any, data []byte) {
		calls++
	}, "cookie", false)
	assert.NoError(err)
	assert.False(r.Empty())

	r.Acquire(c)
	r.Acquire(c)
	r.Release(c)
	assert.Equal(0, calls, "cleanup must not fire while a reference remains")

	r.Release(c)
	assert.Equal(1, calls, "cleanup must fire exactly once when refs reach zero")
}

func Test_Ring_AppendAcquireRelease_cleanupFiresOnce_recovers(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on over-release")
		}
	}()

	r := NewRing()
	c, _ := r.Append([]byte("x"), nil, nil, false)
	r.Acquire(c)
	r.Release(c)
	r.Release(c)
}

func Test_Ring_Append_toEmptyRing(t *testing.T) {
	assert := assert.New(t)

	r := NewRing()
	assert.True(r.Empty())

	c1, err := r.Append([]byte("a"), nil, nil, false)
	assert.NoError(err)
	assert.Same(c1, r.Head())

	c2, err := r.Append([]byte("b"), nil, nil, true)
	assert.NoError(err)
	assert.Same(c2, c1.Next())
	assert.True(c2.IsLast())
}

func Test_Ring_Release_unlinksAndFixesNeighbours(t *testing.T) {
	assert := assert.New(t)

	r := NewRing()
	c1, _ := r.Append([]byte("a"), nil, nil, false)
	c2, _ := r.Append([]byte("b"), nil, nil, false)
	c3, _ := r.Append([]byte("c"), nil, nil, false)

	r.Acquire(c1)
	r.Acquire(c2)
	r.Acquire(c3)

	r.Release(c2)

	assert.Same(c3, c1.Next())
	assert.Same(c1, r.Head())
}

func Test_Ring_Append_toFullyReleasedRing(t *testing.T) {
	assert := assert.New(t)

	r := NewRing()
	c1, _ := r.Append([]byte("a"), nil, nil, false)
	r.Acquire(c1)
	r.Release(c1)
	assert.True(r.Empty())

	c2, err := r.Append([]byte("b"), nil, nil, false)
	assert.NoError(err)
	assert.Same(c2, r.Head())
}
