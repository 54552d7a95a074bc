// Package chunk implements the ref-counted, ordered sequence of input byte
// chunks that feeds the lexer. A Ring owns the input byte sequence; Chunks
// are released exactly once, when the last reference taken with Acquire is
// released. The lexer's anchor and read cursor take such references;
// Tokens take none.
package chunk

import "github.com/dekarrin/sturgeon/icerr"

// Cleanup is invoked exactly once, when the last reference to a Chunk is
// released, right after the Chunk is detached from the ring. It is never
// invoked while an operation on the owning parser is in progress on that
// chunk.
type Cleanup func(cookie any, data []byte)

// Chunk is a contiguous byte range supplied by the input provider. Chunks
// form a doubly-linked segment of a Ring and are reference counted; nothing
// outside this package mutates a Chunk's links or refcount directly.
type Chunk struct {
	data    []byte
	cleanup Cleanup
	cookie  any
	isLast  bool

	prev *Chunk
	next *Chunk

	refs int
	ring *Ring
}

// Data returns the chunk's byte range.
func (c *Chunk) Data() []byte { return c.data }

// IsLast reports whether this chunk was appended with is_last=true.
func (c *Chunk) IsLast() bool { return c.isLast }

// Next returns the chunk immediately following this one in the ring, or nil
// if this is the last live chunk.
func (c *Chunk) Next() *Chunk { return c.next }

// Ring is an ordered, ref-counted sequence of Chunks.
type Ring struct {
	head *Chunk
	tail *Chunk
}

// NewRing returns an empty Ring.
func NewRing() *Ring {
	return &Ring{}
}

// Append adds a new chunk to the end of the ring and returns it with an
// initial reference count of zero; callers that want to hold it must
// Acquire it. Append tolerates appending to an empty or fully-released
// ring. On failure (none of the current failure modes allocate in Go, but
// the signature is kept so callers mirror the source's error-returning
// contract) the ring is left unchanged.
func (r *Ring) Append(data []byte, cleanup Cleanup, cookie any, isLast bool) (*Chunk, error) {
	c := &Chunk{
		data:    data,
		cleanup: cleanup,
		cookie:  cookie,
		isLast:  isLast,
		ring:    r,
	}

	if r.tail == nil {
		r.head = c
		r.tail = c
	} else {
		c.prev = r.tail
		r.tail.next = c
		r.tail = c
	}

	return c, nil
}

// Acquire increments c's reference count.
func (r *Ring) Acquire(c *Chunk) {
	if c == nil {
		return
	}
	c.refs++
}

// Release decrements c's reference count. When it reaches zero, c is
// unlinked from the ring (fixing neighbour links) and its cleanup callback
// is invoked exactly once.
func (r *Ring) Release(c *Chunk) {
	if c == nil {
		return
	}
	c.refs--
	if c.refs > 0 {
		return
	}
	if c.refs < 0 {
		panic("chunk: release of chunk with no outstanding references")
	}

	r.unlink(c)
	if c.cleanup != nil {
		c.cleanup(c.cookie, c.data)
	}
}

func (r *Ring) unlink(c *Chunk) {
	if c.prev != nil {
		c.prev.next = c.next
	} else if r.head == c {
		r.head = c.next
	}

	if c.next != nil {
		c.next.prev = c.prev
	} else if r.tail == c {
		r.tail = c.prev
	}

	c.prev = nil
	c.next = nil
}

// Head returns the first live chunk in the ring, or nil if empty.
func (r *Ring) Head() *Chunk { return r.head }

// Empty reports whether the ring currently holds no chunks.
func (r *Ring) Empty() bool { return r.head == nil }

// ErrAppendFailed is reserved for an allocation-failure path that Go's
// runtime makes effectively unreachable; kept so callers have a stable
// sentinel to check regardless.
var ErrAppendFailed = icerr.General("chunk ring: append failed")

// ReleaseAll forcibly drops every outstanding reference on every chunk still
// live in the ring, firing each cleanup callback exactly once, regardless of
// how many references a chunk had outstanding. Used on parser cancellation,
// where the normal token/cursor release sequence will never run to
// completion on its own.
func (r *Ring) ReleaseAll() {
	for c := r.head; c != nil; {
		next := c.next
		c.refs = 1
		r.Release(c)
		c = next
	}
}
