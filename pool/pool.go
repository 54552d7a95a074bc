// Package pool implements an object pack allocator: it hands out contiguous
// sub-ranges of "packs" sized for many small homogeneous objects (attributes,
// dependency slots, parse-tree nodes, stack frames), amortizing allocation
// and tracking pack-level reference counts so a pack can be recycled once
// every object handed out of it has been released.
//
// Go's allocator already batches small allocations well, so this does not
// attempt manual bump-pointer placement into a raw byte arena: each "object"
// is a normal Go value reachable through Handle, and what the Pool actually
// amortizes is the bookkeeping (refcounts, free-list reuse) rather than the
// memory layout. The pack/refcount contract is what callers (Stack, tree,
// attr) depend on.
package pool

// Handle identifies a single object handed out by a Pool: the pack it came
// from and its index within that pack.
type Handle struct {
	pack *pack
	idx  int
}

// Object was handed out before Alloc could not fail; IsZero is true only for
// the zero Handle value (never returned by Alloc).
func (h Handle) IsZero() bool { return h.pack == nil }

type pack struct {
	objs []any
	refs int
	// oversized packs (requests larger than the pool's packCap) are never
	// returned to the free-list regardless of cache cap.
	oversized bool
}

// Pool amortizes allocation of many same-"size"-class objects. objSize is
// advisory (Go values aren't manually sized) and is kept purely for parity
// with callers that configure pools by object size; packCap is the number of
// objects a normal pack holds before a fresh one is obtained, and cacheCap
// bounds how many empty packs the free-list retains for reuse.
type Pool struct {
	objSize  int
	packCap  int
	cacheCap int

	open  *pack // last-used pack; small sequential requests reuse it
	free  []*pack
}

// New returns a new Pool. objSize is advisory bookkeeping only (see Pool
// doc); packCap is the number of objects per normal pack; cacheCap is the
// maximum number of depleted packs kept on the free-list for reuse.
func New(objSize, packCap, cacheCap int) *Pool {
	if packCap <= 0 {
		packCap = 1
	}
	return &Pool{objSize: objSize, packCap: packCap, cacheCap: cacheCap}
}

// Alloc reserves n contiguous objects and returns handles to each, in
// order. Requests larger than the pack capacity bypass packing entirely
// (they get their own oversized pack that is freed, never cached, once
// fully unreffed).
func (p *Pool) Alloc(n int) []Handle {
	if n <= 0 {
		return nil
	}

	if n > p.packCap {
		pk := &pack{objs: make([]any, n), refs: n, oversized: true}
		return p.handlesFor(pk, 0, n)
	}

	if p.open == nil || len(p.open.objs)-p.open.refs < n {
		p.open = p.obtainPack()
	}

	start := p.open.refs
	handles := p.handlesFor(p.open, start, n)
	p.open.refs += n
	return handles
}

func (p *Pool) handlesFor(pk *pack, start, n int) []Handle {
	handles := make([]Handle, n)
	for i := 0; i < n; i++ {
		handles[i] = Handle{pack: pk, idx: start + i}
	}
	return handles
}

func (p *Pool) obtainPack() *pack {
	if len(p.free) > 0 {
		pk := p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		pk.refs = 0
		for i := range pk.objs {
			pk.objs[i] = nil
		}
		return pk
	}

	return &pack{objs: make([]any, p.packCap)}
}

// Set stores v at h's slot. Callers use this to place the actual object
// value after Alloc reserves the slot.
func (p *Pool) Set(h Handle, v any) {
	h.pack.objs[h.idx] = v
}

// Get retrieves the value stored at h.
func (p *Pool) Get(h Handle) any {
	return h.pack.objs[h.idx]
}

// Unref releases n references previously handed out from h's pack (n is
// usually 1; Stack releases whole ranges at once on teardown). When the
// pack's refcount reaches zero, it is returned to the free-list, unless it
// is oversized or the free-list is already at cacheCap, in which case it is
// simply dropped for the GC to reclaim.
func (p *Pool) Unref(h Handle, n int) {
	if h.pack == nil {
		return
	}
	pk := h.pack
	pk.refs -= n
	if pk.refs > 0 {
		return
	}
	if pk.refs < 0 {
		panic("pool: unref below zero")
	}

	if pk == p.open {
		p.open = nil
	}

	if pk.oversized || len(p.free) >= p.cacheCap {
		return
	}
	p.free = append(p.free, pk)
}
