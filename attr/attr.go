// Package attr implements lazy, per-attribute evaluation over a parse tree:
// dependency resolution against sibling/child nodes, cycle detection, and
// destructor bookkeeping so a value that was actually computed is freed
// exactly once.
//
// Attributes do not store a back-pointer to their owning tree.Node. The one
// built-in that needs a node's data (the "$token" evaluator) gets it baked
// into a closure at creation time instead (see tokenEvaluator), per the source's own
// observation that the bidirectional node<->attribute link exists for that
// purpose alone and is worth dropping once the target language can close
// over values.
package attr

import (
	"github.com/dekarrin/sturgeon/internal/util"
	"github.com/dekarrin/sturgeon/lrtab"
	"github.com/dekarrin/sturgeon/pool"
	"github.com/dekarrin/sturgeon/tree"
)

// Phase tracks how far an attribute has progressed through dependency
// resolution and scheduling, independent of its evaluation Status.
type Phase uint8

const (
	PhaseAllocated Phase = 1 << iota
	PhaseResolved
	PhaseScheduled
	PhaseEvaluated
)

// tokenAttrName is the reserved attribute name that resolves to the owning
// terminal node's token whenever the attribute table gives it no evaluator
// of its own. Mirrors the source project's own "$text" convention (set on every node
// unconditionally, not sourced from any binding table).
const tokenAttrName = "$token"

// Attribute is one instance of an attribute class, bound to a single tree
// node's attribute slot.
type Attribute struct {
	status lrtab.Status
	phase  Phase
	isRef  bool

	class *lrtab.AttrClass
	eval  lrtab.Evaluator
	value any
	deps  []*Attribute

	handle pool.Handle
}

var _ lrtab.AttrHandle = (*Attribute)(nil)

// Value returns the attribute's value. Meaningful only once Status() == OK.
func (a *Attribute) Value() any { return a.value }

// SetValue stores v as the attribute's computed value. Called by evaluators
// exactly once, when they return lrtab.OK.
func (a *Attribute) SetValue(v any) { a.value = v }

// Status returns the attribute's current 3-valued evaluation status.
func (a *Attribute) Status() lrtab.Status { return a.status }

// SetReference marks the attribute as holding a borrowed alias rather than
// an owned value, so its class destructor never runs on it.
func (a *Attribute) SetReference() { a.isRef = true }

// IsReference reports whether SetReference has been called on a.
func (a *Attribute) IsReference() bool { return a.isRef }

// Class returns a's static class descriptor.
func (a *Attribute) Class() *lrtab.AttrClass { return a.class }

// CreateAttrs allocates and initializes the attribute block for node, which
// has just been created for the given symbol's attribute table entry.
// ruleAggEval carries the rule-specific evaluators for aggregated attributes
// of node's symbol when node is a freshly reduced nonterminal (nil for a
// terminal, which owns no rule); children is node's already-built child list
// (nil for a terminal), needed so aggregated dependencies can be resolved
// immediately, per the invariant that aggregated attributes precede
// inherited ones and so can always be wired at node-birth time.
//
// Attributes are allocated contiguously out of p, one pack-pool handle each,
// so a single DestroyAll pass can unref the whole block back to the pool at
// tree teardown. p may be nil, in which case no pool slots are reserved.
func CreateAttrs(p *pool.Pool, node *tree.Node, symAttrs lrtab.SymbolAttrs, ruleAggEval []lrtab.AggregatedEval, children []*tree.Node) []*Attribute {
	n := len(symAttrs.Classes)
	if n == 0 {
		return nil
	}

	var handles []pool.Handle
	if p != nil {
		handles = p.Alloc(n)
	}
	out := make([]*Attribute, n)

	for i := 0; i < n; i++ {
		class := &symAttrs.Classes[i]
		a := &Attribute{class: class, phase: PhaseAllocated}
		if p != nil {
			a.handle = handles[i]
		}

		eval, deps := resolveEvaluator(symAttrs, ruleAggEval, i)
		if node.Terminal && class.Name == tokenAttrName && eval == nil {
			eval = tokenEvaluator(node)
		}

		a.eval = eval
		if eval != nil && len(deps) == 0 {
			// Zero-arity: nothing to wait on, so it is trivially
			// resolved and its (empty) dependency set already evaluated.
			a.phase |= PhaseResolved | PhaseEvaluated
		} else if len(deps) > 0 {
			a.deps = make([]*Attribute, len(deps))
		}

		if p != nil {
			p.Set(handles[i], a)
		}
		out[i] = a
	}

	node.Attrs = out

	for i := 0; i < n; i++ {
		if _, deps := resolveEvaluator(symAttrs, ruleAggEval, i); len(deps) > 0 {
			resolveInto(out[i], deps, node, children)
		}
	}

	return out
}

// resolveEvaluator picks i's evaluator, preferring a rule-specific binding
// (from ruleAggEval) over the symbol's generic default, and returns the
// dependency descriptor that came with whichever was chosen. A generic
// default's deps (symAttrs.DefaultDeps[i]) can only ever reference the
// node's own other attributes (SymbolIndex 0), since a default is shared
// across every rule that produces this symbol and so carries no per-rule
// child context.
func resolveEvaluator(symAttrs lrtab.SymbolAttrs, ruleAggEval []lrtab.AggregatedEval, i int) (lrtab.Evaluator, []lrtab.DepRef) {
	for _, ag := range ruleAggEval {
		if ag.AttrIndex == i {
			return ag.Eval, ag.Deps
		}
	}
	if i < len(symAttrs.Defaults) {
		var deps []lrtab.DepRef
		if i < len(symAttrs.DefaultDeps) {
			deps = symAttrs.DefaultDeps[i]
		}
		return symAttrs.Defaults[i], deps
	}
	return nil, nil
}

// SetEvaluator overrides a's evaluator and dependency slots, as used for
// inherited attributes once the owning rule is known (one reduction after
// the attribute itself was allocated). Passing a nil eval makes a
// permanently unevaluable: Evaluate will return lrtab.Undefined for it (and
// for anything that depends on it) from then on.
func SetEvaluator(a *Attribute, eval lrtab.Evaluator, depCount int) {
	a.eval = eval
	a.phase &^= PhaseResolved | PhaseScheduled | PhaseEvaluated
	if depCount > 0 {
		a.deps = make([]*Attribute, depCount)
	} else {
		a.deps = nil
		if eval != nil {
			a.phase |= PhaseResolved | PhaseEvaluated
		}
	}
}

// ResolveDeps dereferences descs against node (SymbolIndex 0) and children
// (SymbolIndex 1..k, left to right) and stores the results into a's
// dependency slots, then marks a as resolved.
func ResolveDeps(a *Attribute, descs []lrtab.DepRef, node *tree.Node, children []*tree.Node) {
	resolveInto(a, descs, node, children)
}

func resolveInto(a *Attribute, descs []lrtab.DepRef, node *tree.Node, children []*tree.Node) {
	if len(a.deps) != len(descs) {
		a.deps = make([]*Attribute, len(descs))
	}
	for i, d := range descs {
		a.deps[i] = deref(d, node, children)
	}
	a.phase |= PhaseResolved
}

func deref(d lrtab.DepRef, node *tree.Node, children []*tree.Node) *Attribute {
	attrsOf := func(n *tree.Node) []*Attribute {
		a, _ := n.Attrs.([]*Attribute)
		return a
	}

	if d.SymbolIndex == 0 {
		return attrsOf(node)[d.AttrIndex]
	}
	return attrsOf(children[d.SymbolIndex-1])[d.AttrIndex]
}

// Evaluate computes a's value on demand, memoizing the result so a's
// evaluator is invoked at most once regardless of how many callers request
// it. depthCap, if non-zero, bounds the size of the internal worklist;
// exceeding it is treated as a general failure (lrtab.Error).
//
// Cycle detection uses a set local to this call rather than a persistent
// "scheduled" flag stored on the attribute itself: a flag left set by an
// evaluation that never completes (e.g. the caller abandons the parse
// mid-evaluation) would permanently and incorrectly poison that attribute
// for every future call. A call-local set has no such failure mode.
func Evaluate(a *Attribute, depthCap int) lrtab.Status {
	if a.status != lrtab.Undefined {
		return a.status
	}

	work := &util.Stack[*Attribute]{}
	work.Push(a)
	inFlight := util.NewKeySet[*Attribute]()
	inFlight.Add(a)

	for !work.Empty() {
		if depthCap > 0 && work.Len() > depthCap {
			return lrtab.Error
		}

		top := work.Peek()
		if top.phase&PhaseResolved == 0 {
			return lrtab.Undefined
		}

		if top.phase&PhaseEvaluated == 0 {
			allReady := true
			for i := len(top.deps) - 1; i >= 0; i-- {
				d := top.deps[i]
				switch {
				case inFlight.Has(d):
					return lrtab.Error
				case d.status == lrtab.Error:
					return lrtab.Error
				case d.status == lrtab.Undefined:
					work.Push(d)
					inFlight.Add(d)
					allReady = false
				}
			}
			if !allReady {
				top.phase |= PhaseScheduled
				continue
			}
			top.phase |= PhaseEvaluated
		}

		work.Pop()
		inFlight.Remove(top)

		if top.eval == nil {
			// An attribute with no evaluator is unevaluable: stop here and
			// report Undefined, leaving its status Undefined, rather than
			// letting a dependent re-push it on every visit.
			return lrtab.Undefined
		}

		handles := make([]lrtab.AttrHandle, len(top.deps))
		for i, d := range top.deps {
			handles[i] = d
		}
		top.status = top.eval(top, handles)
		if top.status != lrtab.OK {
			return top.status
		}
	}

	return a.status
}

// Destroy runs a's class destructor on its value, if it ever evaluated to OK
// and is not a borrowed reference, then releases its pack-pool slot. Safe to
// call on an attribute that never evaluated.
func Destroy(p *pool.Pool, a *Attribute) {
	if a.status == lrtab.OK && !a.isRef && a.class.Destructor != nil {
		a.class.Destructor(a.value)
	}
	a.deps = nil
	a.value = nil
	if p != nil && !a.handle.IsZero() {
		p.Unref(a.handle, 1)
	}
}

// DestroyAll destroys every attribute in attrs, in order.
func DestroyAll(p *pool.Pool, attrs []*Attribute) {
	for _, a := range attrs {
		Destroy(p, a)
	}
}

// tokenEvaluator is the built-in, zero-arity "$token" evaluator: it always
// succeeds and yields the owning terminal node's token view. It is supplied
// by the runtime unconditionally for any terminal symbol whose attribute
// table declares a "$token"-named class with no evaluator of its own.
func tokenEvaluator(node *tree.Node) lrtab.Evaluator {
	tok := node.Token
	return func(self lrtab.AttrHandle, _ []lrtab.AttrHandle) lrtab.Status {
		self.SetValue(tok)
		return lrtab.OK
	}
}

// Reference is the built-in unary evaluator: it copies its single
// dependency's value into self and marks self as a borrowed reference, so
// self's class destructor never runs on it. Table generators bind this
// directly as an AggregatedEval/InheritedEval's Eval field wherever an
// attribute should simply alias another one unchanged.
func Reference(self lrtab.AttrHandle, deps []lrtab.AttrHandle) lrtab.Status {
	if len(deps) != 1 {
		return lrtab.Error
	}
	self.SetValue(deps[0].Value())
	self.SetReference()
	return lrtab.OK
}

// Lookup resolves name against symAttrs' name FSA and returns the matching
// attribute from attrs, the way a "get_attr(node, name)" call does.
func Lookup(attrs []*Attribute, symAttrs lrtab.SymbolAttrs, name string) (*Attribute, bool) {
	if symAttrs.Names == nil {
		return nil, false
	}
	idx, ok := symAttrs.Names.Lookup(name)
	if !ok || idx < 0 || idx >= len(attrs) {
		return nil, false
	}
	return attrs[idx], true
}
