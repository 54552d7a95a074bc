// Package tree builds and tears down the parse tree the LR driver produces
// during reduction. Construction happens bottom-up: a Builder mirrors the
// driver's own stack, holding completed subtrees instead of parser states,
// and wires them together into parents as each reduce action fires.
package tree

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"

	"github.com/dekarrin/sturgeon/lexfsa"
	"github.com/dekarrin/sturgeon/lrtab"
	"github.com/dekarrin/sturgeon/pool"
)

// Node is one parse-tree node: either a terminal (a leaf carrying a Token)
// or a nonterminal (produced by a reduce action, carrying the Rule it was
// built from).
//
// Children are held as a singly-linked list via FirstChild/NextSibling, the
// conventional low-overhead shape for variable-arity trees; LastChild is
// kept explicitly alongside it so appending a new child during Reduce does
// not require walking the existing list.
type Node struct {
	Terminal bool

	Symbol int // terminal code if Terminal, nonterminal index otherwise
	Token  lexfsa.Token
	Rule   *lrtab.Rule // nil when Terminal

	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	NextSibling *Node

	// Attrs is reserved for the attribute-evaluation engine to stash its
	// per-node attribute block. tree never reads or writes it.
	Attrs any

	handle pool.Handle
}

// NewTerminal returns a leaf node wrapping tok.
func NewTerminal(symbol int, tok lexfsa.Token) *Node {
	return &Node{Terminal: true, Symbol: symbol, Token: tok}
}

// appendChild links c as the last child of n.
func (n *Node) appendChild(c *Node) {
	c.Parent = n
	c.NextSibling = nil
	if n.LastChild == nil {
		n.FirstChild = c
		n.LastChild = c
		return
	}
	n.LastChild.NextSibling = c
	n.LastChild = c
}

// Children returns n's children left to right as a slice. Convenience only;
// hot paths should walk FirstChild/NextSibling directly.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Builder constructs a parse tree bottom-up, mirroring the LR driver's
// shift/reduce actions one for one.
type Builder struct {
	pool *pool.Pool
	top  []*Node // mirrors the driver's state stack; top of stack = last element
}

// NewBuilder returns a Builder that allocates nodes from p (p may be nil, in
// which case nodes are plain heap allocations).
func NewBuilder(p *pool.Pool) *Builder {
	return &Builder{pool: p}
}

func (b *Builder) alloc(n *Node) *Node {
	if b.pool == nil {
		return n
	}
	h := b.pool.Alloc(1)[0]
	b.pool.Set(h, n)
	n.handle = h
	return n
}

// Shift pushes a new terminal leaf for tok onto the builder's top-sibling
// list and returns it.
func (b *Builder) Shift(symbol int, tok lexfsa.Token) *Node {
	n := b.alloc(NewTerminal(symbol, tok))
	b.top = append(b.top, n)
	return n
}

// Reduce pops the last rule.RHSLen nodes off the top-sibling list, links
// them as children (in order) of a new nonterminal node for rule, pushes
// that node, and returns it. It panics if fewer than rule.RHSLen nodes are
// available, which would mean the driver and builder have desynchronized.
func (b *Builder) Reduce(rule *lrtab.Rule) *Node {
	k := rule.RHSLen
	if len(b.top) < k {
		panic("tree: reduce popped more nodes than the builder holds; driver/builder desynchronized")
	}

	children := b.top[len(b.top)-k:]
	b.top = b.top[:len(b.top)-k]

	parent := b.alloc(&Node{Terminal: false, Symbol: rule.LHS, Rule: rule})
	for _, c := range children {
		parent.appendChild(c)
	}

	b.top = append(b.top, parent)
	return parent
}

// Top returns the node currently at the top of the builder's sibling list,
// or nil if it is empty.
func (b *Builder) Top() *Node {
	if len(b.top) == 0 {
		return nil
	}
	return b.top[len(b.top)-1]
}

// Finish completes the build: exactly one node must remain (the root), which
// is returned with the builder's internal stack cleared.
func (b *Builder) Finish() (*Node, error) {
	if len(b.top) != 1 {
		return nil, fmt.Errorf("tree: finish with %d nodes on the top-sibling list, expected 1", len(b.top))
	}
	root := b.top[0]
	b.top = nil
	return root, nil
}

// Destroy tears down root non-recursively (a deep tree would overflow the
// Go call stack under naive recursion), visiting every node exactly once in
// post-order and invoking onNode for each before it is detached from its
// parent and released back to the pool it was allocated from, if any.
func Destroy(root *Node, pool *pool.Pool, onNode func(*Node)) {
	if root == nil {
		return
	}

	// Explicit work stack; each entry is visited once to push its children,
	// then again (after all children) to finalize it. We track this with a
	// per-frame childDone flag rather than recursion.
	type frame struct {
		n         *Node
		childDone bool
	}
	stack := []frame{{n: root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if !top.childDone {
			top.childDone = true
			for c := top.n.FirstChild; c != nil; c = c.NextSibling {
				stack = append(stack, frame{n: c})
			}
			continue
		}

		n := top.n
		stack = stack[:len(stack)-1]

		if onNode != nil {
			onNode(n)
		}
		n.FirstChild = nil
		n.LastChild = nil
		n.NextSibling = nil
		n.Parent = nil

		if pool != nil && !n.handle.IsZero() {
			pool.Unref(n.handle, 1)
		}
	}
}

// Dump renders the subtree rooted at n as an indented, human-readable tree,
// one node per line.
func (n *Node) Dump(names lrtab.Grammar) string {
	var sb strings.Builder
	n.dump(&sb, names, 0)
	return sb.String()
}

func (n *Node) dump(sb *strings.Builder, names lrtab.Grammar, depth int) {
	line := n.label(names)
	sb.WriteString(rosed.Edit(line).Indent(depth).String())
	sb.WriteRune('\n')
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		c.dump(sb, names, depth+1)
	}
}

func (n *Node) label(names lrtab.Grammar) string {
	if n.Terminal {
		text := string(n.Token.Data())
		return fmt.Sprintf("%s %q", names.TerminalHuman(n.Symbol), text)
	}
	name, ok := names.NonTerminalNames[n.Symbol]
	if !ok {
		name = "nonterminal"
	}
	ruleNum := -1
	if n.Rule != nil {
		ruleNum = n.Rule.Number
	}
	return fmt.Sprintf("%s (rule %d)", name, ruleNum)
}
