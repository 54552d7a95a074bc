package lrtab

// Branch is one outgoing transition of an FSAState: the inclusive rune
// interval [Lo, Hi] it matches, and the state it leads to.
type Branch struct {
	Lo, Hi rune
	Target int
}

// Matches reports whether r falls within this branch's interval.
func (b Branch) Matches(r rune) bool {
	return r >= b.Lo && r <= b.Hi
}

// FSAState is one state of the union lexer FSA: its outgoing branches and
// the terminal codes it accepts (a state may accept more than one code,
// when the grammar's terminal languages overlap).
type FSAState struct {
	Branches []Branch
	Accepts  []int
}

// Next returns the target state for rune r from this state, or false if no
// branch matches (a dead end).
func (s FSAState) Next(r rune) (int, bool) {
	for _, b := range s.Branches {
		if b.Matches(r) {
			return b.Target, true
		}
	}
	return 0, false
}

// LexerFSA is the precompiled union finite-state automaton recognising all
// terminal symbols.
type LexerFSA struct {
	States []FSAState
	Start  int
}

// State returns the FSAState numbered i.
func (f LexerFSA) State(i int) FSAState {
	return f.States[i]
}
