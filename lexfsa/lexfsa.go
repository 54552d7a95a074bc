// Package lexfsa walks a chunk.Ring through a precompiled lrtab.LexerFSA,
// producing Tokens. It never backtracks: every accepting state seen along
// the way is recorded as a Candidate for its terminal code, so the driver
// layer can pick the longest match per code (or, when the grammar overlaps,
// choose among several codes accepted at the same length) without the
// lexer needing to know anything about precedence.
//
// Scanning can stop mid-token when the ring runs dry before a dead end is
// reached; GetCandidates then returns StateInputExhausted and the caller is
// expected to Feed more chunks and call it again. The FSA position, the
// read cursor, and the candidate table already collected all survive that
// pause untouched.
package lexfsa

import (
	"unicode/utf8"

	"github.com/dekarrin/sturgeon/chunk"
	"github.com/dekarrin/sturgeon/icerr"
	"github.com/dekarrin/sturgeon/lrtab"
)

// State is the lexer's externally visible condition after a GetCandidates
// call.
type State int

const (
	// StateScanning never escapes GetCandidates; it is only used as the
	// Lexer's internal condition before the first scan and after each
	// Consume.
	StateScanning State = iota
	StateHaveCandidates
	StateInputExhausted
	StateInvalid
	StateEOF
)

func (s State) String() string {
	switch s {
	case StateHaveCandidates:
		return "have-candidates"
	case StateInputExhausted:
		return "input-exhausted"
	case StateInvalid:
		return "invalid"
	case StateEOF:
		return "eof"
	default:
		return "scanning"
	}
}

// Candidate is one terminal code matched at the current scan position,
// together with enough of the source span to build a Token from it.
type Candidate struct {
	Code   int
	Length int

	originChunk     *chunk.Chunk
	originOffset    int // byte offset into originChunk.Data()
	startByteOffset int
	startLine       int
	startCol        int

	ring *chunk.Ring
}

// Token returns a borrowed Token view of this candidate's matched text.
// The view is valid only until the next Consume call; callers that need it
// to outlive that must call Copy on the result.
func (c Candidate) Token() Token {
	return Token{
		code:      c.Code,
		length:    c.Length,
		offset:    c.startByteOffset,
		line:      c.startLine,
		col:       c.startCol,
		origin:    c.originChunk,
		originOff: c.originOffset,
		ring:      c.ring,
	}
}

// Lexer scans a chunk.Ring through a union FSA, one token at a time.
type Lexer struct {
	fsa  lrtab.LexerFSA
	ring *chunk.Ring

	trace func(string)

	state      State
	candidates map[int]Candidate
	invalidPos icerr.Position

	fsaState int

	// anchor marks where the token currently being scanned began; cur is
	// the live read cursor, which may be ahead of anchor by several chunks
	// for a long token.
	anchorChunk  *chunk.Chunk
	anchorOffset int
	anchorByte   int
	anchorLine   int
	anchorCol    int

	curChunk *chunk.Chunk
	curOff   int
	curByte  int
	curLine  int
	curCol   int

	started bool // whether anchorChunk/curChunk have been initialized yet
}

// New returns a Lexer that scans input appended to ring according to fsa.
// The ring may already have chunks appended, or may be fed incrementally
// via Feed.
func New(fsa lrtab.LexerFSA, ring *chunk.Ring) *Lexer {
	return &Lexer{
		fsa:        fsa,
		ring:       ring,
		candidates: make(map[int]Candidate),
		anchorLine: 1,
		anchorCol:  1,
		curLine:    1,
		curCol:     1,
	}
}

// RegisterTraceListener installs f as the lexer's trace listener, replacing
// any previous one; passing nil removes it. The scan loop, Consume and
// GetCandidates emit no trace messages, so f is stored but never called.
func (l *Lexer) RegisterTraceListener(f func(string)) {
	l.trace = f
}

func (l *Lexer) notifyTrace(msg string) {
	if l.trace != nil {
		l.trace(msg)
	}
}

// Feed appends a chunk of input to the lexer's ring. isLast marks the final
// chunk of the input stream; once a chunk marked isLast has been fully
// scanned past, the lexer reports StateEOF instead of StateInputExhausted.
func (l *Lexer) Feed(data []byte, cleanup chunk.Cleanup, cookie any, isLast bool) error {
	_, err := l.ring.Append(data, cleanup, cookie, isLast)
	if err != nil {
		return err
	}
	if !l.started {
		l.ensureCursor()
	}
	return nil
}

func (l *Lexer) ensureCursor() {
	if l.started {
		return
	}
	head := l.ring.Head()
	if head == nil {
		return
	}
	// anchor and cursor each hold their own reference, even though they
	// start out pointing at the same chunk: the cursor's reference moves
	// forward independently as scanning crosses chunk boundaries, while
	// the anchor's reference is only released by commitTo.
	l.ring.Acquire(head)
	l.ring.Acquire(head)
	l.anchorChunk = head
	l.curChunk = head
	l.started = true
}

// GetCandidates advances the scan (or resumes one paused by a prior
// StateInputExhausted) until it reaches a dead end, input exhaustion, true
// end of input, or an unrecognized character. Calling it again without an
// intervening Consume simply returns the same committed result.
//
// A match is committed only once the rune after it has been looked at (or
// the final chunk has ended), even when the FSA state reached has no
// outgoing branches: a token that ends exactly at the end of a chunk not
// marked isLast yields StateInputExhausted until more input is fed.
func (l *Lexer) GetCandidates() (State, []Candidate, error) {
	switch l.state {
	case StateHaveCandidates, StateInvalid, StateEOF:
		return l.state, l.sortedCandidates(), l.resultErr()
	}

	l.ensureCursor()
	if !l.started {
		l.state = StateInputExhausted
		return l.state, nil, nil
	}

	for {
		r, size, ok := l.peekRune()
		if !ok {
			if l.curChunk.IsLast() {
				return l.finishAtEOF()
			}
			l.state = StateInputExhausted
			return l.state, nil, nil
		}

		next, found := l.fsa.State(l.fsaState).Next(r)
		if !found {
			return l.finishDeadEnd()
		}

		l.advance(r, size)
		l.fsaState = next
		for _, code := range l.fsa.State(next).Accepts {
			l.updateCandidate(code)
		}
	}
}

// finishAtEOF is reached when the read cursor has run off the end of the
// final chunk: either commit whatever candidates are pending, emit the
// singleton EOF token if nothing has been consumed yet this scan, or report
// an invalid dead end if characters were consumed but nothing ever matched.
func (l *Lexer) finishAtEOF() (State, []Candidate, error) {
	if len(l.candidates) > 0 {
		l.state = StateHaveCandidates
		return l.state, l.sortedCandidates(), nil
	}
	if l.curByte == l.anchorByte {
		l.state = StateEOF
		eof := Candidate{
			Code: lrtab.TermEOF, Length: 0,
			originChunk: l.anchorChunk, originOffset: l.anchorOffset,
			startByteOffset: l.anchorByte, startLine: l.anchorLine, startCol: l.anchorCol,
			ring: l.ring,
		}
		l.candidates[lrtab.TermEOF] = eof
		return l.state, []Candidate{eof}, nil
	}
	l.invalidPos = icerr.Position{Offset: l.anchorByte, Line: l.anchorLine, Column: l.anchorCol}
	l.state = StateInvalid
	return l.state, nil, l.resultErr()
}

func (l *Lexer) finishDeadEnd() (State, []Candidate, error) {
	if len(l.candidates) > 0 {
		l.state = StateHaveCandidates
		return l.state, l.sortedCandidates(), nil
	}
	l.invalidPos = icerr.Position{Offset: l.anchorByte, Line: l.anchorLine, Column: l.anchorCol}
	l.state = StateInvalid
	return l.state, nil, l.resultErr()
}

func (l *Lexer) resultErr() error {
	if l.state == StateInvalid {
		return icerr.InvalidInput("no terminal matches at this position", l.invalidPos)
	}
	return nil
}

// updateCandidate records (or unconditionally overwrites, with no length
// comparison) the candidate for code at the current cursor position. The
// cursor only moves forward within a scan, so a later accept for a code
// already seen always carries a longer match than the one it replaces; the
// last accept seen for each code is the one kept.
func (l *Lexer) updateCandidate(code int) {
	l.candidates[code] = Candidate{
		Code:   code,
		Length: l.curByte - l.anchorByte,

		originChunk:     l.anchorChunk,
		originOffset:    l.anchorOffset,
		startByteOffset: l.anchorByte,
		startLine:       l.anchorLine,
		startCol:        l.anchorCol,
		ring:            l.ring,
	}
}

func (l *Lexer) sortedCandidates() []Candidate {
	out := make([]Candidate, 0, len(l.candidates))
	for _, c := range l.candidates {
		out = append(out, c)
	}
	// Deterministic order (by code) so callers that just want "the" match
	// for a single expected code don't depend on map iteration order.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Code > out[j].Code; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// GetCandidate returns the pending candidate for code, if GetCandidates
// last returned StateHaveCandidates (or StateEOF, for lrtab.TermEOF) and
// code is among the accepted terminals.
func (l *Lexer) GetCandidate(code int) (Candidate, bool) {
	c, ok := l.candidates[code]
	return c, ok
}

// Consume commits to the candidate previously returned for code, advancing
// the lexer's committed position past it, releasing any chunks now fully
// behind the new position, and resetting the FSA to its start state for the
// next token. It returns the consumed token as a borrowed view, valid only
// until the next Consume call.
func (l *Lexer) Consume(code int) (Token, error) {
	c, ok := l.candidates[code]
	if !ok {
		return Token{}, icerr.General("lexfsa: consume of a code with no pending candidate")
	}

	tok := c.Token()
	// Join a token that spans chunks now, while every chunk it covers is
	// still linked: commitTo may release the leading ones.
	tok.Data()

	if code != lrtab.TermEOF {
		l.commitTo(c)
	}

	l.candidates = make(map[int]Candidate)
	l.fsaState = l.fsa.Start
	l.state = StateScanning
	return tok, nil
}

// commitTo advances anchor to the end of c's match, releasing the chunk
// references for any chunks that end strictly before the new anchor
// position (the cursor may already be ahead of the committed candidate, for
// a shorter code chosen over a longer one accepted at the same dead end).
func (l *Lexer) commitTo(c Candidate) {
	newByte := c.startByteOffset + c.Length

	// Walk anchorChunk forward byte-by-byte (via rune decode, to keep line/
	// column bookkeeping correct) until the committed byte offset is
	// reached, releasing each chunk once we step off the front of it.
	l.anchorChunk = c.originChunk
	l.anchorOffset = c.originOffset
	l.anchorByte = c.startByteOffset
	l.anchorLine = c.startLine
	l.anchorCol = c.startCol

	for l.anchorByte < newByte {
		data := l.anchorChunk.Data()
		if l.anchorOffset >= len(data) {
			old := l.anchorChunk
			next := old.Next()
			l.ring.Acquire(next)
			l.anchorChunk = next
			l.anchorOffset = 0
			l.ring.Release(old)
			continue
		}
		r, size := utf8.DecodeRune(data[l.anchorOffset:])
		l.stepAnchor(r, size)
	}

	// The read cursor is always at or ahead of the new anchor; if it is
	// ahead (the consumed match is shorter than what was scanned) rewind it
	// back to the anchor so the next scan starts there. The
	// cursor keeps its own independent reference throughout.
	if l.curByte != newByte {
		oldCur := l.curChunk
		l.ring.Acquire(l.anchorChunk)
		l.curChunk = l.anchorChunk
		l.curOff = l.anchorOffset
		l.curByte = l.anchorByte
		l.curLine = l.anchorLine
		l.curCol = l.anchorCol
		l.ring.Release(oldCur)
	}
}

func (l *Lexer) stepAnchor(r rune, size int) {
	l.anchorOffset += size
	l.anchorByte += size
	if r == '\n' {
		l.anchorLine++
		l.anchorCol = 1
	} else {
		l.anchorCol++
	}
}

// peekRune decodes the next rune at the cursor without advancing it,
// reaching across chunk boundaries as needed. ok is false when no complete
// rune is available yet (either because the ring has not been fed enough
// bytes, or because the cursor chunk is the final one and truly exhausted).
func (l *Lexer) peekRune() (r rune, size int, ok bool) {
	data := l.curChunk.Data()
	if l.curOff < len(data) {
		remaining := data[l.curOff:]
		r, size = utf8.DecodeRune(remaining)
		if r != utf8.RuneError || size > 1 {
			return r, size, true
		}
		if size == 1 && !utf8.FullRune(remaining) {
			// Possible multi-byte rune split across a chunk boundary; try
			// to borrow bytes from the chunks that follow before giving up.
			if joined, complete := l.peekAcrossChunks(); complete {
				r2, size2 := utf8.DecodeRune(joined)
				return r2, size2, true
			}
			if l.curChunk.Next() == nil && !l.curChunk.IsLast() {
				return 0, 0, false
			}
		}
		return r, size, true
	}

	next := l.curChunk.Next()
	if next == nil {
		return 0, 0, false
	}
	old := l.curChunk
	l.ring.Acquire(next)
	l.curChunk = next
	l.curOff = 0
	l.ring.Release(old) // cursor's hold moves forward; anchor keeps its own
	return l.peekRune()
}

// peekAcrossChunks gathers up to utf8.UTFMax bytes starting at the cursor,
// borrowing from subsequent chunks without moving the cursor, to decode a
// rune that may be split across a chunk boundary.
func (l *Lexer) peekAcrossChunks() (joined []byte, complete bool) {
	buf := make([]byte, 0, utf8.UTFMax)
	c := l.curChunk
	off := l.curOff
	for len(buf) < utf8.UTFMax {
		data := c.Data()
		if off < len(data) {
			buf = append(buf, data[off])
			off++
			if utf8.FullRune(buf) {
				return buf, true
			}
			continue
		}
		next := c.Next()
		if next == nil {
			return buf, false
		}
		c = next
		off = 0
	}
	return buf, true
}

func (l *Lexer) advance(r rune, size int) {
	// The cursor acquired its current chunk already (via peekRune crossing
	// a boundary); here we only need to move the in-chunk offset and the
	// running line/column.
	l.curOff += size
	l.curByte += size
	if r == '\n' {
		l.curLine++
		l.curCol = 1
	} else {
		l.curCol++
	}
}
