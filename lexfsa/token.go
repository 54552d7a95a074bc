package lexfsa

import (
	"strconv"

	"github.com/dekarrin/sturgeon/chunk"
	"github.com/dekarrin/sturgeon/lrtab"
)

// Token is a view onto a span of source text matched by the lexer. A Token
// handed back by Candidate.Token or Lexer.Consume is borrowed: it stays
// valid only until the lexer's next Consume call, because the chunks it
// reads from may be released at that point. Call Copy to get an
// independent Token that survives past that.
type Token struct {
	code   int
	length int
	offset int // byte offset of the token's start, for Position()
	line   int
	col    int

	origin    *chunk.Chunk
	originOff int
	ring      *chunk.Ring

	owned bool
	data  []byte // set once Data or Copy has joined the token's bytes
}

// Code returns the terminal code this token was matched for.
func (t Token) Code() int { return t.code }

// Len returns the token's length in bytes.
func (t Token) Len() int { return t.length }

// Position returns the token's starting byte offset and 1-based line/column.
func (t Token) Position() (offset, line, col int) { return t.offset, t.line, t.col }

// Copy returns an independent Token covering the same span, holding its own
// copy of the bytes (and no chunk references) so it survives past the
// lexer's next Consume call. Safe to call on an already-owned token
// (returns an equivalent copy).
func (t Token) Copy() Token {
	if t.length == 0 {
		cp := t
		cp.owned = true
		cp.data = []byte{}
		return cp
	}

	data := t.data
	if data == nil {
		data = t.join()
	}
	cp := t
	cp.owned = true
	cp.data = data
	cp.origin = nil
	cp.ring = nil
	return cp
}

// Release drops an owned token's held resources. It is a no-op for a
// borrowed token, whose chunks are the lexer's responsibility.
func (t *Token) Release() {
	if !t.owned {
		return
	}
	// The owned Token holds only a plain byte slice (see join/Copy), which
	// the garbage collector reclaims once it's unreferenced; there is no
	// explicit chunk reference left to release at this point.
	t.data = nil
}

// Data returns the token's matched bytes. For a token confined to a single
// chunk this is a zero-copy subslice; a token spanning several chunks is
// joined into a cached buffer the first time Data is called.
func (t *Token) Data() []byte {
	if t.data != nil {
		return t.data
	}
	if t.length == 0 {
		t.data = []byte{}
		return t.data
	}

	if t.originOff+t.length <= len(t.origin.Data()) {
		return t.origin.Data()[t.originOff : t.originOff+t.length]
	}

	t.data = t.join()
	return t.data
}

// join walks the chunk chain from the token's origin, copying exactly
// t.length bytes into a single contiguous buffer.
func (t Token) join() []byte {
	buf := make([]byte, 0, t.length)
	c := t.origin
	off := t.originOff
	for len(buf) < t.length {
		data := c.Data()
		if off < len(data) {
			n := t.length - len(buf)
			if avail := len(data) - off; avail < n {
				n = avail
			}
			buf = append(buf, data[off:off+n]...)
			off += n
			continue
		}
		c = c.Next()
		off = 0
	}
	return buf
}

// NumStatus is the status code produced by a token's numeric-conversion
// helpers. It is distinct from lrtab.Status: a numeric conversion is a local,
// pure operation on a token's bytes and never touches parser or attribute
// state, so a bad conversion never "poisons" the parse the way an attribute
// evaluation error does.
type NumStatus int

const (
	NumOK NumStatus = iota
	NumUnsupportedBase
	NumEmpty
	NumPrematureEnd
	NumInvalidCharacter
	NumInvalidFormat
	NumErr
)

func (s NumStatus) String() string {
	switch s {
	case NumOK:
		return "ok"
	case NumUnsupportedBase:
		return "unsupported-base"
	case NumEmpty:
		return "empty"
	case NumPrematureEnd:
		return "premature-end"
	case NumInvalidCharacter:
		return "invalid-character"
	case NumInvalidFormat:
		return "invalid-format"
	default:
		return "error"
	}
}

// isAlnumDigit reports whether c is one of the characters the integer
// grammar [-+]?[0-9A-Za-z]+ allows in digit position, and returns its value
// (case-insensitive, a/A == 10, ..., z/Z == 35).
func isAlnumDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

// ParseInt interprets the token's text as a signed integer in base (2..26
// inclusive; alphabetic digits are case-insensitive, a/A meaning 10 up
// through the base's highest digit), per the grammar
// /^[-+]?[0-9A-Za-z]+$/ with each digit range-checked against base.
// NumInvalidCharacter is reserved for bytes outside [0-9A-Za-z]; an
// in-alphabet digit whose value is out of range for base (e.g. "9" in
// base 8) is NumInvalidFormat.
func (t *Token) ParseInt(base int) (int64, NumStatus) {
	if base < 2 || base > 26 {
		return 0, NumUnsupportedBase
	}

	data := t.Data()
	if len(data) == 0 {
		return 0, NumEmpty
	}

	i := 0
	neg := false
	if data[0] == '+' || data[0] == '-' {
		neg = data[0] == '-'
		i++
	}
	if i >= len(data) {
		return 0, NumPrematureEnd
	}

	var val int64
	for ; i < len(data); i++ {
		d, ok := isAlnumDigit(data[i])
		if !ok {
			return 0, NumInvalidCharacter
		}
		if d >= base {
			return 0, NumInvalidFormat
		}
		val = val*int64(base) + int64(d)
	}

	if neg {
		val = -val
	}
	return val, NumOK
}

// ParseFloat interprets the token's text as a floating-point literal per the
// grammar /^[-+]?(?:\d+|\d*\.\d+|\d+\.\d*)(?:[eE][-+]?\d+)?$/, which requires
// at least one mantissa digit either side of (or instead of) the decimal
// point. The actual float64 conversion is delegated to strconv once the text
// is confirmed to match, since every string accepted by this grammar is also
// accepted by Go's float syntax.
func (t *Token) ParseFloat() (float64, NumStatus) {
	data := t.Data()
	if len(data) == 0 {
		return 0, NumEmpty
	}

	i := 0
	if data[i] == '+' || data[i] == '-' {
		i++
	}

	intDigits, fracDigits := 0, 0
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		i++
		intDigits++
	}
	if i < len(data) && data[i] == '.' {
		i++
		for i < len(data) && data[i] >= '0' && data[i] <= '9' {
			i++
			fracDigits++
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		if i >= len(data) {
			return 0, NumPrematureEnd
		}
		return 0, NumInvalidFormat
	}

	if i < len(data) && (data[i] == 'e' || data[i] == 'E') {
		j := i + 1
		if j < len(data) && (data[j] == '+' || data[j] == '-') {
			j++
		}
		expStart := j
		for j < len(data) && data[j] >= '0' && data[j] <= '9' {
			j++
		}
		if j == expStart {
			return 0, NumPrematureEnd
		}
		i = j
	}

	if i != len(data) {
		return 0, NumInvalidCharacter
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, NumErr
	}
	return v, NumOK
}

// IsEOF reports whether this token is the synthetic end-of-input token.
func (t Token) IsEOF() bool { return t.code == lrtab.TermEOF }
