// Package atom implements compact symbolic tags: short strings packed into
// a single uint64 so they can be compared, hashed, and passed by value as
// the first element of a control message (get, put, ok, tick, ...).
//
// The encoding is grounded on caf/atom.hpp's atom_value/atom_constant idea
// (a compile-time-friendly integer standing in for a string literal), but
// the bit-packing itself is this package's own: each of up to ten
// characters is packed into six bits of the result, most significant
// character first, so that encode is total and injective over the legal
// alphabet and decode is its exact inverse.
package atom

import (
	"strings"

	"github.com/pkg/errors"
)

// Atom is a symbolic tag. The zero Atom is the encoding of the empty
// string (and decodes back to it); it doubles as a "no atom" sentinel.
type Atom uint64

// MaxLen is the longest string that can be encoded as an Atom.
const MaxLen = 10

const bitsPerChar = 6

// alphabet holds the 38 legal symbols: digits, then lowercase letters,
// then underscore, then space. Code 0 is reserved as the pad/terminator
// and never assigned to a real character, so trailing pad codes can
// always be told apart from legal content during Decode. Six bits can
// address 64 values, so this alphabet (and room to grow) fits with
// twenty-five codes to spare.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz_ "

var charCode [256]int8

func init() {
	for i := range charCode {
		charCode[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		charCode[alphabet[i]] = int8(i + 1)
	}
}

// ErrInvalidEncoding is returned when a string cannot be encoded as an
// Atom: either it is longer than MaxLen, or it contains a character
// outside the legal alphabet (lowercase letters, digits, underscore,
// space).
var ErrInvalidEncoding = errors.New("invalid_atom_encoding")

// Encode packs s into an Atom. Encoding is total over the legal alphabet:
// for any s accepted here, Decode(Encode(s)) == s, and distinct accepted
// strings never produce the same Atom (injectivity).
func Encode(s string) (Atom, error) {
	if len(s) > MaxLen {
		return 0, errors.Wrapf(ErrInvalidEncoding, "atom %q exceeds %d characters", s, MaxLen)
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		code := charCode[s[i]]
		if code < 0 {
			return 0, errors.Wrapf(ErrInvalidEncoding, "atom %q contains illegal character %q", s, s[i])
		}
		v = v<<bitsPerChar | uint64(code)
	}
	v <<= bitsPerChar * uint(MaxLen-len(s))
	return Atom(v), nil
}

// MustEncode is Encode, panicking on error. Intended for compile-time-like
// constant atoms declared at package scope (see the builtin atoms below),
// where the argument is always a literal known to be legal.
func MustEncode(s string) Atom {
	a, err := Encode(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decode returns the original string an Atom was built from. Trailing pad
// characters are stripped, so Decode(Encode(s)) == s for every legal s.
func Decode(a Atom) string {
	var sb strings.Builder
	v := uint64(a)
	shift := bitsPerChar * uint(MaxLen-1)
	for i := 0; i < MaxLen; i++ {
		code := (v >> shift) & 0x3f
		shift -= bitsPerChar
		if code == 0 {
			continue
		}
		sb.WriteByte(alphabet[code-1])
	}
	return sb.String()
}

// String implements fmt.Stringer so atoms print as their decoded form
// rather than a bare integer.
func (a Atom) String() string {
	return Decode(a)
}

// Builtin atoms, grounded on the CAF atom table in caf/atom.hpp.
var (
	Add       = MustEncode("add")
	Get       = MustEncode("get")
	Put       = MustEncode("put")
	Update    = MustEncode("update")
	Delete    = MustEncode("delete")
	Ok        = MustEncode("ok")
	Sys       = MustEncode("sys")
	Join      = MustEncode("join")
	Leave     = MustEncode("leave")
	Forward   = MustEncode("forward")
	Flush     = MustEncode("flush")
	Link      = MustEncode("link")
	Unlink    = MustEncode("unlink")
	Subscribe = MustEncode("subscribe")
	Connect   = MustEncode("connect")
	Open      = MustEncode("open")
	Close     = MustEncode("close")
	Spawn     = MustEncode("spawn")
	Tick      = MustEncode("tick")
	Error     = MustEncode("error")
	Timeout   = MustEncode("timeout")
)
