package atom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{
		"", "a", "ok", "get", "put", "tick", "hello_wor", "0123456789",
		"a b_c9", "          ",
	}
	for _, s := range cases {
		a, err := Encode(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, Decode(a), "round trip for %q", s)
	}
}

func TestEncodeInjective(t *testing.T) {
	x, err := Encode("get")
	require.NoError(t, err)
	y, err := Encode("put")
	require.NoError(t, err)
	assert.NotEqual(t, x, y)

	z, err := Encode("get")
	require.NoError(t, err)
	assert.Equal(t, x, z)
}

func TestEncodeRejectsTooLong(t *testing.T) {
	_, err := Encode("012345678901")
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestEncodeRejectsIllegalCharacter(t *testing.T) {
	for _, s := range []string{"Hello", "get!", "a-b", "\t"} {
		_, err := Encode(s)
		assert.ErrorIsf(t, err, ErrInvalidEncoding, "expected rejection of %q", s)
	}
}

func TestBuiltinAtomsDistinct(t *testing.T) {
	seen := map[Atom]string{}
	for name, a := range map[string]Atom{
		"add": Add, "get": Get, "put": Put, "update": Update, "delete": Delete,
		"ok": Ok, "sys": Sys, "join": Join, "leave": Leave, "forward": Forward,
		"flush": Flush, "link": Link, "unlink": Unlink, "subscribe": Subscribe,
		"connect": Connect, "open": Open, "close": Close, "spawn": Spawn,
		"tick": Tick, "error": Error, "timeout": Timeout,
	} {
		if other, ok := seen[a]; ok {
			t.Fatalf("atom collision: %q and %q both encode to %d", name, other, a)
		}
		seen[a] = name
		assert.Equal(t, name, a.String())
	}
}

func TestZeroAtomIsEmpty(t *testing.T) {
	var a Atom
	assert.Equal(t, "", a.String())
}
