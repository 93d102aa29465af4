package kdesign

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/tydi/ktype"
)

var (
	bits32   = ktype.MustStream(ktype.Bits{Width: 32}, 0)
	bits32d1 = ktype.MustStream(ktype.Bits{Width: 32}, 1)
	bits8    = ktype.MustStream(ktype.Bits{Width: 8}, 0)
)

// testProject returns a project with library "lib" containing:
//
//	a:       in Stream<Bits<32>> -> out Stream<Bits<32>>
//	narrow:  in Stream<Bits<8>>  -> out Stream<Bits<8>>
//	any:     in Unknown          -> out Unknown
//	top:     in Stream<Bits<32>> -> out Stream<Bits<32>>
func testProject(t *testing.T) *Project {
	t.Helper()

	p := MustProject("proj")
	lib := MustLibrary("lib")

	for _, s := range []*Streamlet{
		passThrough("a", bits32),
		passThrough("narrow", bits8),
		passThrough("any", nil),
		passThrough("top", bits32),
	} {
		_, err := lib.AddStreamlet(s)
		assert.NoError(t, err)
	}

	_, err := p.AddLibrary(lib)
	assert.NoError(t, err)
	return p
}

func passThrough(key string, typ ktype.Type) *Streamlet {
	return MustStreamlet(key,
		MustInterface("in", In, typ),
		MustInterface("out", Out, typ),
	)
}

func keys(ifaces []Interface) []IFKey {
	out := make([]IFKey, 0, len(ifaces))
	for _, i := range ifaces {
		out = append(out, i.Key())
	}
	return out
}
