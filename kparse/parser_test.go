package kparse

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/tydi/kdesign"
	"github.com/birdayz/tydi/ktype"
)

// testProject returns a project with two libraries:
//
//	primitives.pass:   in/out Stream<Bits<32>>
//	primitives.narrow: in/out Stream<Bits<8>>
//	primitives.any:    in/out Unknown
//	primitives.sqrt:   in Stream<Bits<32>> -> out Stream<Bits<16>>
//	primitives.split:  in Stream<Bits<32>> -> out1, out2
//	compositions.top:        in/out Stream<Bits<32>>
//	compositions.nested_top: in Stream<Bits<32>, d=1> -> out Stream<Bits<16>, d=1>
func testProject(t *testing.T) *kdesign.Project {
	t.Helper()

	p := kdesign.MustProject("parser")
	prims := kdesign.MustLibrary("primitives")
	comps := kdesign.MustLibrary("compositions")

	add := func(lib *kdesign.Library, key string, decls ...string) {
		ifaces := make([]kdesign.Interface, 0, len(decls))
		for _, d := range decls {
			ifaces = append(ifaces, kdesign.MustParseInterface(d))
		}
		_, err := lib.AddStreamlet(kdesign.MustStreamlet(key, ifaces...))
		assert.NoError(t, err)
	}

	add(prims, "pass", "in: in Stream<Bits<32>>", "out: out Stream<Bits<32>>")
	add(prims, "narrow", "in: in Stream<Bits<8>>", "out: out Stream<Bits<8>>")
	add(prims, "any", "in: in Unknown", "out: out Unknown")
	add(prims, "sqrt", "in: in Stream<Bits<32>>", "out: out Stream<Bits<16>>")
	add(prims, "split", "in: in Stream<Bits<32>>", "out1: out Stream<Bits<32>>", "out2: out Stream<Bits<32>>")
	add(comps, "top", "in: in Stream<Bits<32>>", "out: out Stream<Bits<32>>")
	add(comps, "nested_top", "in: in Stream<Bits<32>, d=1>", "out: out Stream<Bits<16>, d=1>")

	for _, lib := range []*kdesign.Library{prims, comps} {
		_, err := p.AddLibrary(lib)
		assert.NoError(t, err)
	}
	return p
}

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	assert.NoError(t, err)
	return string(b)
}

func parse(t *testing.T, p *kdesign.Project, input string) (*kdesign.ImplementationGraph, error) {
	t.Helper()
	ip, err := NewImplParser(p, input)
	if err != nil {
		return nil, err
	}
	if err := ip.Transform(); err != nil {
		return nil, err
	}
	impl, err := ip.Finish()
	if err != nil {
		return nil, err
	}
	g, ok := impl.Graph()
	assert.True(t, ok)
	return g, nil
}

func edgeStrings(g *kdesign.ImplementationGraph) []string {
	var out []string
	for e := range g.Edges() {
		out = append(out, e.String())
	}
	return out
}

func TestSimpleImplementation(t *testing.T) {
	p := testProject(t)
	g, err := parse(t, p, `compositions.top: {
		a: primitives.pass;
		a.in <= this.in;
	}`)
	assert.NoError(t, err)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []string{"this.in -> a.in"}, edgeStrings(g))
	assert.Equal(t, kdesign.MustStreamletHandle("compositions", "top"), g.Streamlet())
}

func TestBulkConnection(t *testing.T) {
	t.Run("three nodes", func(t *testing.T) {
		g, err := parse(t, testProject(t), `compositions.top {
			a: primitives.pass
			b: primitives.pass
			c: primitives.pass
			a <=> b <=> c
		}`)
		assert.NoError(t, err)
		assert.Equal(t, []string{"a.out -> b.in", "b.out -> c.in"}, edgeStrings(g))
	})

	t.Run("chain through this", func(t *testing.T) {
		g, err := parse(t, testProject(t), readTestdata(t, "chain.impl"))
		assert.NoError(t, err)
		assert.Equal(t, 4, g.NodeCount())
		assert.Equal(t, []string{
			"this.in -> a.in",
			"a.out -> b.in",
			"b.out -> c.in",
			"c.out -> this.out",
		}, edgeStrings(g))
		assert.Equal(t, 0, len(g.Unconnected()))
	})

	t.Run("lists", func(t *testing.T) {
		g, err := parse(t, testProject(t), readTestdata(t, "infer.impl"))
		assert.NoError(t, err)
		assert.Equal(t, []string{"this.in -> x.in", "x.out -> this.out"}, edgeStrings(g))

		x, err := g.Node("x")
		assert.NoError(t, err)
		for _, key := range []kdesign.IFKey{"in", "out"} {
			i, err := x.Interface(key)
			assert.NoError(t, err)
			assert.True(t, ktype.MustParse("Stream<Bits<32>>").Equal(i.Type()))
		}
	})

	t.Run("handle and node mixed", func(t *testing.T) {
		g, err := parse(t, testProject(t), `compositions.top {
			s: primitives.split
			a: primitives.pass
			s.out2 <=> a
		}`)
		assert.NoError(t, err)
		assert.Equal(t, []string{"s.out2 -> a.in"}, edgeStrings(g))
	})

	tests := []struct {
		name    string
		body    string
		line    int
		wantErr error
	}{
		{
			name:    "node without sole output",
			body:    "s: primitives.split\na: primitives.pass\ns <=> a",
			line:    4,
			wantErr: kdesign.ErrInvalidArgument,
		},
		{
			name:    "list length mismatch",
			body:    "a: primitives.pass\nb: primitives.pass\n[a.out, this.in] <=> [b.in]",
			line:    4,
			wantErr: kdesign.ErrInvalidArgument,
		},
		{
			name:    "input on the left",
			body:    "a: primitives.pass\nb: primitives.pass\na.in <=> b.in",
			line:    4,
			wantErr: kdesign.ErrInvalidArgument,
		},
		{
			name:    "unknown node",
			body:    "a: primitives.pass\na <=> ghost",
			line:    3,
			wantErr: kdesign.ErrNotFound,
		},
		{
			name:    "type mismatch",
			body:    "a: primitives.pass\nn: primitives.narrow\na <=> n",
			line:    4,
			wantErr: kdesign.ErrTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, testProject(t), "compositions.top {\n"+tt.body+"\n}")
			assert.True(t, errors.Is(err, tt.wantErr))
			line, ok := Line(err)
			assert.True(t, ok)
			assert.Equal(t, tt.line, line)
		})
	}
}

func TestNodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		line    int
		wantErr error
	}{
		{
			name:    "duplicate instance key",
			body:    "a: primitives.pass\nb: primitives.pass\na: primitives.narrow",
			line:    4,
			wantErr: kdesign.ErrDuplicateKey,
		},
		{
			name:    "this is reserved",
			body:    "this: primitives.pass",
			line:    2,
			wantErr: kdesign.ErrDuplicateKey,
		},
		{
			name:    "unknown streamlet",
			body:    "a: primitives.ghost",
			line:    2,
			wantErr: kdesign.ErrNotFound,
		},
		{
			name:    "unknown library",
			body:    "a: ghosts.pass",
			line:    2,
			wantErr: kdesign.ErrNotFound,
		},
		{
			name:    "unknown interface",
			body:    "a: primitives.pass\na.data <= this.in",
			line:    3,
			wantErr: kdesign.ErrNotFound,
		},
		{
			name:    "concrete types differ",
			body:    "n: primitives.narrow\nn.in <= this.in",
			line:    3,
			wantErr: kdesign.ErrTypeMismatch,
		},
		{
			name:    "two inputs",
			body:    "a: primitives.pass\na.in <= this.out",
			line:    3,
			wantErr: kdesign.ErrInvalidArgument,
		},
		{
			name:    "interface used twice",
			body:    "a: primitives.pass\nb: primitives.pass\na.in <= this.in\nb.in <= this.in",
			line:    0,
			wantErr: kdesign.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, testProject(t), "compositions.top {\n"+tt.body+"\n}")
			assert.True(t, errors.Is(err, tt.wantErr))
			line, ok := Line(err)
			if tt.line == 0 {
				assert.False(t, ok)
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tt.line, line)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{name: "missing body", input: "compositions.top", line: 1},
		{name: "bad connection", input: "compositions.top {\n  a: primitives.pass\n  a.in <= <= this.in\n}", line: 3},
		{name: "unknown pattern", input: "compositions.top {\n\n  m: filter(op: primitives.pass)\n}", line: 3},
		{name: "unterminated", input: "compositions.top {\n  a: primitives.pass\n", line: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewImplParser(testProject(t), tt.input)
			assert.True(t, errors.Is(err, ErrParse))

			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
		})
	}

	t.Run("unknown implemented streamlet", func(t *testing.T) {
		_, err := NewImplParser(testProject(t), "compositions.ghost {}")
		assert.True(t, errors.Is(err, kdesign.ErrNotFound))
		line, ok := Line(err)
		assert.True(t, ok)
		assert.Equal(t, 1, line)
	})
}

func TestMapPattern(t *testing.T) {
	p := testProject(t)
	g, err := parse(t, p, readTestdata(t, "map.impl"))
	assert.NoError(t, err)
	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, []string{"this.in -> m.in", "m.out -> buf.in", "buf.out -> this.out"}, edgeStrings(g))

	m, err := g.Node("m")
	assert.NoError(t, err)
	assert.Equal(t, kdesign.KindGenerated, m.Component().Kind())
	gen, ok := m.Component().(*kdesign.Generated)
	assert.True(t, ok)
	assert.Equal(t, kdesign.MustStreamletHandle(string(kdesign.GeneratedLibrary), "compositions_nested_top_m_map"), gen.Handle())

	buf, err := g.Node("buf")
	assert.NoError(t, err)
	out, err := buf.Interface("out")
	assert.NoError(t, err)
	assert.True(t, ktype.MustParse("Stream<Bits<16>, d=1>").Equal(out.Type()))

	impl, err := p.Implementation(gen.Handle())
	assert.NoError(t, err)
	inner, ok := impl.Graph()
	assert.True(t, ok)
	assert.Equal(t, 4, inner.NodeCount())
	assert.Equal(t, 5, inner.EdgeCount())

	assert.Equal(t, 2, len(p.UserLibraries()))
	assert.Equal(t, 3, len(p.Libraries()))
}

func TestNestedPatterns(t *testing.T) {
	p := testProject(t)
	lib, err := p.Library("compositions")
	assert.NoError(t, err)
	_, err = lib.AddStreamlet(kdesign.MustStreamlet("deep",
		kdesign.MustParseInterface("in: in Stream<Bits<32>, d=2>"),
		kdesign.MustParseInterface("out: out Stream<Bits<16>, d=2>"),
	))
	assert.NoError(t, err)

	g, err := parse(t, p, `compositions.deep {
		outer: map(inner: map(op: primitives.sqrt))
		this <=> outer <=> this
	}`)
	assert.NoError(t, err)
	assert.Equal(t, 2, g.EdgeCount())

	gen, err := p.Library(kdesign.GeneratedLibrary)
	assert.NoError(t, err)
	for _, name := range []kdesign.StreamletKey{"compositions_deep_outer_map", "compositions_deep_outer_inner_map"} {
		_, err := gen.Streamlet(name)
		assert.NoError(t, err)
	}

	t.Run("flat node sharing the nested path", func(t *testing.T) {
		p := testProject(t)
		lib, err := p.Library("compositions")
		assert.NoError(t, err)
		_, err = lib.AddStreamlet(kdesign.MustStreamlet("deep",
			kdesign.MustParseInterface("in: in Stream<Bits<32>, d=2>"),
			kdesign.MustParseInterface("out: out Stream<Bits<16>, d=2>"),
		))
		assert.NoError(t, err)

		g, err := parse(t, p, `compositions.deep {
			outer: map(inner: map(op: primitives.sqrt))
			outer_inner: map(op: primitives.sqrt)
			this <=> outer <=> this
		}`)
		assert.NoError(t, err)

		nested, err := g.Node("outer")
		assert.NoError(t, err)
		flat, err := g.Node("outer_inner")
		assert.NoError(t, err)
		flatGen, ok := flat.Component().(*kdesign.Generated)
		assert.True(t, ok)
		assert.Equal(t, kdesign.StreamletKey("compositions_deep_outer_inner_map_1"), flatGen.Handle().Streamlet)

		outerImpl, err := p.Implementation(nested.Component().(*kdesign.Generated).Handle())
		assert.NoError(t, err)
		outerGraph, _ := outerImpl.Graph()
		inner, err := outerGraph.Node("inner")
		assert.NoError(t, err)
		innerGen, ok := inner.Component().(*kdesign.Generated)
		assert.True(t, ok)
		assert.Equal(t, kdesign.StreamletKey("compositions_deep_outer_inner_map"), innerGen.Handle().Streamlet)

		gen, err := p.Library(kdesign.GeneratedLibrary)
		assert.NoError(t, err)
		for _, name := range []kdesign.StreamletKey{
			"compositions_deep_outer_inner_map",
			"compositions_deep_outer_inner_map_flatten",
			"compositions_deep_outer_inner_map_1",
			"compositions_deep_outer_inner_map_1_flatten",
			"compositions_deep_outer_inner_map_1_sequence",
		} {
			_, err := gen.Streamlet(name)
			assert.NoError(t, err, "%s", name)
		}
	})
}

func TestReducePattern(t *testing.T) {
	p := testProject(t)
	lib, err := p.Library("compositions")
	assert.NoError(t, err)
	_, err = lib.AddStreamlet(kdesign.MustStreamlet("summary",
		kdesign.MustParseInterface("in: in Stream<Bits<32>, d=1>"),
		kdesign.MustParseInterface("out: out Stream<Bits<16>, d=1>"),
	))
	assert.NoError(t, err)

	g, err := parse(t, p, `compositions.summary {
		r: reduce(op: primitives.sqrt)
		r.in <= this.in
		this.out <= r.out
	}`)
	assert.NoError(t, err)

	r, err := g.Node("r")
	assert.NoError(t, err)
	out, err := r.Interface("out")
	assert.NoError(t, err)
	assert.False(t, out.Pending())
	assert.True(t, ktype.MustParse("Stream<Bits<16>, d=1>").Equal(out.Type()))

	impl := r.Component().Implementation()
	assert.NotZero(t, impl)
	assert.Equal(t, kdesign.BackendKind, impl.Kind())
}

func TestImplement(t *testing.T) {
	p := testProject(t)
	h, err := Implement(p, readTestdata(t, "chain.impl"), WithFilename("chain.impl"))
	assert.NoError(t, err)
	assert.Equal(t, kdesign.MustStreamletHandle("compositions", "top"), h)

	impl, err := p.Implementation(h)
	assert.NoError(t, err)
	assert.Equal(t, h, impl.Streamlet())

	_, err = Implement(p, readTestdata(t, "chain.impl"))
	assert.True(t, errors.Is(err, kdesign.ErrImplementationAttached))
}

func TestImplementRetry(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		line    int
	}{
		{
			name:    "unknown node after pattern",
			input:   "compositions.nested_top {\n  m: map(op: primitives.sqrt)\n  m.in <= this.in\n  this.out <= ghost.out\n}",
			wantErr: kdesign.ErrNotFound,
			line:    4,
		},
		{
			name:    "duplicate node after nested pattern",
			input:   "compositions.nested_top {\n  m: map(op: primitives.sqrt)\n  m: primitives.any\n}",
			wantErr: kdesign.ErrDuplicateKey,
			line:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProject(t)
			_, err := Implement(p, tt.input)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			line, ok := Line(err)
			assert.True(t, ok)
			assert.Equal(t, tt.line, line)

			_, err = p.Library(kdesign.GeneratedLibrary)
			assert.True(t, errors.Is(err, kdesign.ErrNotFound))
			_, err = p.Implementation(kdesign.MustStreamletHandle("compositions", "nested_top"))
			assert.True(t, errors.Is(err, kdesign.ErrNotFound))

			h, err := Implement(p, readTestdata(t, "map.impl"))
			assert.NoError(t, err)
			assert.Equal(t, kdesign.MustStreamletHandle("compositions", "nested_top"), h)

			gen, err := p.Library(kdesign.GeneratedLibrary)
			assert.NoError(t, err)
			assert.Equal(t, 3, gen.Len())
			_, err = gen.Streamlet("compositions_nested_top_m_map")
			assert.NoError(t, err)
		})
	}
}

func TestGeneratedLibraryOption(t *testing.T) {
	p := testProject(t)
	_, err := Implement(p, readTestdata(t, "map.impl"), WithGeneratedLibrary("synth"))
	assert.NoError(t, err)

	_, err = p.Library("synth")
	assert.NoError(t, err)
	_, err = p.Library(kdesign.GeneratedLibrary)
	assert.True(t, errors.Is(err, kdesign.ErrNotFound))
}

func TestTransformTwice(t *testing.T) {
	ip, err := NewImplParser(testProject(t), "compositions.top {}")
	assert.NoError(t, err)
	assert.NoError(t, ip.Transform())
	assert.True(t, errors.Is(ip.Transform(), ErrTransformed))
	assert.True(t, ip.This().IsThis())
}
