package kpattern

import (
	"fmt"
	"strings"

	"github.com/birdayz/tydi/kdesign"
	"github.com/birdayz/tydi/ktype"
)

// MapStream is a streamlet that applies an operator to every element of one
// additional sequence level. Its "in" and "out" interfaces carry the
// operator's input and output streams with dimensionality incremented by one.
//
// MapStream has no internal structure. WithBackend delegates the expansion to
// a code generator; MapPattern builds it explicitly.
type MapStream struct {
	streamlet *kdesign.Streamlet
	operator  kdesign.StreamletHandle
}

// NewMapStream resolves op and derives the map streamlet name from it. The
// operator must have exactly one input and one output, both streams.
func NewMapStream(r kdesign.Resolver, name string, op kdesign.StreamletHandle) (*MapStream, error) {
	s, err := mapStreamlet(r, name, op, PatternMap)
	if err != nil {
		return nil, err
	}
	return &MapStream{streamlet: s, operator: op}, nil
}

func mapStreamlet(r kdesign.Resolver, name string, op kdesign.StreamletHandle, pattern string) (*kdesign.Streamlet, error) {
	opStreamlet, err := r.Streamlet(op)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", pattern, name, err)
	}
	in, out, err := streamPair(opStreamlet, pattern)
	if err != nil {
		return nil, err
	}

	inIF, err := kdesign.NewInterface("in", kdesign.In, in.WithDimensionality(in.Dimensionality+1))
	if err != nil {
		return nil, err
	}
	outIF, err := kdesign.NewInterface("out", kdesign.Out, out.WithDimensionality(out.Dimensionality+1))
	if err != nil {
		return nil, err
	}
	return kdesign.NewStreamlet(name, inIF, outIF)
}

func (m *MapStream) Streamlet() *kdesign.Streamlet     { return m.streamlet }
func (m *MapStream) Operator() kdesign.StreamletHandle { return m.operator }

// WithBackend registers the map in the generated library and binds it to the
// "map" backend.
func (m *MapStream) WithBackend(s *kdesign.Session) (*kdesign.Generated, error) {
	return bindBackend(s, m.streamlet, PatternMap)
}

// NewMapPattern builds a map over op with explicit internal structure:
//
//	this.in         -> flatten.in
//	flatten.count   -> sequence.count
//	flatten.element -> op.in
//	op.out          -> sequence.element
//	sequence.out    -> this.out
//
// The flatten and sequence adapters are generated streamlets bound to
// backends of the same name. The map, both adapters and the map's structural
// implementation are registered through s. The operator node is keyed opKey.
func NewMapPattern(s *kdesign.Session, name, opKey string, op kdesign.StreamletHandle, opts ...kdesign.Option) (*kdesign.Generated, error) {
	def, err := mapStreamlet(s, name, op, PatternMap)
	if err != nil {
		return nil, err
	}
	operator, err := s.Streamlet(op)
	if err != nil {
		return nil, err
	}
	in, out, err := streamPair(operator, PatternMap)
	if err != nil {
		return nil, err
	}

	flatten, err := newFlatten(s, name, in)
	if err != nil {
		return nil, err
	}
	sequence, err := newSequence(s, name, out)
	if err != nil {
		return nil, err
	}

	// The handle is known before registration because the generated library
	// key is fixed for the session.
	handle := kdesign.StreamletHandle{Lib: s.GeneratedLibrary(), Streamlet: def.Key()}
	b, err := kdesign.NewBasicGraphBuilder(def, handle, opts...)
	if err != nil {
		return nil, err
	}

	err = b.AppendNodes(
		kdesign.NodeSpec{Key: PatternFlatten, Component: flatten},
		kdesign.NodeSpec{Key: opKey, Component: componentFor(s, operator, op)},
		kdesign.NodeSpec{Key: PatternSequence, Component: sequence},
	)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", name, err)
	}

	opNode := kdesign.Name(opKey)
	opIn, opOut, err := soleHandles(operator, opNode)
	if err != nil {
		return nil, err
	}

	err = b.AppendEdges(
		edge(kdesign.This, "in", PatternFlatten, "in"),
		edge(PatternFlatten, "count", PatternSequence, "count"),
		kdesign.Edge{Source: kdesign.NodeIFHandle{Node: PatternFlatten, Interface: "element"}, Sink: opIn},
		kdesign.Edge{Source: opOut, Sink: kdesign.NodeIFHandle{Node: PatternSequence, Interface: "element"}},
		edge(PatternSequence, "out", kdesign.This, "out"),
	)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", name, err)
	}

	g, err := b.Finish()
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", name, err)
	}

	return register(s, def, PatternMap, func(kdesign.StreamletHandle) *kdesign.Implementation {
		return kdesign.NewStructural(g)
	})
}

func edge(srcNode, srcIF, snkNode, snkIF kdesign.Name) kdesign.Edge {
	return kdesign.Edge{
		Source: kdesign.NodeIFHandle{Node: srcNode, Interface: srcIF},
		Sink:   kdesign.NodeIFHandle{Node: snkNode, Interface: snkIF},
	}
}

func soleHandles(op *kdesign.Streamlet, node kdesign.NodeKey) (in, out kdesign.NodeIFHandle, err error) {
	inIF, err := soleOf(op, kdesign.In)
	if err != nil {
		return
	}
	outIF, err := soleOf(op, kdesign.Out)
	if err != nil {
		return
	}
	return kdesign.NodeIFHandle{Node: node, Interface: inIF.Key()},
		kdesign.NodeIFHandle{Node: node, Interface: outIF.Key()}, nil
}

// componentFor wraps op as a generated component when it was synthesized by
// an earlier pattern, so nested patterns keep their provenance.
func componentFor(s *kdesign.Session, op *kdesign.Streamlet, h kdesign.StreamletHandle) kdesign.Component {
	if h.Lib != s.GeneratedLibrary() {
		return op
	}
	pattern := string(op.Key())
	if i := strings.LastIndexByte(pattern, '_'); i >= 0 {
		pattern = pattern[i+1:]
	}
	if impl := op.Implementation(); impl != nil {
		if b, ok := impl.Backend(); ok {
			pattern = string(b.Name())
		}
	}
	return kdesign.NewGenerated(op, pattern, h)
}

// newFlatten registers the adapter splitting a nested stream into its elements
// and their count.
func newFlatten(s *kdesign.Session, name string, element ktype.Stream) (*kdesign.Generated, error) {
	st, err := kdesign.NewStreamlet(name+"_"+PatternFlatten,
		kdesign.MustInterface("in", kdesign.In, element.WithDimensionality(element.Dimensionality+1)),
		kdesign.MustInterface("count", kdesign.Out, CountType),
		kdesign.MustInterface("element", kdesign.Out, element),
	)
	if err != nil {
		return nil, err
	}
	return bindBackend(s, st, PatternFlatten)
}

// newSequence registers the adapter recombining elements and their count into
// a nested stream.
func newSequence(s *kdesign.Session, name string, element ktype.Stream) (*kdesign.Generated, error) {
	st, err := kdesign.NewStreamlet(name+"_"+PatternSequence,
		kdesign.MustInterface("count", kdesign.In, CountType),
		kdesign.MustInterface("element", kdesign.In, element),
		kdesign.MustInterface("out", kdesign.Out, element.WithDimensionality(element.Dimensionality+1)),
	)
	if err != nil {
		return nil, err
	}
	return bindBackend(s, st, PatternSequence)
}
