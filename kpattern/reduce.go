package kpattern

import (
	"fmt"

	"github.com/birdayz/tydi/kdesign"
	"github.com/birdayz/tydi/ktype"
)

// ReduceStream is a streamlet that accumulates an operator over one sequence
// level. Its "in" interface is the operator's input with dimensionality
// incremented by one. Its "out" interface is pending until connected: the
// peer must be a stream carrying the operator's output data, and the output
// resolves to the operator's output stream one level deeper.
type ReduceStream struct {
	streamlet *kdesign.Streamlet
	operator  kdesign.StreamletHandle
}

// NewReduceStream resolves op and derives the reduce streamlet from it.
func NewReduceStream(r kdesign.Resolver, name string, op kdesign.StreamletHandle) (*ReduceStream, error) {
	opStreamlet, err := r.Streamlet(op)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", PatternReduce, name, err)
	}
	in, out, err := streamPair(opStreamlet, PatternReduce)
	if err != nil {
		return nil, err
	}

	inIF, err := kdesign.NewInterface("in", kdesign.In, in.WithDimensionality(in.Dimensionality+1))
	if err != nil {
		return nil, err
	}
	outIF, err := kdesign.NewInferredInterface("out", kdesign.Out, reduceRule(out))
	if err != nil {
		return nil, err
	}
	s, err := kdesign.NewStreamlet(name, inIF, outIF)
	if err != nil {
		return nil, err
	}
	return &ReduceStream{streamlet: s, operator: op}, nil
}

func reduceRule(out ktype.Stream) kdesign.InferenceRule {
	return func(proposed ktype.Type) (ktype.Type, error) {
		peer, err := ktype.AsStream(proposed)
		if err != nil {
			return nil, fmt.Errorf("data type for %s required to be Stream: %w", PatternReduce, err)
		}
		if !peer.Data.Equal(out.Data) {
			return nil, fmt.Errorf("%s output carries %s, peer expects %s", PatternReduce, out.Data, peer.Data)
		}
		return out.WithDimensionality(out.Dimensionality + 1), nil
	}
}

func (r *ReduceStream) Streamlet() *kdesign.Streamlet     { return r.streamlet }
func (r *ReduceStream) Operator() kdesign.StreamletHandle { return r.operator }

// WithBackend registers the reduce in the generated library and binds it to
// the "reduce" backend.
func (r *ReduceStream) WithBackend(s *kdesign.Session) (*kdesign.Generated, error) {
	return bindBackend(s, r.streamlet, PatternReduce)
}
