package kpattern

import (
	"fmt"
	"strings"

	"github.com/birdayz/tydi/kdesign"
	"github.com/birdayz/tydi/ktype"
)

// GroupSplit exposes fields of a composite input as separate outputs. The
// streamlet has an "in" interface of the input's type followed by one output
// per requested path, keyed by the path segments joined with underscores.
type GroupSplit struct {
	streamlet *kdesign.Streamlet
}

// NewGroupSplit locates every path in the type of input. A path that does not
// exist fails with kdesign.ErrNotFound.
func NewGroupSplit(name string, input kdesign.Interface, paths ...ktype.PathName) (*GroupSplit, error) {
	if input.Pending() {
		return nil, fmt.Errorf("%w: split %s: input %s has no type yet", kdesign.ErrInvalidArgument, name, input.Key())
	}

	in, err := kdesign.NewInterface("in", kdesign.In, input.Type())
	if err != nil {
		return nil, err
	}
	ifaces := []kdesign.Interface{in}

	for _, path := range paths {
		item, ok := ktype.Locate(input.Type(), path)
		if !ok {
			return nil, fmt.Errorf("%w: element %s does not exist in interface %s", kdesign.ErrNotFound, path, input.Key())
		}
		out, err := kdesign.NewInterface(strings.Join(path, "_"), kdesign.Out, item.Type)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", name, err)
		}
		ifaces = append(ifaces, out)
	}

	s, err := kdesign.NewStreamlet(name, ifaces...)
	if err != nil {
		return nil, err
	}
	return &GroupSplit{streamlet: s}, nil
}

func (g *GroupSplit) Streamlet() *kdesign.Streamlet { return g.streamlet }

// WithBackend registers the split in the generated library and binds it to
// the "split" backend.
func (g *GroupSplit) WithBackend(s *kdesign.Session) (*kdesign.Generated, error) {
	return bindBackend(s, g.streamlet, PatternSplit)
}
