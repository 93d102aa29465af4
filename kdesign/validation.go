package kdesign

import (
	"fmt"

	"go.uber.org/multierr"
)

// Validate checks the structural invariants of the graph and returns all
// violations.
//
// Checks performed:
//   - the This node exists
//   - every edge endpoint names an existing node and interface
//   - every edge runs from an output to an input in the graph view
//   - no interface is an endpoint of more than one edge
//
// Types are not compared; that happens when edges are linked.
func (g *ImplementationGraph) Validate() error {
	var errs error

	if _, ok := g.nodes[This]; !ok {
		errs = multierr.Append(errs, fmt.Errorf("%w: node %s", ErrNotFound, This))
	}

	used := make(map[NodeIFHandle]Edge, 2*len(g.edges))
	for _, e := range g.edges {
		errs = multierr.Append(errs, g.validateEdge(e))

		for _, h := range [...]NodeIFHandle{e.Source, e.Sink} {
			if prev, dup := used[h]; dup {
				errs = multierr.Append(errs, fmt.Errorf("%w: interface %s is used by %s and %s", ErrInvalidArgument, h, prev, e))
				continue
			}
			used[h] = e
		}
	}

	return errs
}

func (g *ImplementationGraph) validateEdge(e Edge) error {
	src, err := g.viewInterface(e.Source)
	if err != nil {
		return fmt.Errorf("edge %s: %w", e, err)
	}
	snk, err := g.viewInterface(e.Sink)
	if err != nil {
		return fmt.Errorf("edge %s: %w", e, err)
	}
	if src.Mode() != Out || snk.Mode() != In {
		return fmt.Errorf("%w: edge %s runs from %s to %s", ErrInvalidArgument, e, src.Mode(), snk.Mode())
	}
	return nil
}

func (g *ImplementationGraph) viewInterface(h NodeIFHandle) (Interface, error) {
	n, err := g.Node(h.Node)
	if err != nil {
		return Interface{}, err
	}
	return n.Interface(h.Interface)
}

// Unconnected returns the handles of all interfaces that are not an endpoint
// of any edge, in node order.
func (g *ImplementationGraph) Unconnected() []NodeIFHandle {
	used := make(map[NodeIFHandle]struct{}, 2*len(g.edges))
	for _, e := range g.edges {
		used[e.Source] = struct{}{}
		used[e.Sink] = struct{}{}
	}

	var out []NodeIFHandle
	for n := range g.Nodes() {
		for i := range n.Interfaces() {
			h := NodeIFHandle{Node: n.key, Interface: i.Key()}
			if _, ok := used[h]; !ok {
				out = append(out, h)
			}
		}
	}
	return out
}
