package kdesign

import (
	"fmt"

	"github.com/go-logr/logr"
)

// assembly holds the graph under construction. It backs both builders.
type assembly struct {
	graph    *ImplementationGraph
	log      logr.Logger
	finished bool
}

func newAssembly(handle StreamletHandle, def *Streamlet, c config) *assembly {
	a := &assembly{
		graph: &ImplementationGraph{
			streamlet: handle,
			nodes:     make(map[NodeKey]*Node),
		},
		log: c.log.WithValues("streamlet", handle.String()),
	}
	a.graph.nodes[This] = newNode(This, def.Clone(def.Key()))
	a.graph.order = append(a.graph.order, This)
	return a
}

// This returns the boundary node.
func (a *assembly) This() *Node {
	return a.graph.This()
}

// Node returns the node with the given key.
func (a *assembly) Node(key NodeKey) (*Node, error) {
	return a.graph.Node(key)
}

func (a *assembly) check() error {
	if a.finished {
		return fmt.Errorf("%w: %s", ErrBuilderFinished, a.graph.streamlet)
	}
	return nil
}

// insert adds c under key. c is cloned so inference on the node never reaches
// the registry or sibling instances.
func (a *assembly) insert(key string, c Component) (*Node, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: nil component for node %q", ErrInvalidArgument, key)
	}
	k, err := NewName(key)
	if err != nil {
		return nil, fmt.Errorf("node key: %w", err)
	}
	if k == This {
		return nil, fmt.Errorf("%w: node key %s is reserved", ErrDuplicateKey, This)
	}
	if _, exists := a.graph.nodes[k]; exists {
		return nil, fmt.Errorf("%w: node %s in %s", ErrDuplicateKey, k, a.graph.streamlet)
	}

	n := newNode(k, c.clone(k))
	a.graph.nodes[k] = n
	a.graph.order = append(a.graph.order, k)
	a.log.V(1).Info("Instantiated node", "node", k.String(), "kind", c.Kind().String())
	return n, nil
}

type endpoint struct {
	node   *Node
	handle NodeIFHandle
	iface  Interface
}

func (a *assembly) endpoint(h NodeIFHandle) (endpoint, error) {
	n, err := a.graph.Node(h.Node)
	if err != nil {
		return endpoint{}, err
	}
	i, err := n.Interface(h.Interface)
	if err != nil {
		return endpoint{}, err
	}
	return endpoint{node: n, handle: h, iface: i}, nil
}

// orient resolves both handles and orders them so the first is the source
// (Out in the graph view) and the second the sink.
func (a *assembly) orient(x, y NodeIFHandle) (src, snk endpoint, err error) {
	if src, err = a.endpoint(x); err != nil {
		return
	}
	if snk, err = a.endpoint(y); err != nil {
		return
	}
	switch {
	case src.iface.Mode() == Out && snk.iface.Mode() == In:
	case src.iface.Mode() == In && snk.iface.Mode() == Out:
		src, snk = snk, src
	default:
		err = fmt.Errorf("%w: cannot connect %s (%s) to %s (%s), need one output and one input",
			ErrInvalidArgument, x, src.iface.Mode(), y, snk.iface.Mode())
	}
	return
}

func (a *assembly) appendEdge(src, snk NodeIFHandle) Edge {
	e := Edge{Source: src, Sink: snk}
	a.graph.edges = append(a.graph.edges, e)
	a.log.V(1).Info("Connected", "source", src.String(), "sink", snk.String())
	return e
}

// Connect adds an edge between two ports. Either port may carry a lookup
// error, which is returned unchanged. Connect checks that the ports exist and
// that exactly one of them is an output in the graph view; it does not infer
// or compare types.
func (a *assembly) Connect(source, sink Port) (Edge, error) {
	if err := a.check(); err != nil {
		return Edge{}, err
	}
	if err := source.Err(); err != nil {
		return Edge{}, err
	}
	if err := sink.Err(); err != nil {
		return Edge{}, err
	}
	src, snk, err := a.orient(source.Handle(), sink.Handle())
	if err != nil {
		return Edge{}, err
	}
	return a.appendEdge(src.handle, snk.handle), nil
}

// Link connects x and y like Connect, and first runs type inference in both
// directions: each endpoint is offered the type the other held before the
// call. Either side may still be pending. If both end up concrete they must
// be equal.
func (a *assembly) Link(x, y NodeIFHandle) (Edge, error) {
	if err := a.check(); err != nil {
		return Edge{}, err
	}
	src, snk, err := a.orient(x, y)
	if err != nil {
		return Edge{}, err
	}

	if err := a.infer(src, snk); err != nil {
		// Nothing is inferred unless the edge is added.
		src.node.restore(src.iface)
		snk.node.restore(snk.iface)
		return Edge{}, fmt.Errorf("connect %s to %s: %w", src.handle, snk.handle, err)
	}
	return a.appendEdge(src.handle, snk.handle), nil
}

func (a *assembly) infer(src, snk endpoint) error {
	if err := src.node.inferType(src.handle.Interface, snk.iface.Type()); err != nil {
		return err
	}
	if err := snk.node.inferType(snk.handle.Interface, src.iface.Type()); err != nil {
		return err
	}

	srcIF, err := src.node.Interface(src.handle.Interface)
	if err != nil {
		return err
	}
	snkIF, err := snk.node.Interface(snk.handle.Interface)
	if err != nil {
		return err
	}
	if !srcIF.Pending() && !snkIF.Pending() && !srcIF.Type().Equal(snkIF.Type()) {
		return fmt.Errorf("%w: %s is %s, %s is %s", ErrTypeMismatch, src.handle, srcIF.Type(), snk.handle, snkIF.Type())
	}
	return nil
}

// Finish validates the graph and returns it. The builder cannot be used
// afterwards.
func (a *assembly) Finish() (*ImplementationGraph, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	if err := a.graph.Validate(); err != nil {
		return nil, fmt.Errorf("graph of %s: %w", a.graph.streamlet, err)
	}
	for _, h := range a.graph.Unconnected() {
		a.log.V(1).Info("Interface not connected", "interface", h.String())
	}
	a.finished = true
	a.log.Info("Finished implementation graph", "nodes", a.graph.NodeCount(), "edges", a.graph.EdgeCount())
	return a.graph, nil
}

// GraphBuilder builds the implementation graph of a streamlet registered in a
// project, resolving instantiated streamlets through the same resolver.
//
// GraphBuilder is NOT safe for concurrent use.
type GraphBuilder struct {
	*assembly
	resolver Resolver
}

// NewGraphBuilder resolves handle and seeds the graph with its This node.
func NewGraphBuilder(r Resolver, handle StreamletHandle, opts ...Option) (*GraphBuilder, error) {
	def, err := r.Streamlet(handle)
	if err != nil {
		return nil, err
	}
	return &GraphBuilder{
		assembly: newAssembly(handle, def, newConfig(opts)),
		resolver: r,
	}, nil
}

// Instantiate resolves handle and adds a copy of it as node key.
func (b *GraphBuilder) Instantiate(handle StreamletHandle, key string) (*Node, error) {
	s, err := b.resolver.Streamlet(handle)
	if err != nil {
		return nil, err
	}
	return b.insert(key, s)
}

// AddComponent adds a copy of c as node key.
func (b *GraphBuilder) AddComponent(key string, c Component) (*Node, error) {
	return b.insert(key, c)
}

// BasicGraphBuilder builds a graph from streamlet values without a project.
// Patterns use it for the internal structure of the streamlets they generate.
//
// BasicGraphBuilder is NOT safe for concurrent use.
type BasicGraphBuilder struct {
	*assembly
}

// NewBasicGraphBuilder seeds a graph for s, which is registered under handle.
func NewBasicGraphBuilder(s *Streamlet, handle StreamletHandle, opts ...Option) (*BasicGraphBuilder, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil streamlet for %s", ErrInvalidArgument, handle)
	}
	return &BasicGraphBuilder{assembly: newAssembly(handle, s, newConfig(opts))}, nil
}

// Instantiate adds a copy of c as node key.
func (b *BasicGraphBuilder) Instantiate(c Component, key string) (*Node, error) {
	return b.insert(key, c)
}

// NodeSpec names a component to instantiate.
type NodeSpec struct {
	Key       string
	Component Component
}

// AppendNodes instantiates every spec in order, stopping at the first error.
func (b *BasicGraphBuilder) AppendNodes(specs ...NodeSpec) error {
	for _, s := range specs {
		if _, err := b.insert(s.Key, s.Component); err != nil {
			return err
		}
	}
	return nil
}

// AppendEdges connects every edge in order, stopping at the first error.
func (b *BasicGraphBuilder) AppendEdges(edges ...Edge) error {
	for _, e := range edges {
		if _, err := b.Connect(PortOf(e.Source), PortOf(e.Sink)); err != nil {
			return err
		}
	}
	return nil
}
