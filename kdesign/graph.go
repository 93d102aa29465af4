package kdesign

import (
	"fmt"
	"iter"
	"slices"

	"github.com/birdayz/tydi/ktype"
)

// NodeIFHandle addresses one interface of one node in a graph.
type NodeIFHandle struct {
	Node      NodeKey
	Interface IFKey
}

func (h NodeIFHandle) String() string {
	return string(h.Node) + "." + string(h.Interface)
}

// Edge connects a source interface to a sink interface.
type Edge struct {
	Source NodeIFHandle
	Sink   NodeIFHandle
}

func (e Edge) String() string {
	return e.Source.String() + " -> " + e.Sink.String()
}

// Touches reports whether h is either endpoint of e.
func (e Edge) Touches(h NodeIFHandle) bool {
	return e.Source == h || e.Sink == h
}

// Node is one instance of a component inside an ImplementationGraph.
//
// The node keyed This represents the enclosing streamlet itself. Seen from
// inside the graph its interface modes are reversed: the streamlet's inputs
// are sources for the sub-nodes and its outputs are sinks.
type Node struct {
	key       NodeKey
	component Component
}

func newNode(key NodeKey, c Component) *Node {
	return &Node{key: key, component: c}
}

func (n *Node) Key() NodeKey         { return n.key }
func (n *Node) Component() Component { return n.component }

// IsThis reports whether n is the boundary node.
func (n *Node) IsThis() bool {
	return n.key == This
}

func (n *Node) view(i Interface) Interface {
	if n.IsThis() {
		return i.Reversed()
	}
	return i
}

// Interface returns the interface with the given key as seen from inside the
// graph.
func (n *Node) Interface(key IFKey) (Interface, error) {
	i, err := n.component.Interface(key)
	if err != nil {
		return Interface{}, fmt.Errorf("node %s: %w", n.key, err)
	}
	return n.view(i), nil
}

// Interfaces yields all interfaces in the graph view.
func (n *Node) Interfaces() iter.Seq[Interface] {
	return func(yield func(Interface) bool) {
		for i := range n.component.Interfaces() {
			if !yield(n.view(i)) {
				return
			}
		}
	}
}

// Inputs yields the interfaces that are sinks in the graph view.
func (n *Node) Inputs() iter.Seq[Interface] {
	return filterMode(n.Interfaces(), In)
}

// Outputs yields the interfaces that are sources in the graph view.
func (n *Node) Outputs() iter.Seq[Interface] {
	return filterMode(n.Interfaces(), Out)
}

// SoleInput returns the only sink interface of n.
func (n *Node) SoleInput() (Interface, error) {
	return sole(n.Inputs(), n.key, "input")
}

// SoleOutput returns the only source interface of n.
func (n *Node) SoleOutput() (Interface, error) {
	return sole(n.Outputs(), n.key, "output")
}

// IO returns a Port for the interface with the given key. Lookup errors are
// carried by the Port and reported when it is connected.
func (n *Node) IO(key string) Port {
	k, err := NewName(key)
	if err != nil {
		return Port{err: fmt.Errorf("node %s: interface key: %w", n.key, err)}
	}
	if _, err := n.component.Interface(k); err != nil {
		return Port{err: fmt.Errorf("node %s: %w", n.key, err)}
	}
	return Port{handle: NodeIFHandle{Node: n.key, Interface: k}}
}

// Handle returns the handle of the interface with the given key.
func (n *Node) Handle(key IFKey) (NodeIFHandle, error) {
	if _, err := n.component.Interface(key); err != nil {
		return NodeIFHandle{}, fmt.Errorf("node %s: %w", n.key, err)
	}
	return NodeIFHandle{Node: n.key, Interface: key}, nil
}

func (n *Node) inferType(key IFKey, t ktype.Type) error {
	if err := n.component.Definition().inferType(key, t); err != nil {
		return fmt.Errorf("node %s: %w", n.key, err)
	}
	return nil
}

// restore puts back a previously read interface, undoing inference.
func (n *Node) restore(i Interface) {
	n.component.Definition().replace(i)
}

// Port is the result of looking up a node interface. It either holds a handle
// or the error that prevented the lookup, so lookups can be chained directly
// into Connect.
type Port struct {
	handle NodeIFHandle
	err    error
}

// PortOf wraps an already resolved handle.
func PortOf(h NodeIFHandle) Port {
	return Port{handle: h}
}

func (p Port) Handle() NodeIFHandle { return p.handle }
func (p Port) Err() error           { return p.err }

// ImplementationGraph is the structural implementation of a streamlet: a set of
// nodes, including This, and the edges between their interfaces. It is
// immutable once returned by a builder.
type ImplementationGraph struct {
	streamlet StreamletHandle
	nodes     map[NodeKey]*Node
	order     []NodeKey
	edges     []Edge
}

// Streamlet returns the handle of the implemented streamlet.
func (g *ImplementationGraph) Streamlet() StreamletHandle {
	return g.streamlet
}

// Nodes yields the nodes in insertion order, This first.
func (g *ImplementationGraph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, k := range g.order {
			if !yield(g.nodes[k]) {
				return
			}
		}
	}
}

// Edges yields the edges in insertion order.
func (g *ImplementationGraph) Edges() iter.Seq[Edge] {
	return slices.Values(g.edges)
}

func (g *ImplementationGraph) NodeCount() int { return len(g.order) }
func (g *ImplementationGraph) EdgeCount() int { return len(g.edges) }

// Node returns the node with the given key.
func (g *ImplementationGraph) Node(key NodeKey) (*Node, error) {
	n, ok := g.nodes[key]
	if !ok {
		return nil, fmt.Errorf("%w: node %s in %s", ErrNotFound, key, g.streamlet)
	}
	return n, nil
}

// Edge returns the first edge with h as either endpoint.
func (g *ImplementationGraph) Edge(h NodeIFHandle) (Edge, error) {
	for _, e := range g.edges {
		if e.Touches(h) {
			return e, nil
		}
	}
	return Edge{}, fmt.Errorf("%w: edge at %s in %s", ErrNotFound, h, g.streamlet)
}

// This returns the boundary node. Every graph produced by a builder has one.
func (g *ImplementationGraph) This() *Node {
	n, ok := g.nodes[This]
	if !ok {
		panic(fmt.Sprintf("implementation graph of %s has no %s node", g.streamlet, This))
	}
	return n
}
