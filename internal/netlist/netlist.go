// Package netlist renders projects and their implementation graphs as YAML
// listings.
package netlist

import (
	"fmt"
	"io"

	"github.com/birdayz/tydi/kdesign"
	"gopkg.in/yaml.v3"
)

type Listing struct {
	Project   string    `yaml:"project"`
	Libraries []Library `yaml:"libraries"`
}

type Library struct {
	Name       string      `yaml:"name"`
	Streamlets []Streamlet `yaml:"streamlets"`
}

type Streamlet struct {
	Name           string          `yaml:"name"`
	Doc            string          `yaml:"doc,omitempty"`
	Interfaces     []Interface     `yaml:"interfaces"`
	Implementation *Implementation `yaml:"implementation,omitempty"`
}

type Interface struct {
	Name string `yaml:"name"`
	Mode string `yaml:"mode"`
	Type string `yaml:"type"`
}

// Implementation lists either a structural graph or the backend a streamlet
// is bound to.
type Implementation struct {
	Kind    string `yaml:"kind"`
	Backend string `yaml:"backend,omitempty"`
	Nodes   []Node `yaml:"nodes,omitempty"`
	Edges   []Edge `yaml:"edges,omitempty"`
}

// Node lists interfaces as seen from inside the graph, so the boundary node
// shows reversed modes.
type Node struct {
	Name       string      `yaml:"name"`
	Kind       string      `yaml:"kind"`
	Pattern    string      `yaml:"pattern,omitempty"`
	Streamlet  string      `yaml:"streamlet,omitempty"`
	Interfaces []Interface `yaml:"interfaces"`
}

type Edge struct {
	Source string `yaml:"source"`
	Sink   string `yaml:"sink"`
}

type options struct {
	generated bool
}

type Option func(*options)

// WithGenerated includes libraries created by pattern expansion.
var WithGenerated = func() Option {
	return func(o *options) {
		o.generated = true
	}
}

// FromProject lists the libraries of p in key order. The generated library is
// left out unless WithGenerated is given.
func FromProject(p *kdesign.Project, opts ...Option) Listing {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	libs := p.UserLibraries()
	if o.generated {
		libs = p.Libraries()
	}

	l := Listing{
		Project:   p.Name().String(),
		Libraries: make([]Library, 0, len(libs)),
	}
	for _, lib := range libs {
		l.Libraries = append(l.Libraries, fromLibrary(lib))
	}
	return l
}

func fromLibrary(lib *kdesign.Library) Library {
	streamlets := lib.Streamlets()
	out := Library{
		Name:       lib.Key().String(),
		Streamlets: make([]Streamlet, 0, len(streamlets)),
	}
	for _, s := range streamlets {
		out.Streamlets = append(out.Streamlets, FromStreamlet(s))
	}
	return out
}

// FromStreamlet lists s and, if attached, its implementation.
func FromStreamlet(s *kdesign.Streamlet) Streamlet {
	out := Streamlet{
		Name: s.Key().String(),
		Doc:  s.Doc(),
	}
	for i := range s.Interfaces() {
		out.Interfaces = append(out.Interfaces, fromInterface(i))
	}
	if impl := s.Implementation(); impl != nil {
		li := FromImplementation(impl)
		out.Implementation = &li
	}
	return out
}

func FromImplementation(impl *kdesign.Implementation) Implementation {
	if g, ok := impl.Graph(); ok {
		return FromGraph(g)
	}
	out := Implementation{Kind: impl.Kind().String()}
	if b, ok := impl.Backend(); ok {
		out.Backend = b.Name().String()
	}
	return out
}

// FromGraph lists nodes in insertion order and edges in creation order.
func FromGraph(g *kdesign.ImplementationGraph) Implementation {
	out := Implementation{
		Kind:  kdesign.Structural.String(),
		Nodes: make([]Node, 0, g.NodeCount()),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for n := range g.Nodes() {
		out.Nodes = append(out.Nodes, fromNode(n))
	}
	for e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{Source: e.Source.String(), Sink: e.Sink.String()})
	}
	return out
}

func fromNode(n *kdesign.Node) Node {
	out := Node{
		Name: n.Key().String(),
		Kind: n.Component().Kind().String(),
	}
	if gen, ok := n.Component().(*kdesign.Generated); ok {
		out.Pattern = gen.Pattern()
		out.Streamlet = gen.Handle().String()
	}
	for i := range n.Interfaces() {
		out.Interfaces = append(out.Interfaces, fromInterface(i))
	}
	return out
}

func fromInterface(i kdesign.Interface) Interface {
	return Interface{
		Name: i.Key().String(),
		Mode: i.Mode().String(),
		Type: i.Type().String(),
	}
}

// Write encodes v, usually a Listing, as YAML.
func Write(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	return enc.Close()
}
