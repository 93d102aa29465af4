package kdesign

import "iter"

// ComponentKind enumerates the closed set of Component implementations.
type ComponentKind int

const (
	KindStreamlet ComponentKind = iota
	KindGenerated
)

func (k ComponentKind) String() string {
	switch k {
	case KindStreamlet:
		return "Streamlet"
	case KindGenerated:
		return "Generated"
	default:
		return "Unknown"
	}
}

// Component is what a graph node instantiates: either a *Streamlet or a
// *Generated pattern component. Backends only need this capability.
type Component interface {
	Key() Name
	Kind() ComponentKind
	Interfaces() iter.Seq[Interface]
	Inputs() iter.Seq[Interface]
	Outputs() iter.Seq[Interface]
	Interface(key IFKey) (Interface, error)
	Implementation() *Implementation

	// Definition returns the streamlet describing the component's interfaces.
	Definition() *Streamlet

	clone(key Name) Component
}

func (s *Streamlet) Kind() ComponentKind    { return KindStreamlet }
func (s *Streamlet) Definition() *Streamlet { return s }

func (s *Streamlet) clone(key Name) Component {
	return s.Clone(key)
}

// Generated is a streamlet synthesized by a pattern.
type Generated struct {
	def     *Streamlet
	pattern string
	handle  StreamletHandle
}

// NewGenerated wraps def, registered under handle, as the output of pattern.
func NewGenerated(def *Streamlet, pattern string, handle StreamletHandle) *Generated {
	return &Generated{def: def, pattern: pattern, handle: handle}
}

func (g *Generated) Key() Name                              { return g.def.Key() }
func (g *Generated) Kind() ComponentKind                    { return KindGenerated }
func (g *Generated) Interfaces() iter.Seq[Interface]        { return g.def.Interfaces() }
func (g *Generated) Inputs() iter.Seq[Interface]            { return g.def.Inputs() }
func (g *Generated) Outputs() iter.Seq[Interface]           { return g.def.Outputs() }
func (g *Generated) Interface(key IFKey) (Interface, error) { return g.def.Interface(key) }
func (g *Generated) Implementation() *Implementation        { return g.def.Implementation() }
func (g *Generated) Definition() *Streamlet                 { return g.def }

// Pattern names the pattern that produced the component, e.g. "map".
func (g *Generated) Pattern() string { return g.pattern }

// Handle is where the generated streamlet is registered in the project.
func (g *Generated) Handle() StreamletHandle { return g.handle }

func (g *Generated) clone(key Name) Component {
	return &Generated{def: g.def.Clone(key), pattern: g.pattern, handle: g.handle}
}
