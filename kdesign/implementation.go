package kdesign

import "fmt"

// ImplementationKind tells how a streamlet is realised.
type ImplementationKind int

const (
	// Structural implementations are composed from sub-nodes.
	Structural ImplementationKind = iota
	// BackendKind implementations are delegated to an external generator.
	BackendKind
)

func (k ImplementationKind) String() string {
	switch k {
	case Structural:
		return "Structural"
	case BackendKind:
		return "Backend"
	default:
		return "Unknown"
	}
}

// Backend binds a streamlet to an external code generator.
type Backend interface {
	// Name identifies the generator, e.g. "map" or "fifo".
	Name() Name
	// Streamlet is the streamlet the backend implements.
	Streamlet() StreamletHandle
}

// Implementation is either a Structural graph or a Backend binding.
type Implementation struct {
	kind    ImplementationKind
	graph   *ImplementationGraph
	backend Backend
}

// NewStructural wraps a finished graph.
func NewStructural(g *ImplementationGraph) *Implementation {
	return &Implementation{kind: Structural, graph: g}
}

// NewBackendImplementation wraps a backend binding.
func NewBackendImplementation(b Backend) *Implementation {
	return &Implementation{kind: BackendKind, backend: b}
}

func (i *Implementation) Kind() ImplementationKind { return i.kind }

// Graph returns the graph of a Structural implementation.
func (i *Implementation) Graph() (*ImplementationGraph, bool) {
	return i.graph, i.kind == Structural && i.graph != nil
}

// Backend returns the binding of a Backend implementation.
func (i *Implementation) Backend() (Backend, bool) {
	return i.backend, i.kind == BackendKind && i.backend != nil
}

// Streamlet returns the handle of the implemented streamlet.
func (i *Implementation) Streamlet() StreamletHandle {
	switch i.kind {
	case Structural:
		if i.graph != nil {
			return i.graph.Streamlet()
		}
	case BackendKind:
		if i.backend != nil {
			return i.backend.Streamlet()
		}
	}
	return StreamletHandle{}
}

func (i *Implementation) String() string {
	return fmt.Sprintf("%s(%s)", i.kind, i.Streamlet())
}

// ExternalBackend is a Backend that only records the generator's name.
type ExternalBackend struct {
	name      Name
	streamlet StreamletHandle
}

// NewExternalBackend returns a binding of streamlet to the named generator.
func NewExternalBackend(name Name, streamlet StreamletHandle) *ExternalBackend {
	return &ExternalBackend{name: name, streamlet: streamlet}
}

func (b *ExternalBackend) Name() Name                 { return b.name }
func (b *ExternalBackend) Streamlet() StreamletHandle { return b.streamlet }
