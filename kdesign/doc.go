// Package kdesign provides the entity model and the implementation graph of a
// streaming hardware design.
//
// # Overview
//
// A design is organised in a two-level namespace:
//
//   - **Project**: a set of uniquely keyed libraries
//   - **Library**: a set of uniquely keyed streamlets
//   - **Streamlet**: a component definition with an ordered set of directional,
//     typed interfaces and at most one attached implementation
//
// A StreamletHandle (library key + streamlet key) addresses a streamlet
// relative to one project.
//
// # Implementation Graphs
//
// A streamlet can be implemented structurally by an ImplementationGraph: a set
// of instance nodes and a list of edges between node interfaces. Every graph
// contains the reserved node "this", which represents the boundary of the
// streamlet being implemented. Interfaces read through the "this" node report
// the reversed mode, because a port that receives data from the outside acts
// as a data source inside the graph.
//
//	builder, err := kdesign.NewGraphBuilder(project, top)
//	if err != nil {
//	    return err
//	}
//	inst, err := builder.Instantiate(sqrt, "sqrt")
//	if err != nil {
//	    return err
//	}
//	if _, err := builder.Connect(builder.This().IO("in"), inst.IO("in")); err != nil {
//	    return err
//	}
//	graph, err := builder.Finish()
//
// Instantiation always clones the library streamlet into the node, so inferring
// a type on one instance never changes the library definition or any other
// instance.
//
// # Type Inference
//
// An interface may be declared with the placeholder type ktype.Unknown and an
// InferenceRule. Link connects two node interfaces and infers symmetrically:
// each endpoint is offered the other endpoint's type, so the pending side
// resolves regardless of wiring order. Two concrete types must be structurally
// equal.
//
// # Error Handling
//
// All failures wrap one of the sentinel errors (ErrNotFound, ErrDuplicateKey,
// ErrTypeMismatch, ErrInvalidArgument, ...) and can be checked with errors.Is.
// The only panic surface is ImplementationGraph.This, which relies on the
// invariant that every graph is constructed with a "this" node.
//
// # Thread Safety
//
// Builders, sessions and projects are NOT safe for concurrent use. A finished
// ImplementationGraph is read-only.
package kdesign
