// Package kpattern synthesizes streamlets from parametrized patterns.
//
// A pattern takes a user streamlet (the operator) or a type and derives a new
// streamlet from it:
//
//   - MapStream and MapPattern apply an operator to every element of one
//     additional sequence level
//   - ReduceStream accumulates an operator over one sequence level, with an
//     output type that is inferred when the output is connected
//   - GroupSplit exposes selected fields of a composite stream as separate
//     outputs
//   - StreamFIFO and StreamSync are pass-through primitives
//
// Synthesized streamlets are registered through a kdesign.Session. They
// resolve through the session at once and join the project's generated
// library when the session commits.
package kpattern
