// Package ktype implements the logical stream types carried by streamlet
// interfaces.
//
// The composer treats a logical type as an opaque value. It only needs four
// capabilities from it:
//
//   - structural equality (Equal)
//   - a reversed form (Reversed)
//   - splitting a composite type into named sub-items (Split)
//   - a placeholder value for types that are not known yet (Unknown), which an
//     interface resolves later from a connected peer
//
// Types can be written in a small expression language:
//
//	Null
//	Bits<32>
//	Group<size: Bits<32>, elem: Stream<Bits<8>>>
//	Union<a: Bits<8>, b: Null>
//	Stream<Bits<32>, d=1, c=4, r, u=Bits<2>>
//
// Stream parameters are d (dimensionality), c (complexity), r (reverse
// direction) and u (user type). Parse turns such an expression into a Type and
// Type.String produces the canonical form back.
package ktype
