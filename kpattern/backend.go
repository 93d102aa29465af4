package kpattern

import (
	"fmt"

	"github.com/birdayz/tydi/kdesign"
	"github.com/birdayz/tydi/ktype"
)

// Pattern names, also used as backend names.
const (
	PatternMap      = "map"
	PatternReduce   = "reduce"
	PatternSplit    = "split"
	PatternFIFO     = "fifo"
	PatternSync     = "sync"
	PatternFlatten  = "flatten"
	PatternSequence = "sequence"
)

// CountType is the type of the element count exchanged between the flatten and
// sequence adapters of a map.
var CountType = ktype.MustStream(ktype.Bits{Width: 32}, 0)

// register adds st to the generated library, binds it to impl and returns the
// resulting component.
func register(s *kdesign.Session, st *kdesign.Streamlet, pattern string, impl func(kdesign.StreamletHandle) *kdesign.Implementation) (*kdesign.Generated, error) {
	h, err := s.Register(st)
	if err != nil {
		return nil, fmt.Errorf("%s pattern: %w", pattern, err)
	}
	if err := s.AttachImplementation(h, impl(h)); err != nil {
		return nil, fmt.Errorf("%s pattern: %w", pattern, err)
	}
	return kdesign.NewGenerated(st, pattern, h), nil
}

// bindBackend registers st with a backend named after pattern.
func bindBackend(s *kdesign.Session, st *kdesign.Streamlet, pattern string) (*kdesign.Generated, error) {
	return register(s, st, pattern, func(h kdesign.StreamletHandle) *kdesign.Implementation {
		return kdesign.NewBackendImplementation(kdesign.NewExternalBackend(kdesign.Name(pattern), h))
	})
}

// FIFOBackend is the backend of a StreamFIFO. It carries the FIFO depth for
// code generators.
type FIFOBackend struct {
	*kdesign.ExternalBackend
	Depth int
}

// streamPair returns the sole input and output types of op as streams.
func streamPair(op *kdesign.Streamlet, pattern string) (in, out ktype.Stream, err error) {
	inIF, err := soleOf(op, kdesign.In)
	if err != nil {
		return
	}
	outIF, err := soleOf(op, kdesign.Out)
	if err != nil {
		return
	}
	if in, err = ktype.AsStream(inIF.Type()); err != nil {
		err = fmt.Errorf("%w: data type for %s required to be Stream, operator %s input: %w", kdesign.ErrTypeMismatch, pattern, op.Key(), err)
		return
	}
	if out, err = ktype.AsStream(outIF.Type()); err != nil {
		err = fmt.Errorf("%w: data type for %s required to be Stream, operator %s output: %w", kdesign.ErrTypeMismatch, pattern, op.Key(), err)
		return
	}
	return
}

func soleOf(op *kdesign.Streamlet, mode kdesign.Mode) (kdesign.Interface, error) {
	var found []kdesign.Interface
	for i := range op.Interfaces() {
		if i.Mode() == mode {
			found = append(found, i)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return kdesign.Interface{}, fmt.Errorf("%w: operator %s has no %s interface", kdesign.ErrNotFound, op.Key(), mode)
	default:
		return kdesign.Interface{}, fmt.Errorf("%w: operator %s has %d %s interfaces, expected one", kdesign.ErrInvalidArgument, op.Key(), len(found), mode)
	}
}
