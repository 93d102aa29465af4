package kpattern

import (
	"fmt"

	"github.com/birdayz/tydi/kdesign"
	"github.com/birdayz/tydi/ktype"
)

func passThrough(name string, typ ktype.Type) (*kdesign.Streamlet, error) {
	if ktype.IsPending(typ) {
		return nil, fmt.Errorf("%w: %s needs a concrete type", kdesign.ErrInvalidArgument, name)
	}
	in, err := kdesign.NewInterface("in", kdesign.In, typ)
	if err != nil {
		return nil, err
	}
	out, err := kdesign.NewInterface("out", kdesign.Out, typ)
	if err != nil {
		return nil, err
	}
	return kdesign.NewStreamlet(name, in, out)
}

// StreamFIFO buffers a stream of the given type.
type StreamFIFO struct {
	streamlet *kdesign.Streamlet
	depth     int
}

func NewStreamFIFO(name string, typ ktype.Type, depth int) (*StreamFIFO, error) {
	if depth < 0 {
		return nil, fmt.Errorf("%w: fifo %s depth %d is negative", kdesign.ErrInvalidArgument, name, depth)
	}
	s, err := passThrough(name, typ)
	if err != nil {
		return nil, err
	}
	return &StreamFIFO{streamlet: s, depth: depth}, nil
}

func (f *StreamFIFO) Streamlet() *kdesign.Streamlet { return f.streamlet }
func (f *StreamFIFO) Depth() int                    { return f.depth }

// WithBackend registers the FIFO and binds it to a FIFOBackend.
func (f *StreamFIFO) WithBackend(s *kdesign.Session) (*kdesign.Generated, error) {
	return register(s, f.streamlet, PatternFIFO, func(h kdesign.StreamletHandle) *kdesign.Implementation {
		return kdesign.NewBackendImplementation(&FIFOBackend{
			ExternalBackend: kdesign.NewExternalBackend(PatternFIFO, h),
			Depth:           f.depth,
		})
	})
}

// StreamSync synchronizes a stream of the given type.
type StreamSync struct {
	streamlet *kdesign.Streamlet
}

func NewStreamSync(name string, typ ktype.Type) (*StreamSync, error) {
	s, err := passThrough(name, typ)
	if err != nil {
		return nil, err
	}
	return &StreamSync{streamlet: s}, nil
}

func (y *StreamSync) Streamlet() *kdesign.Streamlet { return y.streamlet }

// WithBackend registers the sync and binds it to the "sync" backend.
func (y *StreamSync) WithBackend(s *kdesign.Session) (*kdesign.Generated, error) {
	return bindBackend(s, y.streamlet, PatternSync)
}
