package kparse

import (
	"errors"
	"fmt"
	"slices"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/birdayz/tydi/kdesign"
	"github.com/birdayz/tydi/kpattern"
	"github.com/go-logr/logr"
)

// ErrTransformed is returned when Transform is called twice.
var ErrTransformed = errors.New("implementation already transformed")

// ImplParser turns an implementation description into a structural
// implementation of a project streamlet.
//
// Parsing happens in NewImplParser. Transform walks the statements in order,
// instantiating nodes, expanding patterns into a session on the project and
// connecting interfaces with type inference. Finish returns the
// implementation and commits the generated streamlets.
//
// ImplParser is NOT safe for concurrent use, and the project must not be
// modified by anyone else until Finish returns.
type ImplParser struct {
	ast         *implementationAST
	handle      kdesign.StreamletHandle
	session     *kdesign.Session
	builder     *kdesign.GraphBuilder
	log         logr.Logger
	transformed bool
}

// NewImplParser parses input and resolves the streamlet it implements.
func NewImplParser(project *kdesign.Project, input string, opts ...Option) (*ImplParser, error) {
	c := config{
		log:       logr.Discard(),
		generated: kdesign.GeneratedLibrary,
	}
	for _, opt := range opts {
		opt(&c)
	}

	ast, err := implParser.ParseString(c.filename, input)
	if err != nil {
		return nil, newParseError(err)
	}

	handle, err := transformStreamletHandle(ast.Streamlet)
	if err != nil {
		return nil, err
	}

	log := c.log.WithValues("implementation", handle.String())
	if c.filename != "" {
		log = log.WithValues("file", c.filename)
	}
	c.log = log

	session := project.NewSession(c.design()...)
	builder, err := kdesign.NewGraphBuilder(session, handle, c.design()...)
	if err != nil {
		session.Close()
		return nil, atLine(ast.Streamlet.Pos, err)
	}

	return &ImplParser{
		ast:     ast,
		handle:  handle,
		session: session,
		builder: builder,
		log:     log,
	}, nil
}

// Streamlet returns the handle of the implemented streamlet.
func (p *ImplParser) Streamlet() kdesign.StreamletHandle {
	return p.handle
}

// This returns the boundary node of the graph under construction.
func (p *ImplParser) This() *kdesign.Node {
	return p.builder.This()
}

// Transform applies all statements. It stops at the first failing statement
// and reports its line.
func (p *ImplParser) Transform() error {
	if p.transformed {
		return ErrTransformed
	}
	p.transformed = true

	for _, st := range p.ast.Statements {
		if err := p.transformStatement(st); err != nil {
			return err
		}
	}
	return nil
}

// Finish returns the structural implementation, adds the streamlets generated
// for its patterns to the project and closes the parser's session. If Finish
// fails, or is never called, the project is left without them. The
// implementation is not attached; see Implement.
func (p *ImplParser) Finish() (*kdesign.Implementation, error) {
	defer p.session.Close()
	g, err := p.builder.Finish()
	if err != nil {
		return nil, err
	}
	if err := p.session.Commit(); err != nil {
		return nil, err
	}
	return kdesign.NewStructural(g), nil
}

// Close discards the parser's session without touching the project. It is a
// no-op after Finish.
func (p *ImplParser) Close() {
	p.session.Close()
}

// Implement parses input, transforms it and attaches the resulting
// implementation to its streamlet in project. On error the project is
// unchanged.
func Implement(project *kdesign.Project, input string, opts ...Option) (kdesign.StreamletHandle, error) {
	p, err := NewImplParser(project, input, opts...)
	if err != nil {
		return kdesign.StreamletHandle{}, err
	}
	defer p.Close()

	if _, err := project.Implementation(p.handle); err == nil {
		return kdesign.StreamletHandle{}, atLine(p.ast.Pos, fmt.Errorf("%w: %s", kdesign.ErrImplementationAttached, p.handle))
	}
	if err := p.Transform(); err != nil {
		return kdesign.StreamletHandle{}, err
	}
	impl, err := p.Finish()
	if err != nil {
		return kdesign.StreamletHandle{}, err
	}
	if err := project.AddStreamletImpl(p.handle, impl); err != nil {
		return kdesign.StreamletHandle{}, atLine(p.ast.Pos, err)
	}
	return p.handle, nil
}

func (p *ImplParser) transformStatement(st *statementAST) error {
	switch {
	case st.Node != nil:
		return p.transformNode(st.Node)
	case st.Connection != nil:
		return p.transformConnection(st.Connection)
	case st.Bulk != nil:
		return p.transformBulkConnection(st.Bulk)
	default:
		return atLine(st.Pos, fmt.Errorf("%w: empty statement", kdesign.ErrInvalidArgument))
	}
}

func transformStreamletHandle(d *dottedAST) (kdesign.StreamletHandle, error) {
	h, err := kdesign.NewStreamletHandle(d.First, d.Second)
	return h, atLine(d.Pos, err)
}

func transformNodeIFHandle(d *dottedAST) (kdesign.NodeIFHandle, error) {
	node, err := kdesign.NewName(d.First)
	if err != nil {
		return kdesign.NodeIFHandle{}, atLine(d.Pos, err)
	}
	iface, err := kdesign.NewName(d.Second)
	if err != nil {
		return kdesign.NodeIFHandle{}, atLine(d.Pos, err)
	}
	return kdesign.NodeIFHandle{Node: node, Interface: iface}, nil
}

// transformNode instantiates a streamlet or the result of a pattern as a new
// node. Instance keys must be unique.
func (p *ImplParser) transformNode(n *nodeAST) error {
	if n.Instance != nil {
		h, err := transformStreamletHandle(n.Instance)
		if err != nil {
			return err
		}
		_, err = p.builder.Instantiate(h, n.Key)
		return atLine(n.Pos, err)
	}

	key, err := kdesign.NewName(n.Key)
	if err != nil {
		return atLine(n.Pos, err)
	}
	g, err := p.transformPattern(n.Pattern, p.path(key))
	if err != nil {
		return err
	}
	_, err = p.builder.AddComponent(n.Key, g)
	return atLine(n.Pos, err)
}

// path is the qualified path of a top level node, used to derive unique names
// for generated streamlets.
func (p *ImplParser) path(key kdesign.NodeKey) []kdesign.Name {
	return []kdesign.Name{p.handle.Lib, p.handle.Streamlet, key}
}

// transformOperator resolves the node inside a pattern to a streamlet handle,
// expanding nested patterns first.
func (p *ImplParser) transformOperator(n *nodeAST, path []kdesign.Name) (kdesign.StreamletHandle, error) {
	if n.Instance != nil {
		return transformStreamletHandle(n.Instance)
	}
	key, err := kdesign.NewName(n.Key)
	if err != nil {
		return kdesign.StreamletHandle{}, atLine(n.Pos, err)
	}
	g, err := p.transformPattern(n.Pattern, append(slices.Clip(path), key))
	if err != nil {
		return kdesign.StreamletHandle{}, err
	}
	return g.Handle(), nil
}

func (p *ImplParser) transformPattern(pat *patternAST, path []kdesign.Name) (*kdesign.Generated, error) {
	op, err := p.transformOperator(pat.Operator, path)
	if err != nil {
		return nil, err
	}
	name, err := p.session.GeneratedName(append(slices.Clip(path), kdesign.Name(pat.Kind))...)
	if err != nil {
		return nil, atLine(pat.Pos, err)
	}

	var g *kdesign.Generated
	switch pat.Kind {
	case kpattern.PatternMap:
		g, err = kpattern.NewMapPattern(p.session, string(name), pat.Operator.Key, op, kdesign.WithLogger(p.log))
	case kpattern.PatternReduce:
		var r *kpattern.ReduceStream
		if r, err = kpattern.NewReduceStream(p.session, string(name), op); err == nil {
			g, err = r.WithBackend(p.session)
		}
	default:
		err = fmt.Errorf("%w: unknown pattern %q", kdesign.ErrInvalidArgument, pat.Kind)
	}
	if err != nil {
		return nil, atLine(pat.Pos, err)
	}

	p.log.V(1).Info("Expanded pattern", "pattern", pat.Kind, "streamlet", g.Handle().String(), "operator", op.String())
	return g, nil
}

// transformConnection links "sink <= source". Like the programmatic builder
// it orients the edge by interface mode.
func (p *ImplParser) transformConnection(c *connectionAST) error {
	sink, err := transformNodeIFHandle(c.Sink)
	if err != nil {
		return err
	}
	source, err := transformNodeIFHandle(c.Source)
	if err != nil {
		return err
	}
	_, err = p.builder.Link(source, sink)
	return atLine(c.Pos, err)
}

// transformBulkConnection connects a chain "a <=> b <=> c" from left to
// right. Each item contributes sources when it is on the left of "<=>" and
// sinks when it is on the right: a node contributes its sole output or sole
// input, a handle or list contributes its handles in order. Sources must be
// outputs and sinks inputs; the chain is never reoriented.
func (p *ImplParser) transformBulkConnection(b *bulkAST) error {
	for i := 0; i+1 < len(b.Items); i++ {
		left, right := b.Items[i], b.Items[i+1]

		sources, err := p.bulkHandles(left, kdesign.Out)
		if err != nil {
			return err
		}
		sinks, err := p.bulkHandles(right, kdesign.In)
		if err != nil {
			return err
		}
		if len(sources) != len(sinks) {
			return atLine(right.Pos, fmt.Errorf("%w: cannot connect %d sources to %d sinks", kdesign.ErrInvalidArgument, len(sources), len(sinks)))
		}

		for j := range sources {
			if _, err := p.builder.Link(sources[j], sinks[j]); err != nil {
				return atLine(right.Pos, err)
			}
		}
	}
	return nil
}

func (p *ImplParser) bulkHandles(item *bulkItemAST, mode kdesign.Mode) ([]kdesign.NodeIFHandle, error) {
	if item.Node != "" {
		h, err := p.soleHandle(item.Pos, item.Node, mode)
		if err != nil {
			return nil, err
		}
		return []kdesign.NodeIFHandle{h}, nil
	}

	dotted := item.List
	if item.Handle != nil {
		dotted = []*dottedAST{item.Handle}
	}

	handles := make([]kdesign.NodeIFHandle, 0, len(dotted))
	for _, d := range dotted {
		h, err := transformNodeIFHandle(d)
		if err != nil {
			return nil, err
		}
		if err := p.checkMode(d.Pos, h, mode); err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func (p *ImplParser) soleHandle(pos lexer.Position, node string, mode kdesign.Mode) (kdesign.NodeIFHandle, error) {
	key, err := kdesign.NewName(node)
	if err != nil {
		return kdesign.NodeIFHandle{}, atLine(pos, err)
	}
	n, err := p.builder.Node(key)
	if err != nil {
		return kdesign.NodeIFHandle{}, atLine(pos, err)
	}

	var i kdesign.Interface
	if mode == kdesign.Out {
		i, err = n.SoleOutput()
	} else {
		i, err = n.SoleInput()
	}
	if err != nil {
		return kdesign.NodeIFHandle{}, atLine(pos, err)
	}
	return kdesign.NodeIFHandle{Node: key, Interface: i.Key()}, nil
}

func (p *ImplParser) checkMode(pos lexer.Position, h kdesign.NodeIFHandle, want kdesign.Mode) error {
	n, err := p.builder.Node(h.Node)
	if err != nil {
		return atLine(pos, err)
	}
	i, err := n.Interface(h.Interface)
	if err != nil {
		return atLine(pos, err)
	}
	if i.Mode() != want {
		return atLine(pos, fmt.Errorf("%w: %s is an %s, bulk connection needs an %s here", kdesign.ErrInvalidArgument, h, i.Mode(), want))
	}
	return nil
}
