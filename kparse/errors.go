package kparse

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrParse is wrapped by every ParseError.
var ErrParse = errors.New("parse error")

// ParseError reports input that does not match the grammar.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", ErrParse, e.Line, e.Column, e.Message)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

func newParseError(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &ParseError{Line: pos.Line, Column: pos.Column, Message: perr.Message()}
	}
	return &ParseError{Message: err.Error()}
}

// LineError attaches the source line of the statement that caused a semantic
// error. The underlying error stays reachable for errors.Is.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

func atLine(pos lexer.Position, err error) error {
	if err == nil {
		return nil
	}
	var le *LineError
	if errors.As(err, &le) {
		return err
	}
	return &LineError{Line: pos.Line, Err: err}
}

// Line returns the source line an error refers to.
func Line(err error) (int, bool) {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Line > 0 {
		return pe.Line, true
	}
	var le *LineError
	if errors.As(err, &le) {
		return le.Line, true
	}
	return 0, false
}
