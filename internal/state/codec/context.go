// Package codec implements the state-codec component (spec §4.6 "State
// Codec"): per-entity encode/decode procedures over the protocol's state
// types, wrapping every decode failure with a path-tracking
// DecodingContext so a caller can tell exactly which field of which
// entity went wrong.
package codec

import (
	"fmt"
	"strings"
)

// FrameKind tags what a DecodingContext.Frame names.
type FrameKind uint8

const (
	FrameComponent FrameKind = iota
	FrameField
	FrameIndex
)

// Frame is one entry of a DecodingContext's path stack (spec §4.6
// "DecodingContext that carries a stack of frames
// {component | field | array_index}").
type Frame struct {
	Kind  FrameKind
	Name  string
	Index int
}

func (f Frame) String() string {
	switch f.Kind {
	case FrameIndex:
		return fmt.Sprintf("[%d]", f.Index)
	default:
		return f.Name
	}
}

// DecodingContext tracks the current decode path so that errors can be
// annotated precisely. It is not safe for concurrent use; each decode
// call should own one.
type DecodingContext struct {
	stack []Frame
}

// NewDecodingContext returns an empty context.
func NewDecodingContext() *DecodingContext {
	return &DecodingContext{}
}

// PushComponent enters a named top-level entity (e.g. "Psi").
func (c *DecodingContext) PushComponent(name string) {
	c.stack = append(c.stack, Frame{Kind: FrameComponent, Name: name})
}

// PushField enters a named field of the current component.
func (c *DecodingContext) PushField(name string) {
	c.stack = append(c.stack, Frame{Kind: FrameField, Name: name})
}

// PushIndex enters element i of the current field (a map entry or array
// slot).
func (c *DecodingContext) PushIndex(i int) {
	c.stack = append(c.stack, Frame{Kind: FrameIndex, Index: i})
}

// Pop leaves the most recently entered frame.
func (c *DecodingContext) Pop() {
	c.stack = c.stack[:len(c.stack)-1]
}

// Path renders the current stack as a dotted diagnostic path, e.g.
// "Psi.bad[1]".
func (c *DecodingContext) Path() string {
	var b strings.Builder
	for i, f := range c.stack {
		if f.Kind != FrameIndex && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(f.String())
	}
	return b.String()
}

// Wrap annotates err with the context's current path, unless err is nil.
func (c *DecodingContext) Wrap(err error) error {
	if err == nil {
		return nil
	}
	return &PathError{Path: c.Path(), Err: err}
}

// PathError is a decode failure annotated with the {component, field,
// index} path that produced it.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }
