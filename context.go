// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

import (
	"github.com/pkg/errors"
)

type declaration struct {
	name  string
	kind  Kind
	width int
}

type stmtKind int

const (
	stmtAssign stmtKind = iota
	stmtChoose
	stmtIfElse
)

type arm struct {
	from, to *node // nil for the default arm
	assign   *node
}

type set struct {
	target Handle
	expr   *node
}

type ifCase struct {
	cond *node // nil for else
	sets []set
}

// stmt is a recorded statement, lowered to VHDL at emission time.
type stmt struct {
	kind   stmtKind
	clock  int
	target Handle
	expr   *node
	ref    *node
	arms   []arm
	cases  []ifCase
}

// A Context is a build session for one synthesized module. It interns signal
// names, holds the current value bound to each name, and records the
// declarations and statements that are later rendered as VHDL.
//
// A Context is not safe for concurrent use.
//
type Context struct {
	// Module is the VHDL entity name.
	Module string
	// OutputDir is where PrintToFile writes the .vhd and .coe files.
	OutputDir string
	// Target holds the synthesis target parameters.
	Target Target
	// COERadix is the radix used for COE files (2, 10 or 16).
	COERadix int

	names   []string
	handles map[string]Handle
	binds   []Signal

	decls   []declaration
	declIdx map[string]int
	ports   []Handle
	isPort  map[Handle]bool
	outputs []Handle
	stmts   []stmt
	luts    []*LUT

	print   bool
	printed bool
	errs    []error

	lowered  *program
	lowerErr error
	lowerKey [2]int
}

// NewContext returns a new Context for the given module name. Statement
// recording is enabled.
//
func NewContext(module string) *Context {
	return &Context{
		Module:    module,
		OutputDir: ".",
		Target:    DefaultTarget,
		COERadix:  10,
		names:     []string{""},
		handles:   make(map[string]Handle),
		binds:     []Signal{Blank()},
		declIdx:   make(map[string]int),
		isPort:    make(map[Handle]bool),
		print:     true,
	}
}

// Declare returns the handle for the given signal name, allocating a new one
// if needed. Declaring the same name twice returns the same handle.
// This function panics if name is empty.
//
func (c *Context) Declare(name string) Handle {
	if name == "" {
		panic("empty signal name")
	}
	h, ok := c.handles[name]
	if !ok {
		h = Handle(len(c.names))
		c.names = append(c.names, name)
		c.binds = append(c.binds, Blank())
		c.handles[name] = h
	}
	return h
}

// Lookup returns the handle allocated to the given name.
//
func (c *Context) Lookup(name string) (Handle, bool) {
	h, ok := c.handles[name]
	return h, ok
}

// Name returns the name of a handle.
//
func (c *Context) Name(h Handle) string {
	if !c.valid(h) {
		return ""
	}
	return c.names[h]
}

// Get returns the value currently bound to h, or a blank signal.
//
func (c *Context) Get(h Handle) Signal {
	if !c.valid(h) {
		return Blank()
	}
	return c.binds[h]
}

// SetPrint enables or disables recording of declarations and statements.
// Values are computed in both cases.
//
func (c *Context) SetPrint(on bool) { c.print = on }

// Printing reports whether statements are being recorded.
//
func (c *Context) Printing() bool { return c.print }

// Errors returns all errors seen by context operations, in order.
//
func (c *Context) Errors() []error { return c.errs }

// Output marks h as a module output. Its value is driven on an output port
// named <name>_o.
//
func (c *Context) Output(h Handle) error {
	if !c.valid(h) {
		return c.fail(newError(ArgumentError, "output", "invalid handle %d", h), "")
	}
	for _, o := range c.outputs {
		if o == h {
			return nil
		}
	}
	c.outputs = append(c.outputs, h)
	return nil
}

// Assign binds v to h. The target becomes valid one clock after the latest
// operand of v. Constant values stay constant.
//
// The returned Signal is the new binding. An error is returned if v or one of
// its operands is tainted, in which case the binding still takes place.
//
func (c *Context) Assign(h Handle, v Signal) (Signal, error) {
	return c.AssignAt(h, ClockAuto, v)
}

// AssignAt is like Assign with an explicit target clock. clock must not be
// before the latest operand of v.
//
func (c *Context) AssignAt(h Handle, clock int, v Signal) (Signal, error) {
	const op = "assign"
	if err := c.checkTarget(op, h); err != nil {
		return v, err
	}
	name := c.names[h]
	if v.blank {
		return v, c.fail(newError(ArgumentError, op, "blank value assigned to %s", name), name)
	}
	t := v.effectiveClock()
	if t >= 0 {
		switch {
		case clock == ClockAuto:
			t++
		case clock < t:
			return c.binds[h], c.fail(newError(ClockError, op, "%s: target clock %d is before operand clock %d", name, clock, t), name)
		default:
			t = clock
		}
	}
	n := v.node()
	s := c.bind(h, v, t)
	if c.print {
		c.declare(name, v.kind, v.width)
		c.stmts = append(c.stmts, stmt{kind: stmtAssign, clock: t, target: h, expr: n})
	}
	if v.err != nil {
		return s, c.track(v.err)
	}
	return s, nil
}

// Add returns a + b using the context target.
func (c *Context) Add(a, b Signal) Signal { return c.Target.Add(a, b) }

// Sub returns a - b using the context target.
func (c *Context) Sub(a, b Signal) Signal { return c.Target.Sub(a, b) }

// Mul returns a * b, with the operands fitted to the multiplier widths of the
// context target. Signal.Mul always uses DefaultTarget.
//
func (c *Context) Mul(a, b Signal) Signal { return c.Target.Mul(a, b) }

func (c *Context) valid(h Handle) bool {
	return h > 0 && int(h) < len(c.names)
}

func (c *Context) checkTarget(op string, h Handle) error {
	if !c.valid(h) {
		return c.fail(newError(ArgumentError, op, "invalid handle %d", h), "")
	}
	if c.isPort[h] {
		return c.fail(newError(ArgumentError, op, "%s is a module input", c.names[h]), c.names[h])
	}
	return nil
}

// targetClock returns the clock of a multiplexer whose latest operand is
// valid at max.
//
func (c *Context) targetClock(op string, clock, max int) (int, error) {
	if clock == ClockAuto {
		if max < 0 {
			return 0, nil
		}
		return max + 1, nil
	}
	if clock < max {
		return clock, c.fail(newError(ClockError, op, "target clock %d is before operand clock %d", clock, max), "")
	}
	return clock, nil
}

// bind makes a new named leaf from v, valid at the given clock.
func (c *Context) bind(h Handle, v Signal, clock int) Signal {
	s := v
	s.id = nextID()
	s.neg = 0
	s.h = h
	s.name = c.names[h]
	s.clock = clock
	s.expr = nil
	c.binds[h] = s
	return s
}

// declare records a signal declaration. The first declaration of a name wins.
func (c *Context) declare(name string, k Kind, w int) {
	if _, ok := c.declIdx[name]; ok {
		return
	}
	c.declIdx[name] = len(c.decls)
	c.decls = append(c.decls, declaration{name: name, kind: k, width: w})
}

func (c *Context) registerLUT(l *LUT) error {
	for _, x := range c.luts {
		if x == l {
			return nil
		}
		if x.name == l.name {
			return c.fail(newError(ArgumentError, "operate", "duplicate lookup table name %q", l.name), "")
		}
	}
	c.luts = append(c.luts, l)
	return nil
}

// fail reports a new error and records it.
func (c *Context) fail(err error, name string) error {
	return c.track(report(err, name))
}

// track records an error that has already been reported.
func (c *Context) track(err error) error {
	if err != nil {
		c.errs = append(c.errs, err)
	}
	return err
}

// Err returns an error summarizing all errors seen so far, or nil.
//
func (c *Context) Err() error {
	switch len(c.errs) {
	case 0:
		return nil
	case 1:
		return c.errs[0]
	}
	return errors.Wrapf(c.errs[0], "%d errors, first one", len(c.errs))
}
