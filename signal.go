// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

import (
	"math"
	"math/bits"
	"strconv"
	"strings"
	"sync/atomic"
)

// Kind is the hardware representation of a Signal.
//
type Kind int

// Signal kinds.
//
const (
	Unsigned Kind = iota // numeric_std unsigned
	Signed               // numeric_std signed
	Slv                  // raw std_logic_vector, no numeric meaning
)

func (k Kind) String() string {
	switch k {
	case Unsigned:
		return "unsigned"
	case Signed:
		return "signed"
	case Slv:
		return "std_logic_vector"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Special clock values.
//
const (
	ClockAuto  = -3 // let the context compute the target clock
	ClockBlank = -2 // blank signal, no value yet
	ClockConst = -1 // compile time constant
)

// Handle identifies a named signal in a Context.
//
type Handle int

var lastID uint64

func nextID() uint64 { return atomic.AddUint64(&lastID, 1) }

// A Signal is an immutable fixed-point value: an integer code with its
// statically known range, the physical scale of one code, the pipeline clock
// at which it is valid, and the expression that computes it.
//
// Operations never modify their operands; they return new signals. Binding a
// value to a name is done through a Context.
//
type Signal struct {
	id    uint64
	neg   uint64 // id of the value this one negates, if any
	h     Handle
	name  string
	kind  Kind
	width int
	v     int64
	min   int64
	max   int64
	scale float64

	actual    float64
	actualMin float64
	actualMax float64

	clock int
	blank bool
	bits  []bool
	expr  *node
	err   error
}

// FromReal returns an input value of the given bit width for a physical
// quantity in [min, max]. The signal is signed if min < 0. The scale is chosen
// so that the larger bound maps to the largest code of the given width.
//
func FromReal(width int, value, min, max float64, clock int) Signal {
	const op = "fromReal"
	s := Signal{id: nextID(), width: width, actual: value, actualMin: min, actualMax: max, clock: clock}
	if min < 0 {
		s.kind = Signed
		s.scale = math.Max(max, -min) / (math.Ldexp(1, width-1) - 0.5)
	} else {
		s.scale = max / (math.Ldexp(1, width) - 0.5)
	}
	switch {
	case width < 1 || width > 62:
		s.fail(newError(ArgumentError, op, "bit width %d out of [1, 62]", width))
		return s
	case !(min <= max):
		s.fail(newError(RangeError, op, "inverted range [%g, %g]", min, max))
		return s
	case !(s.scale > 0) || math.IsInf(s.scale, 0):
		s.fail(newError(ArgumentError, op, "range [%g, %g] has no usable scale", min, max))
		return s
	}
	s.v = s.realCode(value, min, max)
	s.min = s.realCode(min, min, max)
	s.max = s.realCode(max, min, max)
	s.check(op)
	return s
}

// realCode returns the code of x for a FromReal signal of range [min, max].
// The bound with the largest magnitude maps exactly to the largest code since
// the scale is derived from it. Other values within the range are kept within
// the codes of the width.
//
func (s *Signal) realCode(x, min, max float64) int64 {
	hi := maxCode(s.kind, s.width)
	m := max
	if s.kind == Signed {
		m = math.Max(max, -min)
	}
	switch {
	case x == m:
		return hi
	case s.kind == Signed && x == -m:
		return -hi
	}
	c := roundBound(x / s.scale)
	if x >= min && x <= max {
		if c > hi {
			c = hi
		}
		if lo := minCode(s.kind, s.width); c < lo {
			c = lo
		}
	}
	return c
}

// FromCode returns an input value given directly as integer codes. The kind
// is signed if min < 0 and width must be large enough to hold [min, max].
//
func FromCode(width int, v, min, max int64, scale float64, clock int) Signal {
	s := Signal{
		id:        nextID(),
		kind:      rangeKind(min),
		width:     width,
		v:         v,
		min:       min,
		max:       max,
		scale:     scale,
		actual:    float64(v) * scale,
		actualMin: float64(min) * scale,
		actualMax: float64(max) * scale,
		clock:     clock,
	}
	s.check("fromCode")
	return s
}

// Const returns a constant whose code is value/scale rounded to the nearest
// integer.
//
func Const(value, scale float64) Signal {
	if !(scale > 0) {
		s := Signal{id: nextID(), clock: ClockConst}
		s.fail(newError(ArgumentError, "const", "invalid scale %g", scale))
		return s
	}
	s := constCode(int64(math.Round(value/scale)), scale)
	s.actual, s.actualMin, s.actualMax = value, value, value
	return s
}

// ConstCode returns a constant with the given integer code.
//
func ConstCode(v int64, scale float64) Signal {
	return constCode(v, scale)
}

func constCode(v int64, scale float64) Signal {
	a := float64(v) * scale
	return Signal{
		id:        nextID(),
		kind:      rangeKind(v),
		width:     rangeWidth(v, v),
		v:         v,
		min:       v,
		max:       v,
		scale:     scale,
		actual:    a,
		actualMin: a,
		actualMax: a,
		clock:     ClockConst,
	}
}

// FromBits returns a raw bit vector. bits[0] is the least significant bit.
//
func FromBits(bits []bool, clock int) Signal {
	return Signal{
		id:    nextID(),
		kind:  Slv,
		width: len(bits),
		bits:  append([]bool(nil), bits...),
		clock: clock,
	}
}

// Blank returns a placeholder signal with no value. Blank signals are used as
// open bounds in Choose ranges.
//
func Blank() Signal {
	return Signal{blank: true, clock: ClockBlank}
}

// Name returns the name the signal is bound to, if any.
func (s Signal) Name() string { return s.name }

// Handle returns the handle the signal is bound to, or 0.
func (s Signal) Handle() Handle { return s.h }

// Kind returns the signal kind.
func (s Signal) Kind() Kind { return s.kind }

// Width returns the bit width.
func (s Signal) Width() int { return s.width }

// Int returns the integer code.
func (s Signal) Int() int64 { return s.v }

// MinInt returns the smallest possible code.
func (s Signal) MinInt() int64 { return s.min }

// MaxInt returns the largest possible code.
func (s Signal) MaxInt() int64 { return s.max }

// Scale returns the physical value of one code.
func (s Signal) Scale() float64 { return s.scale }

// Actual returns the ideal real value, computed in floating point alongside
// the integer pipeline.
func (s Signal) Actual() float64 { return s.actual }

// MinActual returns the lower bound of the ideal value.
func (s Signal) MinActual() float64 { return s.actualMin }

// MaxActual returns the upper bound of the ideal value.
func (s Signal) MaxActual() float64 { return s.actualMax }

// Real returns the physical value of the integer code.
func (s Signal) Real() float64 { return float64(s.v) * s.scale }

// RealMin returns the physical value of the smallest code.
func (s Signal) RealMin() float64 { return float64(s.min) * s.scale }

// RealMax returns the physical value of the largest code.
func (s Signal) RealMax() float64 { return float64(s.max) * s.scale }

// Clock returns the pipeline clock at which the value is valid.
// Expressions are valid at the latest clock of their operands.
func (s Signal) Clock() int { return s.clock }

// IsBlank reports whether s is a blank placeholder.
func (s Signal) IsBlank() bool { return s.blank }

// Err returns the first error that affected s or any of the values it was
// computed from. A signal with a non-nil error must be considered unreliable.
func (s Signal) Err() error { return s.err }

// Bits returns a copy of the bit vector of a raw bit vector signal.
//
func (s Signal) Bits() []bool {
	return append([]bool(nil), s.bits...)
}

// Deps returns the leaves of the expression that computes s, in order.
//
func (s Signal) Deps() []Dep {
	if s.blank {
		return nil
	}
	return s.node().deps(nil)
}

func (s Signal) String() string {
	var b strings.Builder
	if s.blank {
		return "<blank>"
	}
	if s.name != "" {
		b.WriteString(s.name)
	} else {
		b.WriteString("_")
	}
	b.WriteString("[")
	b.WriteString(s.kind.String())
	b.WriteString(" ")
	b.WriteString(strconv.Itoa(s.width))
	b.WriteString("] ")
	if s.kind == Slv {
		for i := len(s.bits) - 1; i >= 0; i-- {
			if s.bits[i] {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	} else {
		b.WriteString(strconv.FormatInt(s.v, 10))
		b.WriteString(" [")
		b.WriteString(strconv.FormatInt(s.min, 10))
		b.WriteString(", ")
		b.WriteString(strconv.FormatInt(s.max, 10))
		b.WriteString("] x")
		b.WriteString(strconv.FormatFloat(s.scale, 'g', -1, 64))
	}
	b.WriteString(" @")
	b.WriteString(strconv.Itoa(s.clock))
	return b.String()
}

func (s Signal) label() string {
	if s.name != "" {
		return s.name
	}
	return "value"
}

// literal reports whether s is rendered as a literal.
func (s Signal) literal() bool {
	return s.expr == nil && !s.blank && s.kind != Slv && s.min == s.max
}

// effectiveClock is the clock used for pipeline alignment.
func (s Signal) effectiveClock() int {
	if s.literal() {
		return ClockConst
	}
	return s.clock
}

// node returns the expression node for s, creating a leaf if needed.
//
func (s Signal) node() *node {
	if s.expr != nil {
		return s.expr
	}
	n := &node{kind: s.kind, width: s.width, min: s.min, max: s.max, v: s.v, h: s.h, name: s.name, clock: s.clock}
	switch {
	case s.literal():
		n.op = opConst
		n.clock = ClockConst
	case s.h == 0:
		n.op = opInput
	default:
		n.op = opRef
	}
	return n
}

// fail records err as the first error of s and reports it.
//
func (s *Signal) fail(err error) {
	if err == nil {
		return
	}
	report(err, s.name)
	if s.err == nil {
		s.err = err
	}
}

// check validates the value and range of s against its kind and width.
//
func (s *Signal) check(op string) {
	if s.kind == Slv || s.blank {
		return
	}
	var err error
	lo, hi := minCode(s.kind, s.width), maxCode(s.kind, s.width)
	switch {
	case s.width < 0 || s.width > 63:
		err = newError(RangeError, op, "bit width %d out of range", s.width)
	case s.min > s.max:
		err = newError(RangeError, op, "inverted range [%d, %d]", s.min, s.max)
	case s.v > hi:
		err = newError(RangeError, op, "value %d overflows %d bit %s", s.v, s.width, s.kind)
	case s.v < lo:
		err = newError(RangeError, op, "value %d underflows %d bit %s", s.v, s.width, s.kind)
	case s.max > hi:
		err = newError(RangeError, op, "maximum %d overflows %d bit %s", s.max, s.width, s.kind)
	case s.min < lo:
		err = newError(RangeError, op, "minimum %d underflows %d bit %s", s.min, s.width, s.kind)
	case s.v < s.min || s.v > s.max:
		err = newError(RangeError, op, "value %d outside [%d, %d]", s.v, s.min, s.max)
	}
	s.fail(err)
}

// derive returns a fresh anonymous value computed by opc from args. The
// caller fills in the numeric fields and calls finish.
//
func derive(opc opcode, args ...Signal) Signal {
	r := Signal{id: nextID(), clock: ClockConst}
	n := &node{op: opc, args: make([]*node, len(args))}
	for i, a := range args {
		n.args[i] = a.node()
		if c := a.effectiveClock(); c > r.clock {
			r.clock = c
		}
		if r.err == nil {
			r.err = a.err
		}
	}
	r.expr = n
	return r
}

// finish copies the result type into the expression node and validates it.
//
func (s *Signal) finish(op string) {
	s.expr.kind, s.expr.width = s.kind, s.width
	s.expr.min, s.expr.max = s.min, s.max
	s.check(op)
}

func rangeKind(min int64) Kind {
	if min < 0 {
		return Signed
	}
	return Unsigned
}

// rangeWidth returns the minimal bit width for [min, max].
func rangeWidth(min, max int64) int {
	return kindWidth(rangeKind(min), min, max)
}

func kindWidth(k Kind, min, max int64) int {
	m := uint64(0)
	if max > 0 {
		m = uint64(max)
	}
	if min < 0 && uint64(-min) > m {
		m = uint64(-min)
	}
	w := bits.Len64(m)
	if k == Signed {
		w++
	}
	return w
}

func maxCode(k Kind, w int) int64 {
	if k == Signed {
		w--
	}
	switch {
	case w <= 0:
		return 0
	case w >= 63:
		return math.MaxInt64
	}
	return 1<<uint(w) - 1
}

func minCode(k Kind, w int) int64 {
	if k == Signed {
		return -maxCode(k, w)
	}
	return 0
}

// roundBound rounds x to the nearest integer, with ties going toward zero so
// that a range bound never rounds past the largest code.
//
func roundBound(x float64) int64 {
	t := math.Trunc(x)
	if math.Abs(math.Abs(x-t)-0.5) < 1e-9 {
		return int64(t)
	}
	return int64(math.Round(x))
}
