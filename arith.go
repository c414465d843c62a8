// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

import (
	"math"
	"math/bits"
)

// checkOperands returns an error if one of args cannot enter arithmetic.
func checkOperands(op string, args ...Signal) error {
	for _, a := range args {
		switch {
		case a.blank:
			return newError(ArgumentError, op, "blank signal used as operand")
		case a.kind == Slv:
			return newError(TypeError, op, "raw bit vector %s used in arithmetic", a.label())
		case a.width > 62:
			return newError(RangeError, op, "%s is too wide (%d bits)", a.label(), a.width)
		}
	}
	return nil
}

// failed returns a tainted result for an operation that could not be
// computed.
func failed(opc opcode, op string, err error, args ...Signal) Signal {
	r := derive(opc, args...)
	r.fail(err)
	r.expr.kind, r.expr.width = r.kind, r.width
	return r
}

// Add returns s + b. See Target.Add.
func (s Signal) Add(b Signal) Signal { return DefaultTarget.Add(s, b) }

// Sub returns s - b. See Target.Sub.
func (s Signal) Sub(b Signal) Signal { return DefaultTarget.Sub(s, b) }

// Mul returns s * b. See Target.Mul.
func (s Signal) Mul(b Signal) Signal { return DefaultTarget.Mul(s, b) }

// Add returns a + b. If the scales differ by a power of two, the operand with
// the coarser scale is shifted left first. The result range is the sum of
// both ranges, except for -x + x which is exactly 0.
//
func (t Target) Add(a, b Signal) Signal {
	const op = "add"
	if err := checkOperands(op, a, b); err != nil {
		return failed(opAdd, op, err, a, b)
	}
	cancel := a.neg != 0 && a.neg == b.id || b.neg != 0 && b.neg == a.id
	a, b, err := t.matchUnits(op, a, b)
	r := derive(opAdd, a, b)
	r.fail(err)
	r.scale = a.scale
	r.v, r.min, r.max = a.v+b.v, a.min+b.min, a.max+b.max
	r.actual, r.actualMin, r.actualMax = a.actual+b.actual, a.actualMin+b.actualMin, a.actualMax+b.actualMax
	if cancel {
		r.min, r.max, r.actualMin, r.actualMax = 0, 0, 0, 0
	}
	r.kind, r.width = rangeKind(r.min), rangeWidth(r.min, r.max)
	r.finish(op)
	return r
}

// Sub returns a - b. Subtracting a value from itself yields the range [0, 0].
//
func (t Target) Sub(a, b Signal) Signal {
	const op = "sub"
	if err := checkOperands(op, a, b); err != nil {
		return failed(opSub, op, err, a, b)
	}
	same := a.id == b.id
	a, b, err := t.matchUnits(op, a, b)
	r := derive(opSub, a, b)
	r.fail(err)
	r.scale = a.scale
	r.v, r.min, r.max = a.v-b.v, a.min-b.max, a.max-b.min
	r.actual, r.actualMin, r.actualMax = a.actual-b.actual, a.actualMin-b.actualMax, a.actualMax-b.actualMin
	if same {
		r.min, r.max, r.actualMin, r.actualMax = 0, 0, 0, 0
	}
	r.kind, r.width = rangeKind(r.min), rangeWidth(r.min, r.max)
	r.finish(op)
	return r
}

// Mul returns a * b. Operands wider than the target multiplier limits are
// shifted right first, keeping their physical value. The result scale is the
// product of both scales. The square of a value is never negative.
//
func (t Target) Mul(a, b Signal) Signal {
	const op = "mul"
	if err := checkOperands(op, a, b); err != nil {
		return failed(opMul, op, err, a, b)
	}
	square := a.id == b.id
	if b.width > a.width {
		a = fitMul(a, t.MulSmallUnsigned, t.MulSmallSigned)
		b = fitMul(b, t.MulLargeUnsigned, t.MulLargeSigned)
	} else {
		a = fitMul(a, t.MulLargeUnsigned, t.MulLargeSigned)
		b = fitMul(b, t.MulSmallUnsigned, t.MulSmallSigned)
	}
	r := derive(opMul, a, b)
	r.scale = a.scale * b.scale
	r.actual = a.actual * b.actual
	r.actualMin, r.actualMax = minMax4f(a.actualMin*b.actualMin, a.actualMin*b.actualMax, a.actualMax*b.actualMin, a.actualMax*b.actualMax)
	for _, p := range [...][2]int64{{a.v, b.v}, {a.min, b.min}, {a.min, b.max}, {a.max, b.min}, {a.max, b.max}} {
		if mulOverflows(p[0], p[1]) {
			r.kind, r.width = Unsigned, a.width+b.width
			if a.kind == Signed || b.kind == Signed {
				r.kind = Signed
			}
			r.fail(newError(RangeError, op, "product of %s and %s overflows 63 bits", a.label(), b.label()))
			r.expr.kind, r.expr.width = r.kind, r.width
			return r
		}
	}
	r.v = a.v * b.v
	r.min, r.max = minMax4(a.min*b.min, a.min*b.max, a.max*b.min, a.max*b.max)
	if square {
		if r.min < 0 {
			r.min = 0
		}
		if r.actualMin < 0 {
			r.actualMin = 0
		}
	}
	r.kind, r.width = rangeKind(r.min), rangeWidth(r.min, r.max)
	r.finish(op)
	return r
}

// mulOverflows reports whether x*y does not fit an int64.
func mulOverflows(x, y int64) bool {
	hi, lo := bits.Mul64(abs64(x), abs64(y))
	return hi != 0 || lo > math.MaxInt64
}

func abs64(x int64) uint64 {
	if x < 0 {
		return uint64(-x)
	}
	return uint64(x)
}

func minMax4(a, b, c, d int64) (int64, int64) {
	lo, hi := a, a
	for _, x := range [...]int64{b, c, d} {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

func minMax4f(a, b, c, d float64) (float64, float64) {
	return math.Min(math.Min(a, b), math.Min(c, d)), math.Max(math.Max(a, b), math.Max(c, d))
}

// Neg returns -s.
//
func (s Signal) Neg() Signal {
	const op = "neg"
	if err := checkOperands(op, s); err != nil {
		return failed(opNeg, op, err, s)
	}
	r := derive(opNeg, s)
	r.neg = s.id
	r.scale = s.scale
	r.v, r.min, r.max = -s.v, -s.max, -s.min
	r.actual, r.actualMin, r.actualMax = -s.actual, -s.actualMax, -s.actualMin
	r.kind, r.width = rangeKind(r.min), rangeWidth(r.min, r.max)
	if s.kind == Signed && r.width < s.width {
		r.kind, r.width = Signed, s.width
	}
	r.finish(op)
	return r
}

// Abs returns |s|.
//
func (s Signal) Abs() Signal {
	const op = "abs"
	if err := checkOperands(op, s); err != nil {
		return failed(opAbs, op, err, s)
	}
	if s.min >= 0 {
		return s
	}
	r := derive(opAbs, s)
	r.scale = s.scale
	r.v, r.actual = s.v, s.actual
	if r.v < 0 {
		r.v = -r.v
	}
	r.actual = math.Abs(s.actual)
	switch {
	case s.max <= 0:
		r.min, r.max = -s.max, -s.min
		r.actualMin, r.actualMax = -s.actualMax, -s.actualMin
	default:
		r.min, r.max = 0, s.max
		if -s.min > r.max {
			r.max = -s.min
		}
		r.actualMin, r.actualMax = 0, math.Max(s.actualMax, -s.actualMin)
	}
	r.kind, r.width = rangeKind(r.min), rangeWidth(r.min, r.max)
	r.finish(op)
	return r
}

// Shift shifts the code of s right by n bits (left if n < 0), rounding toward
// negative infinity. The scale is multiplied by 2^n so that the physical value
// is preserved up to the quantization step.
//
func (s Signal) Shift(n int) Signal { return s.shift(n, true) }

// ShiftValue shifts the code of s like Shift but keeps the scale: the
// physical value is divided by 2^n.
//
func (s Signal) ShiftValue(n int) Signal { return s.shift(n, false) }

func (s Signal) shift(n int, rescale bool) Signal {
	const op = "shift"
	opc := opShiftR
	if n < 0 {
		opc = opShiftL
	}
	if err := checkOperands(op, s); err != nil {
		return failed(opc, op, err, s)
	}
	if n == 0 {
		return s
	}
	r := derive(opc, s)
	r.kind = s.kind
	if n > 0 {
		r.expr.n = n
		r.v, r.min, r.max = s.v>>uint(n), s.min>>uint(n), s.max>>uint(n)
	} else {
		m := -n
		r.expr.n = m
		if kindWidth(s.kind, s.min, s.max)+m > 62 {
			r.fail(newError(RangeError, op, "left shift of %s by %d overflows", s.label(), m))
			r.expr.kind, r.expr.width = s.kind, s.width
			return r
		}
		r.v, r.min, r.max = s.v<<uint(m), s.min<<uint(m), s.max<<uint(m)
	}
	f := math.Ldexp(1, n)
	if rescale {
		r.scale = s.scale * f
		r.actual, r.actualMin, r.actualMax = s.actual, s.actualMin, s.actualMax
	} else {
		r.scale = s.scale
		r.actual, r.actualMin, r.actualMax = s.actual/f, s.actualMin/f, s.actualMax/f
	}
	r.width = s.width - n
	if w := kindWidth(r.kind, r.min, r.max); r.width < w {
		r.width = w
	}
	r.finish(op)
	return r
}

// Offset returns s - min, which must be non-negative over the whole range of
// s. It is used to move a signed range into an unsigned one.
//
func (s Signal) Offset(min Signal) Signal {
	r := s.Sub(min)
	if r.err != nil && r.err != s.err && r.err != min.err {
		return r
	}
	// a negative minimum is reported as an underflow of the unsigned result
	r.kind, r.width = Unsigned, rangeWidth(0, r.max)
	r.finish("offset")
	return r
}

// InvOffset returns s + min, undoing Offset.
//
func (s Signal) InvOffset(min Signal) Signal {
	return s.Add(min)
}

// Limit narrows the range of s to [min, max] without changing its value.
// This is a type narrowing, not a clamp: it is an error if the current value
// lies outside the new range.
//
func (s Signal) Limit(min, max Signal) Signal {
	return s.LimitCode(min.v, max.v, min.actual, max.actual)
}

// LimitCode is like Limit with explicit codes and actual bounds.
//
func (s Signal) LimitCode(minInt, maxInt int64, minActual, maxActual float64) Signal {
	const op = "limit"
	if err := checkOperands(op, s); err != nil {
		return failed(opRetype, op, err, s)
	}
	r := derive(opRetype, s)
	r.scale, r.v, r.actual = s.scale, s.v, s.actual
	r.min, r.max = minInt, maxInt
	r.actualMin, r.actualMax = minActual, maxActual
	r.kind, r.width = rangeKind(r.min), rangeWidth(r.min, r.max)
	r.finish(op)
	return r
}

// Resize returns s with the given bit width. The range of s must fit.
//
func (s Signal) Resize(width int) Signal {
	const op = "resize"
	if err := checkOperands(op, s); err != nil {
		return failed(opResize, op, err, s)
	}
	if width == s.width {
		return s
	}
	r := derive(opResize, s)
	r.kind, r.width = s.kind, width
	r.v, r.min, r.max, r.scale = s.v, s.min, s.max, s.scale
	r.actual, r.actualMin, r.actualMax = s.actual, s.actualMin, s.actualMax
	r.finish(op)
	return r
}

// withActual returns s with its ideal value replaced.
func (s Signal) withActual(v, min, max float64) Signal {
	s.actual, s.actualMin, s.actualMax = v, min, max
	return s
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (s Signal) compare(opc opcode, b Signal, ci func(x, y int64) bool, cf func(x, y float64) bool) Signal {
	op := opSymbols[opc]
	if err := checkOperands(op, s, b); err != nil {
		return failed(opc, op, err, s, b)
	}
	s, b, err := DefaultTarget.matchUnits(op, s, b)
	r := derive(opc, s, b)
	r.fail(err)
	r.kind, r.width, r.min, r.max, r.scale = Unsigned, 1, 0, 1, 1
	r.v = b2i(ci(s.v, b.v))
	r.actual, r.actualMin, r.actualMax = float64(b2i(cf(s.actual, b.actual))), 0, 1
	r.finish(op)
	return r
}

// Eq returns a 1 bit signal set to 1 if s = b.
func (s Signal) Eq(b Signal) Signal {
	return s.compare(opEq, b, func(x, y int64) bool { return x == y }, func(x, y float64) bool { return x == y })
}

// Ne returns a 1 bit signal set to 1 if s /= b.
func (s Signal) Ne(b Signal) Signal {
	return s.compare(opNe, b, func(x, y int64) bool { return x != y }, func(x, y float64) bool { return x != y })
}

// Lt returns a 1 bit signal set to 1 if s < b.
func (s Signal) Lt(b Signal) Signal {
	return s.compare(opLt, b, func(x, y int64) bool { return x < y }, func(x, y float64) bool { return x < y })
}

// Le returns a 1 bit signal set to 1 if s <= b.
func (s Signal) Le(b Signal) Signal {
	return s.compare(opLe, b, func(x, y int64) bool { return x <= y }, func(x, y float64) bool { return x <= y })
}

// Gt returns a 1 bit signal set to 1 if s > b.
func (s Signal) Gt(b Signal) Signal {
	return s.compare(opGt, b, func(x, y int64) bool { return x > y }, func(x, y float64) bool { return x > y })
}

// Ge returns a 1 bit signal set to 1 if s >= b.
func (s Signal) Ge(b Signal) Signal {
	return s.compare(opGe, b, func(x, y int64) bool { return x >= y }, func(x, y float64) bool { return x >= y })
}

func (s Signal) logical(opc opcode, b Signal, f func(x, y bool) bool) Signal {
	op := opSymbols[opc]
	if err := checkOperands(op, s, b); err != nil {
		return failed(opc, op, err, s, b)
	}
	r := derive(opc, s, b)
	r.kind, r.width, r.min, r.max, r.scale = Unsigned, 1, 0, 1, 1
	r.v = b2i(f(s.v != 0, b.v != 0))
	r.actual, r.actualMin, r.actualMax = float64(b2i(f(s.actual != 0, b.actual != 0))), 0, 1
	r.finish(op)
	return r
}

// And returns the logical and of two conditions.
func (s Signal) And(b Signal) Signal {
	return s.logical(opAnd, b, func(x, y bool) bool { return x && y })
}

// Or returns the logical or of two conditions.
func (s Signal) Or(b Signal) Signal {
	return s.logical(opOr, b, func(x, y bool) bool { return x || y })
}
