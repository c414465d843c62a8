// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

import "math"

// Target holds the synthesis target parameters used by arithmetic operators.
//
// Before a multiplication, the operand with the largest bit width is shifted
// right until it fits MulLargeUnsigned (resp. MulLargeSigned) bits and the
// other operand until it fits MulSmallUnsigned (resp. MulSmallSigned) bits.
// The defaults match the 25x18 DSP slices found on Xilinx 7 series parts.
// A zero limit disables shifting for that operand.
//
// UnitTolerance is the relative tolerance used to decide whether two scales
// are equal.
//
type Target struct {
	MulLargeUnsigned int
	MulLargeSigned   int
	MulSmallUnsigned int
	MulSmallSigned   int
	UnitTolerance    float64
}

// DefaultTarget is the target used by the Signal operator methods.
//
var DefaultTarget = Target{
	MulLargeUnsigned: 24,
	MulLargeSigned:   25,
	MulSmallUnsigned: 17,
	MulSmallSigned:   18,
	UnitTolerance:    1e-5,
}

func (t Target) sameScale(a, b float64) bool {
	if a == b {
		return true
	}
	if a == 0 || b == 0 {
		return false
	}
	return math.Abs(a/b-1) <= t.UnitTolerance
}

// matchUnits brings a and b to the same scale by left shifting the operand
// with the coarser scale.
//
func (t Target) matchUnits(op string, a, b Signal) (Signal, Signal, error) {
	if t.sameScale(a.scale, b.scale) {
		return a, b, nil
	}
	if a.scale <= 0 || b.scale <= 0 {
		return a, b, newError(UnitError, op, "cannot match scales %g and %g", a.scale, b.scale)
	}
	r := a.scale / b.scale
	n := int(math.Round(math.Log2(r)))
	if !t.sameScale(r, math.Ldexp(1, n)) {
		return a, b, newError(UnitError, op, "scales %g and %g differ by %g, not a power of two", a.scale, b.scale, r)
	}
	if n > 0 {
		a = a.Shift(-n)
		a.scale = b.scale
	} else {
		b = b.Shift(n)
		b.scale = a.scale
	}
	return a, b, nil
}

// fitMul shifts s right so that its width does not exceed the given limits.
//
func fitMul(s Signal, unsignedLimit, signedLimit int) Signal {
	limit := unsignedLimit
	if s.kind == Signed {
		limit = signedLimit
	}
	if limit > 0 && s.width > limit {
		return s.Shift(s.width - limit)
	}
	return s
}
