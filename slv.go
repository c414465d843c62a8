// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

// Meta is the numeric metadata needed to turn a raw bit vector back into a
// number.
//
type Meta struct {
	Scale float64
	Min   int64
	Max   int64
}

// ToSlv reinterprets s as a raw bit vector of the same width, in two's
// complement for signed values.
//
func (s Signal) ToSlv() Signal {
	const op = "toSlv"
	if s.kind == Slv {
		return s
	}
	if s.blank {
		return failed(opToSlv, op, newError(ArgumentError, op, "blank signal"), s)
	}
	r := derive(opToSlv, s)
	r.kind, r.width = Slv, s.width
	if r.width < 1 {
		r.width = 1
	}
	r.bits = toBits(s.v, r.width)
	r.expr.kind, r.expr.width = r.kind, r.width
	return r
}

// SlvToSigned reinterprets a raw bit vector as a signed number with the given
// metadata.
//
func (s Signal) SlvToSigned(m Meta) Signal { return s.fromSlv("slvToSigned", Signed, m) }

// SlvToUnsigned reinterprets a raw bit vector as an unsigned number with the
// given metadata.
//
func (s Signal) SlvToUnsigned(m Meta) Signal { return s.fromSlv("slvToUnsigned", Unsigned, m) }

func (s Signal) fromSlv(op string, k Kind, m Meta) Signal {
	switch {
	case s.kind != Slv:
		return failed(opFromSlv, op, newError(TypeError, op, "%s is %s, not a bit vector", s.label(), s.kind), s)
	case len(s.bits) > 63:
		return failed(opFromSlv, op, newError(TypeError, op, "bit vector of %d bits is too large", len(s.bits)), s)
	}
	r := derive(opFromSlv, s)
	r.kind, r.width = k, s.width
	r.v = fromBits(s.bits, k == Signed)
	r.min, r.max, r.scale = m.Min, m.Max, m.Scale
	r.actual, r.actualMin, r.actualMax = float64(r.v)*m.Scale, float64(m.Min)*m.Scale, float64(m.Max)*m.Scale
	r.finish(op)
	return r
}

func toBits(v int64, w int) []bool {
	b := make([]bool, w)
	for i := 0; i < w && i < 64; i++ {
		b[i] = uint64(v)>>uint(i)&1 != 0
	}
	if v < 0 {
		for i := 64; i < w; i++ {
			b[i] = true
		}
	}
	return b
}

func fromBits(b []bool, signed bool) int64 {
	var u uint64
	for i, x := range b {
		if x {
			u |= 1 << uint(i)
		}
	}
	if signed && len(b) > 0 && len(b) < 64 && b[len(b)-1] {
		return int64(u) - 1<<uint(len(b))
	}
	return int64(u)
}
