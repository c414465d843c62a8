// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

import (
	"io"
	"math"
	"math/bits"

	"github.com/db47h/fxsim/internal/coe"
)

// MaxLUTInputWidth is the largest supported LUT address width.
//
const MaxLUTInputWidth = 24

// A LUT is a block memory approximating a function of one signal. The input
// code is offset to 0 and shifted right to fit the address width; the output
// is stored as unsigned codes offset by the minimum of the function, with a
// scale that is a power of two multiple of the requested output scale.
//
type LUT struct {
	name string
	f    func(float64) float64
	ok   bool

	inMin, inMax int64
	inScale      float64
	inShift      int
	inWidth      int
	invMin       float64
	invMax       float64

	outWidth int
	outMax   int64
	scale    float64
	offset   int64
	lo, hi   float64

	table []int64
}

// NewLUT returns an empty lookup table. name is used for the memory instance
// and its COE file.
//
func NewLUT(name string) *LUT {
	return &LUT{name: name}
}

// Name returns the LUT name.
func (l *LUT) Name() string { return l.name }

// InputWidth returns the address width.
func (l *LUT) InputWidth() int { return l.inWidth }

// OutputWidth returns the word width.
func (l *LUT) OutputWidth() int { return l.outWidth }

// InputShift returns the right shift applied to the offset input code.
func (l *LUT) InputShift() int { return l.inShift }

// Scale returns the physical value of one output code.
func (l *LUT) Scale() float64 { return l.scale }

// Offset returns the code added to every table entry on output.
func (l *LUT) Offset() int64 { return l.offset }

// Size returns the number of entries.
func (l *LUT) Size() int { return len(l.table) }

// SetFunction computes the table of f for inputs in the range of in.
// Inputs are clamped to the interval between inverseMin and inverseMax before
// calling f, and f must be defined at both bounds. The bounds may be given in
// any order. The output scale is outputScale multiplied by the
// smallest power of two such that the output range fits outputBitWidth bits.
//
func (l *LUT) SetFunction(f func(float64) float64, in Signal, inverseMin, inverseMax, outputScale float64, inputBitWidth, outputBitWidth int) error {
	const op = "lut"
	fail := func(kind ErrorKind, format string, args ...interface{}) error {
		l.ok = false
		return report(newError(kind, op, format, args...), l.name)
	}
	switch {
	case f == nil:
		return fail(ArgumentError, "%s: nil function", l.name)
	case in.blank || in.kind == Slv:
		return fail(TypeError, "%s: input must be a number", l.name)
	case inputBitWidth < 1 || inputBitWidth > MaxLUTInputWidth:
		return fail(LUTError, "%s: input width %d out of [1, %d]", l.name, inputBitWidth, MaxLUTInputWidth)
	case outputBitWidth < 1 || outputBitWidth > 62:
		return fail(LUTError, "%s: output width %d out of [1, 62]", l.name, outputBitWidth)
	case !(outputScale > 0) || math.IsInf(outputScale, 0):
		return fail(LUTError, "%s: invalid output scale %g", l.name, outputScale)
	case math.IsNaN(inverseMin) || math.IsNaN(inverseMax):
		return fail(LUTError, "%s: invalid inverse range [%g, %g]", l.name, inverseMin, inverseMax)
	}
	// bounds may come in either order
	if inverseMin > inverseMax {
		inverseMin, inverseMax = inverseMax, inverseMin
	}
	ylo, yhi := f(inverseMin), f(inverseMax)
	if !finite(ylo) || !finite(yhi) {
		return fail(LUTError, "%s: function is not defined at inverse bounds [%g, %g]", l.name, inverseMin, inverseMax)
	}

	l.f = f
	l.inMin, l.inMax, l.inScale = in.min, in.max, in.scale
	l.inWidth, l.outWidth = inputBitWidth, outputBitWidth
	l.invMin, l.invMax = inverseMin, inverseMax
	l.inShift = bits.Len64(uint64(in.max-in.min)) - inputBitWidth
	if l.inShift < 0 {
		l.inShift = 0
	}

	ys := make([]float64, 1<<uint(inputBitWidth))
	lo, hi := math.Min(ylo, yhi), math.Max(ylo, yhi)
	for i := range ys {
		ys[i] = f(l.Sample(int64(i)))
		if finite(ys[i]) {
			lo, hi = math.Min(lo, ys[i]), math.Max(hi, ys[i])
		}
	}
	l.lo, l.hi = lo, hi

	l.outMax = 1<<uint(outputBitWidth) - 1
	k := 0
	for ; k <= 62; k++ {
		s := math.Ldexp(outputScale, k)
		if math.Round(hi/s)-math.Round(lo/s) <= float64(l.outMax) {
			break
		}
	}
	if k > 62 {
		return fail(LUTError, "%s: output range [%g, %g] does not fit %d bits", l.name, lo, hi, outputBitWidth)
	}
	l.scale = math.Ldexp(outputScale, k)
	l.offset = int64(math.Round(lo / l.scale))

	l.table = make([]int64, len(ys))
	for i, y := range ys {
		if !finite(y) {
			warn(op, l.name, "undefined function value clamped to 0")
			continue
		}
		e := int64(math.Round(y/l.scale)) - l.offset
		switch {
		case e < 0:
			warn(op, l.name, "table entry clamped to 0")
			e = 0
		case e > l.outMax:
			warn(op, l.name, "table entry clamped to the largest code")
			e = l.outMax
		}
		l.table[i] = e
	}
	l.ok = true
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// Sample returns the physical input value for a table index, clamped to the
// inverse bounds.
//
func (l *LUT) Sample(i int64) float64 {
	c := l.inMin + i<<uint(l.inShift)
	if c > l.inMax {
		c = l.inMax
	}
	return l.clampInverse(float64(c) * l.inScale)
}

// Decode returns the physical value of a table entry.
//
func (l *LUT) Decode(e int64) float64 {
	return float64(e+l.offset) * l.scale
}

func (l *LUT) clampInverse(x float64) float64 {
	return math.Min(math.Max(x, l.invMin), l.invMax)
}

// Table returns a copy of the table entries.
//
func (l *LUT) Table() ([]int64, error) {
	if !l.ok {
		return nil, newError(LUTError, "lut", "%s: function not set", l.name)
	}
	return append([]int64(nil), l.table...), nil
}

// Lookup returns the table entry at index. Indices out of the table are
// clamped with a warning.
//
func (l *LUT) Lookup(index int64) int64 {
	if len(l.table) == 0 {
		return 0
	}
	switch {
	case index < 0:
		warn("lookup", l.name, "negative index clamped to 0")
		index = 0
	case index >= int64(len(l.table)):
		warn("lookup", l.name, "index past the table clamped to the last entry")
		index = int64(len(l.table)) - 1
	}
	return l.table[index]
}

// WriteCOE writes the table as a COE memory initialization file.
//
func (l *LUT) WriteCOE(w io.Writer, radix int) error {
	t, err := l.Table()
	if err != nil {
		return err
	}
	return coe.Write(w, radix, l.outWidth, t)
}

// Operate inserts l into the pipeline and assigns its output to out.
//
// The input is offset and shifted into an address assigned to <name>_in. The
// memory output <name>_out is valid one clock later, and out one clock after
// that. The ideal value of the result is f applied to the ideal input.
//
func (c *Context) Operate(l *LUT, in Signal, out Handle) (Signal, error) {
	const op = "operate"
	if err := c.checkTarget(op, out); err != nil {
		return Blank(), err
	}
	name := c.names[out]
	switch {
	case !l.ok:
		return c.binds[out], c.fail(newError(LUTError, op, "%s: function not set", l.name), name)
	case in.blank || in.kind == Slv:
		return c.binds[out], c.fail(newError(TypeError, op, "%s: input must be a number", l.name), name)
	case !c.Target.sameScale(in.scale, l.inScale):
		return c.binds[out], c.fail(newError(UnitError, op, "%s: input scale %g does not match table scale %g", l.name, in.scale, l.inScale), name)
	}
	if c.print {
		if err := c.registerLUT(l); err != nil {
			return c.binds[out], err
		}
	}

	addr := in.Offset(ConstCode(l.inMin, in.scale)).Shift(l.inShift)
	a, err := c.Assign(c.Declare(l.name+"_in"), addr)

	hq := c.Declare(l.name + "_out")
	q := FromBits(toBits(l.Lookup(a.v), l.outWidth), a.clock+1)
	c.bind(hq, q, q.clock)
	if c.print {
		c.declare(l.name+"_addr", Slv, l.inWidth)
		c.declare(l.name+"_out", Slv, l.outWidth)
	}
	q = c.binds[hq]

	r := q.SlvToUnsigned(Meta{Scale: l.scale, Min: 0, Max: l.outMax}).
		InvOffset(ConstCode(l.offset, l.scale)).
		withActual(l.f(l.clampInverse(in.actual)), l.lo, l.hi)
	s, aerr := c.Assign(out, r)
	if err == nil {
		err = aerr
	}
	return s, err
}
