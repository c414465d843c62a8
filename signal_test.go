package fxsim_test

import (
	"math"
	"testing"
	"testing/quick"

	fx "github.com/db47h/fxsim"
	"github.com/pkg/errors"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func checkSignal(t *testing.T, s fx.Signal, v, min, max int64, k fx.Kind, w int) {
	t.Helper()
	if err := s.Err(); err != nil {
		trace(t, err)
		t.Fatalf("%v: unexpected error %v", s, err)
	}
	if s.Int() != v || s.MinInt() != min || s.MaxInt() != max {
		t.Errorf("got %d [%d, %d], expected %d [%d, %d]", s.Int(), s.MinInt(), s.MaxInt(), v, min, max)
	}
	if s.Kind() != k || s.Width() != w {
		t.Errorf("got %s %d bits, expected %s %d bits", s.Kind(), s.Width(), k, w)
	}
}

func TestFromReal(t *testing.T) {
	s := fx.FromReal(10, 0.5, 0, 1, 0)
	checkSignal(t, s, 512, 0, 1023, fx.Unsigned, 10)
	if d := math.Abs(s.Real() - 0.5); d > s.Scale()/2 {
		t.Errorf("quantization error %g larger than half a code", d)
	}

	s = fx.FromReal(8, -1, -1, 1, 0)
	checkSignal(t, s, -127, -127, 127, fx.Signed, 8)

	for _, tc := range []struct {
		name        string
		w           int
		v, min, max float64
		kind        fx.ErrorKind
	}{
		{"zero width", 0, 0, 0, 1, fx.ArgumentError},
		{"inverted", 8, 0, 1, 0, fx.RangeError},
		{"no scale", 8, 0, 0, 0, fx.ArgumentError},
		{"overflow", 8, 2, 0, 1, fx.RangeError},
	} {
		s := fx.FromReal(tc.w, tc.v, tc.min, tc.max, 0)
		if k := fx.KindOf(s.Err()); k != tc.kind {
			t.Errorf("%s: got %v, expected %v", tc.name, k, tc.kind)
		}
	}
}

func TestSignal_Add(t *testing.T) {
	a := fx.FromCode(8, 100, 0, 255, 1, 0)
	b := fx.FromCode(8, 50, 0, 255, 1, 0)
	checkSignal(t, a.Add(b), 150, 0, 510, fx.Unsigned, 9)
	checkSignal(t, a.Sub(b), 50, -255, 255, fx.Signed, 9)

	// -a + a
	s := fx.FromCode(4, 3, -7, 7, 1, 0)
	checkSignal(t, s.Neg().Add(s), 0, 0, 0, fx.Unsigned, 0)
	checkSignal(t, s.Add(s.Neg()), 0, 0, 0, fx.Unsigned, 0)
}

func TestSignal_Sub_self(t *testing.T) {
	s := fx.FromCode(4, 3, -7, 7, 1, 0)
	checkSignal(t, s.Sub(s), 0, 0, 0, fx.Unsigned, 0)
	// copies share their identity
	c := s
	checkSignal(t, s.Sub(c), 0, 0, 0, fx.Unsigned, 0)
	// equal values do not
	o := fx.FromCode(4, 3, -7, 7, 1, 0)
	checkSignal(t, s.Sub(o), 0, -14, 14, fx.Signed, 5)
}

func TestSignal_units(t *testing.T) {
	a := fx.FromCode(4, 3, 0, 15, 0.5, 0)
	b := fx.FromCode(4, 1, 0, 15, 0.25, 0)
	s := a.Add(b)
	checkSignal(t, s, 7, 0, 45, fx.Unsigned, 6)
	if s.Scale() != 0.25 || s.Real() != 1.75 {
		t.Errorf("got %g x %g, expected 1.75 x 0.25", s.Real(), s.Scale())
	}
	s = b.Add(a)
	checkSignal(t, s, 7, 0, 45, fx.Unsigned, 6)

	c := fx.FromCode(4, 1, 0, 15, 0.3, 0)
	if err := a.Add(c).Err(); !fx.IsKind(err, fx.UnitError) {
		t.Errorf("expected unit error, got %v", err)
	}
}

func TestSignal_Mul(t *testing.T) {
	a := fx.FromCode(4, -3, -7, 7, 1, 0)
	checkSignal(t, a.Mul(a), 9, 0, 49, fx.Unsigned, 6)
	b := fx.FromCode(4, 2, -7, 7, 1, 0)
	checkSignal(t, a.Mul(b), -6, -49, 49, fx.Signed, 7)

	// wide operands are fitted to the DSP inputs
	w := fx.FromCode(30, 1<<29, 0, 1<<30-1, 1, 0)
	n := fx.FromCode(4, 3, 0, 15, 1, 0)
	s := w.Mul(n)
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	if s.Scale() != 64 || s.Int() != 3<<23 {
		t.Errorf("got %d x %g, expected %d x 64", s.Int(), s.Scale(), 3<<23)
	}
	if s.Real() != 3<<29 {
		t.Errorf("got %g, expected %d", s.Real(), 3<<29)
	}
}

func TestSignal_overflow(t *testing.T) {
	s := fx.FromCode(4, 16, 0, 15, 1, 0)
	if !fx.IsKind(s.Err(), fx.RangeError) {
		t.Errorf("expected range error, got %v", s.Err())
	}
	// errors propagate
	r := s.Add(fx.ConstCode(1, 1))
	if r.Err() != s.Err() {
		t.Errorf("error not propagated: %v", r.Err())
	}
	s = fx.FromCode(8, 200, 0, 255, 1, 0).Resize(4)
	if !fx.IsKind(s.Err(), fx.RangeError) {
		t.Errorf("expected range error, got %v", s.Err())
	}
}

func TestSignal_Offset(t *testing.T) {
	a := fx.FromCode(5, -3, -10, 10, 0.5, 0)
	m := fx.ConstCode(-10, 0.5)
	o := a.Offset(m)
	checkSignal(t, o, 7, 0, 20, fx.Unsigned, 5)
	r := o.InvOffset(m)
	checkSignal(t, r, -3, -10, 10, fx.Signed, 5)
	if r.Real() != -1.5 {
		t.Errorf("got %g, expected -1.5", r.Real())
	}

	// offset too small
	o = a.Offset(fx.ConstCode(-5, 0.5))
	if !fx.IsKind(o.Err(), fx.RangeError) {
		t.Errorf("expected range error, got %v", o.Err())
	}
}

func TestSignal_Shift(t *testing.T) {
	s := fx.FromCode(8, -5, -100, 100, 1, 0)
	r := s.Shift(1)
	checkSignal(t, r, -3, -50, 50, fx.Signed, 7)
	if r.Scale() != 2 || r.Actual() != -5 {
		t.Errorf("got %g x %g, expected -5 x 2", r.Actual(), r.Scale())
	}
	r = s.ShiftValue(1)
	if r.Scale() != 1 || r.Actual() != -2.5 {
		t.Errorf("got %g x %g, expected -2.5 x 1", r.Actual(), r.Scale())
	}
	r = s.Shift(-2)
	checkSignal(t, r, -20, -400, 400, fx.Signed, 10)
}

func TestSignal_Limit(t *testing.T) {
	s := fx.FromCode(8, 5, 0, 200, 1, 0)
	checkSignal(t, s.LimitCode(0, 10, 0, 10), 5, 0, 10, fx.Unsigned, 4)
	if err := s.LimitCode(0, 3, 0, 3).Err(); !fx.IsKind(err, fx.RangeError) {
		t.Errorf("expected range error, got %v", err)
	}
	if err := s.LimitCode(10, 3, 10, 3).Err(); !fx.IsKind(err, fx.RangeError) {
		t.Errorf("expected range error, got %v", err)
	}
}

func TestSignal_compare(t *testing.T) {
	a := fx.FromCode(4, 3, 0, 15, 1, 0)
	b := fx.FromCode(4, 5, 0, 15, 1, 0)
	for _, tc := range []struct {
		name string
		s    fx.Signal
		v    int64
	}{
		{"eq", a.Eq(b), 0},
		{"ne", a.Ne(b), 1},
		{"lt", a.Lt(b), 1},
		{"le", a.Le(a), 1},
		{"gt", a.Gt(b), 0},
		{"ge", b.Ge(a), 1},
		{"and", a.Lt(b).And(a.Eq(b)), 0},
		{"or", a.Lt(b).Or(a.Eq(b)), 1},
	} {
		checkSignal(t, tc.s, tc.v, 0, 1, fx.Unsigned, 1)
		if tc.s.Actual() != float64(tc.v) {
			t.Errorf("%s: actual %g, expected %d", tc.name, tc.s.Actual(), tc.v)
		}
	}
}

func TestSignal_Slv(t *testing.T) {
	a := fx.FromCode(5, -3, -10, 10, 0.5, 0)
	s := a.ToSlv()
	if s.Kind() != fx.Slv || s.Width() != 5 {
		t.Fatalf("got %s %d bits", s.Kind(), s.Width())
	}
	bits := s.Bits()
	exp := []bool{true, false, true, true, true} // 11101
	for i := range exp {
		if bits[i] != exp[i] {
			t.Fatalf("got bits %v, expected %v", bits, exp)
		}
	}
	r := s.SlvToSigned(fx.Meta{Scale: 0.5, Min: -10, Max: 10})
	checkSignal(t, r, -3, -10, 10, fx.Signed, 5)
	if r.Real() != -1.5 {
		t.Errorf("got %g, expected -1.5", r.Real())
	}
	r = s.SlvToUnsigned(fx.Meta{Scale: 1, Min: 0, Max: 31})
	checkSignal(t, r, 29, 0, 31, fx.Unsigned, 5)

	if err := s.Add(a).Err(); !fx.IsKind(err, fx.TypeError) {
		t.Errorf("expected type error, got %v", err)
	}
	if err := a.SlvToSigned(fx.Meta{Scale: 1}).Err(); !fx.IsKind(err, fx.TypeError) {
		t.Errorf("expected type error, got %v", err)
	}
}

func TestSignal_Deps(t *testing.T) {
	a := fx.FromCode(4, 3, 0, 15, 1, 2)
	b := fx.ConstCode(5, 1)
	ds := a.Add(b).Deps()
	if len(ds) != 2 {
		t.Fatalf("got %d deps, expected 2", len(ds))
	}
	if !ds[0].Input || ds[0].Clock != 2 || ds[0].Value != 3 {
		t.Errorf("bad input dep %+v", ds[0])
	}
	if !ds[1].Const || ds[1].Clock != fx.ClockConst || ds[1].Value != 5 {
		t.Errorf("bad const dep %+v", ds[1])
	}
	if c := a.Add(b).Clock(); c != 2 {
		t.Errorf("got clock %d, expected 2", c)
	}
}

// sums never leave their computed range.
func TestSignal_Add_quick(t *testing.T) {
	f := func(x, y uint8, sx, sy bool) bool {
		a := fx.FromCode(9, int64(x), -255, 255, 1, 0)
		if sx {
			a = a.Neg()
		}
		b := fx.FromCode(8, int64(y), 0, 255, 1, 0)
		if sy {
			b = b.Neg()
		}
		s := a.Add(b)
		return s.Err() == nil && s.MinInt() <= s.Int() && s.Int() <= s.MaxInt() && s.Actual() == a.Actual()+b.Actual()
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestFromReal_wide(t *testing.T) {
	for _, tc := range []struct {
		w        int
		v        float64
		min, max float64
		k        fx.Kind
	}{
		{50, 0.5, 0, 1, fx.Unsigned},
		{53, 1, 0, 1, fx.Unsigned},
		{56, 0.25, 0, 1, fx.Unsigned},
		{60, 1, 0, 1, fx.Unsigned},
		{62, 0, 0, 1, fx.Unsigned},
		{53, -1, -1, 1, fx.Signed},
		{60, 0.25, -1, 1, fx.Signed},
		{60, 1, -0.5, 1, fx.Signed},
		{62, -1, -1, 0.5, fx.Signed},
	} {
		s := fx.FromReal(tc.w, tc.v, tc.min, tc.max, 0)
		if err := s.Err(); err != nil {
			t.Errorf("%d bits [%g, %g]: unexpected error %v", tc.w, tc.min, tc.max, err)
			continue
		}
		top := int64(1)<<uint(tc.w) - 1
		if tc.k == fx.Signed {
			top = int64(1)<<uint(tc.w-1) - 1
		}
		if s.Kind() != tc.k || s.Width() != tc.w {
			t.Errorf("%d bits: got %s %d bits", tc.w, s.Kind(), s.Width())
		}
		if s.MaxInt() != top && s.MinInt() != -top {
			t.Errorf("%d bits: range [%d, %d] does not reach the largest code %d", tc.w, s.MinInt(), s.MaxInt(), top)
		}
		if d := math.Abs(s.Real() - tc.v); d > s.Scale() {
			t.Errorf("%d bits: quantization error %g", tc.w, d)
		}
	}
}

func TestTarget_Mul_overflow(t *testing.T) {
	nolimit := fx.Target{UnitTolerance: 1e-5}
	a := fx.FromCode(40, 1<<39, 0, 1<<40-1, 1, 0)
	b := fx.FromCode(41, 3, -(1<<39), 1<<39, 1, 0)
	for _, tc := range []struct {
		name string
		x, y fx.Signal
	}{
		{"square", a, a},
		{"signed", a, b},
	} {
		r := nolimit.Mul(tc.x, tc.y)
		if !fx.IsKind(r.Err(), fx.RangeError) {
			t.Errorf("%s: expected range error, got %v (%d [%d, %d])", tc.name, r.Err(), r.Int(), r.MinInt(), r.MaxInt())
		}
	}

	// products that fit are exact
	c := fx.FromCode(31, 1<<30, 0, 1<<31-1, 1, 0)
	r := nolimit.Mul(c, c)
	checkSignal(t, r, 1<<60, 0, (1<<31-1)*(1<<31-1), fx.Unsigned, 62)

	// the default target shifts the operands first
	if err := a.Mul(a).Err(); err != nil {
		t.Errorf("default target: unexpected error %v", err)
	}
}
