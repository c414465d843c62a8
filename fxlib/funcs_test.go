package fxlib_test

import (
	"math"
	"testing"

	fl "github.com/db47h/fxsim/fxlib"
)

func TestFunc(t *testing.T) {
	for _, tc := range []struct {
		name   string
		params []float64
		x, y   float64
	}{
		{"identity", nil, 0.5, 0.5},
		{"sqrt", nil, 4, 2},
		{"sin", nil, math.Pi / 2, 1},
		{"cos", nil, 0, 1},
		{"atan", nil, 1, math.Pi / 4},
		{"inverse", nil, 4, 0.25},
		{"inverse", []float64{2}, 4, 0.5},
		{"acos_r2x", []float64{1}, 1, math.Pi / 3},
	} {
		f, err := fl.Func(tc.name, tc.params)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if y := f(tc.x); math.Abs(y-tc.y) > 1e-12 {
			t.Errorf("%s(%g) = %g, expected %g", tc.name, tc.x, y, tc.y)
		}
	}
}

func TestFunc_errors(t *testing.T) {
	if _, err := fl.Func("nope", nil); err == nil {
		t.Error("expected error for unknown function")
	}
	if _, err := fl.Func("sqrt", []float64{1}); err == nil {
		t.Error("expected error for extra parameter")
	}
	if _, err := fl.Func("acos_r2x", nil); err == nil {
		t.Error("expected error for missing parameter")
	}
	if _, err := fl.Func("inverse", []float64{1, 2}); err == nil {
		t.Error("expected error for extra parameters")
	}
}

func TestRegister(t *testing.T) {
	fl.Register("square", func(p []float64) (func(float64) float64, error) {
		return func(x float64) float64 { return x * x }, nil
	})
	f, err := fl.Func("square", nil)
	if err != nil {
		t.Fatal(err)
	}
	if f(3) != 9 {
		t.Errorf("square(3) = %g", f(3))
	}
	found := false
	for _, n := range fl.Names() {
		if n == "square" {
			found = true
		}
	}
	if !found {
		t.Errorf("square not in %v", fl.Names())
	}
}
