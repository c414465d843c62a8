// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package fxtest provides utility functions for testing pipelines.
//
package fxtest

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/fxsim"
)

// A BuildFn builds a pipeline in c from the seeded inputs and returns its
// result.
//
type BuildFn func(c *fxsim.Context, in []fxsim.Signal) (fxsim.Signal, error)

func randIn(v fxsim.Value) float64 {
	return v.Min + rand.Float64()*(v.Max-v.Min)
}

// ComparePipeline builds a pipeline n times with random input values and
// compares its quantized result against ideal. Inputs are taken from the
// given values: their names, widths, ranges and clocks are kept, their values
// are replaced. The first two runs use all minimum and all maximum values.
//
// The ideal value tracked alongside the integer codes must match ideal
// exactly, and the quantized result must be within tol of it.
//
func ComparePipeline(t *testing.T, n int, inputs []fxsim.Value, build BuildFn, ideal func([]float64) float64, tol float64) {
	t.Helper()

	rand.Seed(time.Now().UnixNano())

	vals := make([]fxsim.Value, len(inputs))
	copy(vals, inputs)
	xs := make([]float64, len(vals))

	errString := func(what string, ex, got float64) string {
		var b strings.Builder
		for i, v := range vals {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%g", v.Name, xs[i])
		}
		return fmt.Sprintf("\nExpected %s => %s=%g\nGot %g", b.String(), what, ex, got)
	}

	run := func() {
		t.Helper()
		for i := range vals {
			vals[i].Value = xs[i]
		}
		c := fxsim.NewContext("compare")
		c.SetPrint(false)
		hs, err := c.Seed(vals)
		if err != nil {
			t.Fatal(err)
		}
		in := make([]fxsim.Signal, len(hs))
		for i, h := range hs {
			in[i] = c.Get(h)
		}
		r, err := build(c, in)
		if err != nil {
			t.Fatal(err)
		}
		ex := ideal(xs)
		if d := math.Abs(r.Actual() - ex); d > 1e-9*math.Max(1, math.Abs(ex)) {
			t.Fatal(errString("ideal", ex, r.Actual()))
		}
		if d := math.Abs(r.Real() - ex); d > tol {
			t.Fatal(errString("quantized", ex, r.Real()))
		}
	}

	start := time.Now()

	// try all min
	for i, v := range inputs {
		xs[i] = v.Min
	}
	run()

	// try all max
	for i, v := range inputs {
		xs[i] = v.Max
	}
	run()

	for i := 0; i < n; i++ {
		for k, v := range inputs {
			xs[k] = randIn(v)
		}
		run()
	}

	t.Logf("%d runs in %v", n+2, time.Since(start))
}

// CheckLUT checks every entry of l against f. The decoded output must be
// within half an output code plus tol of f applied to the entry's input.
//
func CheckLUT(t *testing.T, l *fxsim.LUT, f func(float64) float64, tol float64) {
	t.Helper()
	tb, err := l.Table()
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range tb {
		x := l.Sample(int64(i))
		ex := f(x)
		if math.IsNaN(ex) || math.IsInf(ex, 0) {
			continue
		}
		if got := l.Decode(e); math.Abs(got-ex) > l.Scale()/2+tol {
			t.Errorf("%s: entry %d: f(%g) = %g, got %g", l.Name(), i, x, ex, got)
		}
	}
}
