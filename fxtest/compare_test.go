package fxtest_test

import (
	"math"
	"testing"

	fx "github.com/db47h/fxsim"
	"github.com/db47h/fxsim/fxtest"
)

func TestComparePipeline(t *testing.T) {
	in := []fx.Value{
		{Name: "a", Width: 10, Min: 0, Max: 1},
		{Name: "b", Width: 10, Min: -1, Max: 1},
	}
	fxtest.ComparePipeline(t, 200, in, func(c *fx.Context, s []fx.Signal) (fx.Signal, error) {
		return c.Assign(c.Declare("y"), s[0].Mul(s[1]))
	}, func(x []float64) float64 {
		return x[0] * x[1]
	}, 4e-3)
	fxtest.ComparePipeline(t, 200, in[:1], func(c *fx.Context, s []fx.Signal) (fx.Signal, error) {
		y, err := c.Assign(c.Declare("y"), s[0].Add(s[0]))
		if err != nil {
			return y, err
		}
		return c.Assign(c.Declare("z"), y.Sub(s[0]))
	}, func(x []float64) float64 {
		return x[0]
	}, 1e-3)
}

func TestCheckLUT(t *testing.T) {
	in := fx.FromReal(10, 1, 0, 2, 0)
	l := fx.NewLUT("sqrt")
	if err := l.SetFunction(math.Sqrt, in, 0, 2, 1e-3, 8, 12); err != nil {
		t.Fatal(err)
	}
	fxtest.CheckLUT(t, l, math.Sqrt, 1e-12)
}
