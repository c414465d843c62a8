// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxlib

import (
	"github.com/db47h/fxsim"
)

// Clamp assigns x clamped to [lo, hi] to target. lo and hi are usually
// constants with the same scale as x.
//
//	Function: target = lo if x < lo
//	                   x  if lo <= x <= hi
//	                   hi otherwise
//
func Clamp(c *fxsim.Context, target fxsim.Handle, x, lo, hi fxsim.Signal) (fxsim.Signal, error) {
	return c.Choose(target, x,
		fxsim.Range(lo, fxsim.Blank(), lo),
		fxsim.Range(x, lo, hi),
		fxsim.Default(hi))
}

// Max assigns the largest of a and b to target.
//
func Max(c *fxsim.Context, target fxsim.Handle, a, b fxsim.Signal) (fxsim.Signal, error) {
	err := c.IfElse(
		fxsim.When(a.Ge(b), fxsim.Set(target, a)),
		fxsim.Else(fxsim.Set(target, b)))
	return c.Get(target), err
}

// Min assigns the smallest of a and b to target.
//
func Min(c *fxsim.Context, target fxsim.Handle, a, b fxsim.Signal) (fxsim.Signal, error) {
	err := c.IfElse(
		fxsim.When(a.Le(b), fxsim.Set(target, a)),
		fxsim.Else(fxsim.Set(target, b)))
	return c.Get(target), err
}

// Truncate assigns x to target, dropping its least significant bits so that
// it fits the given width. The physical value is kept up to the new
// quantization step.
//
func Truncate(c *fxsim.Context, target fxsim.Handle, x fxsim.Signal, width int) (fxsim.Signal, error) {
	if n := x.Width() - width; n > 0 {
		x = x.Shift(n)
	}
	return c.Assign(target, x)
}
