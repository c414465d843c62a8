// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package fxlib provides a library of LUT functions and small pipeline
// building blocks built on top of fxsim.
//
package fxlib

import (
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// A FuncMaker returns a function of one real variable given its parameters.
//
type FuncMaker func(params []float64) (func(float64) float64, error)

var (
	mu    sync.RWMutex
	funcs = map[string]FuncMaker{
		"identity": plain(func(x float64) float64 { return x }),
		"sqrt":     plain(math.Sqrt),
		"sin":      plain(math.Sin),
		"cos":      plain(math.Cos),
		"atan":     plain(math.Atan),
		"acos_r2x": acosR2x,
		"inverse":  inverse,
	}
)

func plain(f func(float64) float64) FuncMaker {
	return func(params []float64) (func(float64) float64, error) {
		if len(params) != 0 {
			return nil, errors.Errorf("expected no parameters, got %d", len(params))
		}
		return f, nil
	}
}

// acosR2x returns x -> acos(r / 2x), the crossing angle of a circle of
// radius x through the origin with a circle of radius r centered on the
// origin.
//
func acosR2x(params []float64) (func(float64) float64, error) {
	if len(params) != 1 {
		return nil, errors.Errorf("acos_r2x expects one parameter r, got %d", len(params))
	}
	r := params[0]
	return func(x float64) float64 { return math.Acos(r / (2 * x)) }, nil
}

// inverse returns x -> k / x. k defaults to 1.
func inverse(params []float64) (func(float64) float64, error) {
	k := 1.0
	switch len(params) {
	case 0:
	case 1:
		k = params[0]
	default:
		return nil, errors.Errorf("inverse expects at most one parameter, got %d", len(params))
	}
	return func(x float64) float64 { return k / x }, nil
}

// Register adds or replaces a named function.
//
func Register(name string, f FuncMaker) {
	mu.Lock()
	funcs[name] = f
	mu.Unlock()
}

// Func returns the named function with the given parameters.
//
func Func(name string, params []float64) (func(float64) float64, error) {
	mu.RLock()
	mk, ok := funcs[name]
	mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown function %q", name)
	}
	f, err := mk(params)
	return f, errors.Wrapf(err, "function %q", name)
}

// Names returns the sorted names of all registered functions.
//
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	ns := make([]string, 0, len(funcs))
	for n := range funcs {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}
