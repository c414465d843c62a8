// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package design reads pipeline descriptions and builds them into a
// context.
//
// A design is a JSON document listing the module inputs, a chain of LUT
// stages and the signals driven on output ports:
//
//	{
//		"module": "root",
//		"inputs": [{"name": "x", "value": 1, "bits": 10, "min": 0, "max": 2}],
//		"luts": [{
//			"name": "sqrt_lut", "function": "sqrt",
//			"input": "x", "output": "y",
//			"inverseMin": 0, "inverseMax": 2, "outputScale": 0.001,
//			"inputBits": 8, "outputBits": 12
//		}],
//		"outputs": ["y"]
//	}
//
package design

import (
	"encoding/json"

	"github.com/db47h/fxsim"
	"github.com/db47h/fxsim/fxlib"
	"github.com/db47h/fxsim/internal/validator"
	"github.com/pkg/errors"
)

// Input is a module input. A nil Clock selects the default input clock.
//
type Input struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Bits  int     `json:"bits"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Clock *int    `json:"clock,omitempty"`
}

// Stage is a LUT applied to a named signal.
//
type Stage struct {
	Name        string    `json:"name"`
	Function    string    `json:"function"`
	Params      []float64 `json:"params,omitempty"`
	Input       string    `json:"input"`
	Output      string    `json:"output"`
	InverseMin  float64   `json:"inverseMin"`
	InverseMax  float64   `json:"inverseMax"`
	OutputScale float64   `json:"outputScale"`
	InputBits   int       `json:"inputBits"`
	OutputBits  int       `json:"outputBits"`
}

// Design is a complete pipeline description.
//
type Design struct {
	Module  string   `json:"module,omitempty"`
	Inputs  []Input  `json:"inputs"`
	LUTs    []Stage  `json:"luts,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
}

// Parse validates data against the design schema and decodes it.
//
func Parse(data []byte) (*Design, error) {
	v, err := validator.New()
	if err != nil {
		return nil, err
	}
	if err = v.ValidateJSON(validator.Design, data); err != nil {
		return nil, err
	}
	var d Design
	if err = json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "parse design")
	}
	return &d, nil
}

// Values returns the module inputs as seed values.
//
func (d *Design) Values(defaultClock int) []fxsim.Value {
	vs := make([]fxsim.Value, len(d.Inputs))
	for i, in := range d.Inputs {
		clk := defaultClock
		if in.Clock != nil {
			clk = *in.Clock
		}
		vs[i] = fxsim.Value{Name: in.Name, Value: in.Value, Width: in.Bits, Min: in.Min, Max: in.Max, Clock: clk}
	}
	return vs
}

// Build seeds the inputs into c, applies every stage in order and marks the
// outputs. The LUTs are returned in stage order.
//
func (d *Design) Build(c *fxsim.Context, defaultClock int) ([]*fxsim.LUT, error) {
	if _, err := c.Seed(d.Values(defaultClock)); err != nil {
		return nil, err
	}
	luts := make([]*fxsim.LUT, 0, len(d.LUTs))
	for _, st := range d.LUTs {
		h, ok := c.Lookup(st.Input)
		if !ok || c.Get(h).IsBlank() {
			return luts, errors.Errorf("stage %s: undefined input %q", st.Name, st.Input)
		}
		f, err := fxlib.Func(st.Function, st.Params)
		if err != nil {
			return luts, errors.Wrapf(err, "stage %s", st.Name)
		}
		in := c.Get(h)
		l := fxsim.NewLUT(st.Name)
		if err = l.SetFunction(f, in, st.InverseMin, st.InverseMax, st.OutputScale, st.InputBits, st.OutputBits); err != nil {
			return luts, err
		}
		if _, err = c.Operate(l, in, c.Declare(st.Output)); err != nil {
			return luts, err
		}
		luts = append(luts, l)
	}
	for _, o := range d.Outputs {
		h, ok := c.Lookup(o)
		if !ok || c.Get(h).IsBlank() {
			return luts, errors.Errorf("undefined output %q", o)
		}
		if err := c.Output(h); err != nil {
			return luts, err
		}
	}
	return luts, nil
}

// Picks returns the outputs to read back after a build.
//
func (d *Design) Picks(quantized bool) []fxsim.Pick {
	ps := make([]fxsim.Pick, len(d.Outputs))
	for i, o := range d.Outputs {
		ps[i] = fxsim.Pick{Name: o, Quantized: quantized}
	}
	return ps
}
