// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

// A Value is a named physical value with its hardware representation: bit
// width, physical range and the clock at which it is valid.
//
type Value struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Width int     `json:"bits"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Clock int     `json:"clock"`
}

// Seed declares one module input per value and binds it to FromReal(v.Width,
// v.Value, v.Min, v.Max, v.Clock) at its declared clock. Seeding an existing
// input again rebinds it, so that the same context can be reused for
// successive input vectors.
//
// The returned handles are in the same order as values. On error, the
// remaining values are still seeded and the first error is returned.
//
func (c *Context) Seed(values []Value) ([]Handle, error) {
	const op = "seed"
	var first error
	hs := make([]Handle, 0, len(values))
	for _, v := range values {
		if v.Name == "" {
			if first == nil {
				first = c.fail(newError(ArgumentError, op, "unnamed input"), "")
			}
			hs = append(hs, 0)
			continue
		}
		h := c.Declare(v.Name)
		hs = append(hs, h)
		if _, declared := c.declIdx[v.Name]; declared && !c.isPort[h] {
			if first == nil {
				first = c.fail(newError(ArgumentError, op, "%s is already assigned", v.Name), v.Name)
			}
			continue
		}
		s := FromReal(v.Width, v.Value, v.Min, v.Max, v.Clock)
		c.bind(h, s, v.Clock)
		if !c.isPort[h] {
			c.isPort[h] = true
			c.ports = append(c.ports, h)
		}
		c.declare(v.Name, s.kind, s.width)
		if s.err != nil && first == nil {
			first = c.track(s.err)
		}
	}
	return hs, first
}

// A Pick selects a named value to read back. Quantized values are computed
// from the integer codes, others are the ideal values.
//
type Pick struct {
	Name      string
	Quantized bool
}

// Values reads back the current value of named signals.
//
func (c *Context) Values(picks []Pick) ([]Value, error) {
	const op = "values"
	vs := make([]Value, 0, len(picks))
	for _, p := range picks {
		h, ok := c.handles[p.Name]
		if !ok || c.binds[h].blank {
			return vs, c.fail(newError(ArgumentError, op, "no value bound to %q", p.Name), p.Name)
		}
		s := c.binds[h]
		v := Value{Name: p.Name, Width: s.width, Clock: s.clock}
		if p.Quantized {
			v.Value, v.Min, v.Max = s.Real(), s.RealMin(), s.RealMax()
		} else {
			v.Value, v.Min, v.Max = s.actual, s.actualMin, s.actualMax
		}
		vs = append(vs, v)
	}
	return vs, nil
}
