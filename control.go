// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

// A Branch is one arm of a Choose multiplexer.
//
type Branch struct {
	assign   Signal
	from, to Signal
	fallback bool
}

// Range returns a branch that selects assign when the reference lies in
// [from, to]. A blank from or to stands for the minimum or maximum of the
// reference.
//
func Range(assign, from, to Signal) Branch {
	return Branch{assign: assign, from: from, to: to}
}

// Default returns the branch selected when no range matches. It must be the
// last branch.
//
func Default(assign Signal) Branch {
	return Branch{assign: assign, fallback: true}
}

// Choose builds a range multiplexer: target receives the assignment of the
// first branch whose range contains ref, or the default one. The range of
// target is the union of the ranges of all assignments.
//
// Branches are tested in order and are expected to be mutually exclusive.
//
func (c *Context) Choose(target Handle, ref Signal, branches ...Branch) (Signal, error) {
	return c.ChooseAt(target, ClockAuto, ref, branches...)
}

// ChooseAt is like Choose with an explicit target clock.
//
func (c *Context) ChooseAt(target Handle, clock int, ref Signal, branches ...Branch) (Signal, error) {
	return c.choose("choose", target, clock, nil, ref, branches)
}

// ChooseWithin is like Choose but the range of target is given by min and
// max instead of the union of the assignments: it spans from the minimum of
// min to the maximum of max. Every assignment must lie within that range.
//
func (c *Context) ChooseWithin(target Handle, min, max, ref Signal, branches ...Branch) (Signal, error) {
	return c.ChooseWithinAt(target, ClockAuto, min, max, ref, branches...)
}

// ChooseWithinAt is like ChooseWithin with an explicit target clock.
//
func (c *Context) ChooseWithinAt(target Handle, clock int, min, max, ref Signal, branches ...Branch) (Signal, error) {
	return c.choose("chooseWithin", target, clock, []Signal{min, max}, ref, branches)
}

func (c *Context) choose(op string, target Handle, clock int, within []Signal, ref Signal, branches []Branch) (Signal, error) {
	if err := c.checkTarget(op, target); err != nil {
		return Blank(), err
	}
	name := c.names[target]
	if len(branches) < 2 {
		return c.binds[target], c.fail(newError(ArgumentError, op, "%s: need at least one range and a default", name), name)
	}
	if err := checkOperands(op, ref); err != nil {
		return c.binds[target], c.fail(err, name)
	}
	scale := branches[0].assign.scale
	for _, x := range within {
		if err := checkOperands(op, x); err != nil {
			return c.binds[target], c.fail(err, name)
		}
		if !c.Target.sameScale(x.scale, scale) {
			return c.binds[target], c.fail(newError(UnitError, op, "%s: target bound scale %g does not match assignment scale %g", name, x.scale, scale), name)
		}
	}
	bs := make([]Branch, len(branches))
	for i, b := range branches {
		if b.fallback != (i == len(branches)-1) {
			return c.binds[target], c.fail(newError(ArgumentError, op, "%s: the default branch must be last", name), name)
		}
		if err := checkOperands(op, b.assign); err != nil {
			return c.binds[target], c.fail(err, name)
		}
		if !c.Target.sameScale(b.assign.scale, scale) {
			return c.binds[target], c.fail(newError(UnitError, op, "%s: assignments have different scales %g and %g", name, scale, b.assign.scale), name)
		}
		if !b.fallback {
			if b.from.blank {
				b.from = constCode(ref.min, ref.scale).withActual(ref.actualMin, ref.actualMin, ref.actualMin)
			}
			if b.to.blank {
				b.to = constCode(ref.max, ref.scale).withActual(ref.actualMax, ref.actualMax, ref.actualMax)
			}
			for _, x := range []Signal{b.from, b.to} {
				if err := checkOperands(op, x); err != nil {
					return c.binds[target], c.fail(err, name)
				}
				if !c.Target.sameScale(x.scale, ref.scale) {
					return c.binds[target], c.fail(newError(UnitError, op, "%s: range bound scale %g does not match reference scale %g", name, x.scale, ref.scale), name)
				}
			}
		}
		bs[i] = b
	}

	// clock and range union
	latest := ref.effectiveClock()
	lo, hi := bs[0].assign.min, bs[0].assign.max
	alo, ahi := bs[0].assign.actualMin, bs[0].assign.actualMax
	err := ref.err
	for _, b := range bs {
		for _, x := range []Signal{b.assign, b.from, b.to} {
			if x.blank {
				continue
			}
			if k := x.effectiveClock(); k > latest {
				latest = k
			}
			if err == nil {
				err = x.err
			}
		}
		a := b.assign
		if a.min < lo {
			lo = a.min
		}
		if a.max > hi {
			hi = a.max
		}
		if a.actualMin < alo {
			alo = a.actualMin
		}
		if a.actualMax > ahi {
			ahi = a.actualMax
		}
	}
	if within != nil {
		if within[0].min > within[1].max {
			return c.binds[target], c.fail(newError(RangeError, op, "%s: inverted target range [%d, %d]", name, within[0].min, within[1].max), name)
		}
		if lo < within[0].min || hi > within[1].max {
			return c.binds[target], c.fail(newError(RangeError, op, "%s: assignments range [%d, %d] exceeds target range [%d, %d]", name, lo, hi, within[0].min, within[1].max), name)
		}
		lo, hi = within[0].min, within[1].max
		alo, ahi = within[0].actualMin, within[1].actualMax
	}
	t, cerr := c.targetClock(op, clock, latest)
	if cerr != nil {
		return c.binds[target], cerr
	}
	kind, width := rangeKind(lo), rangeWidth(lo, hi)

	// integer and ideal dispatch are independent
	pick, apick := len(bs)-1, len(bs)-1
	for i, b := range bs[:len(bs)-1] {
		if ref.v >= b.from.v && ref.v <= b.to.v {
			pick = i
			break
		}
	}
	for i, b := range bs[:len(bs)-1] {
		if ref.actual >= b.from.actual && ref.actual <= b.to.actual {
			apick = i
			break
		}
	}

	r := Signal{
		id:        nextID(),
		h:         target,
		name:      name,
		kind:      kind,
		width:     width,
		v:         bs[pick].assign.v,
		min:       lo,
		max:       hi,
		scale:     scale,
		actual:    bs[apick].assign.actual,
		actualMin: alo,
		actualMax: ahi,
		clock:     t,
		err:       err,
	}
	r.check(op)
	c.binds[target] = r

	if c.print {
		c.declare(name, kind, width)
		st := stmt{kind: stmtChoose, clock: t, target: target, ref: ref.node()}
		for _, b := range bs {
			a := arm{assign: retype(b.assign.node(), kind, width, lo, hi)}
			if !b.fallback {
				a.from, a.to = b.from.node(), b.to.node()
			}
			st.arms = append(st.arms, a)
		}
		c.stmts = append(c.stmts, st)
	}
	if r.err != nil {
		return r, c.track(r.err)
	}
	return r, nil
}

// An Assignment is a target and value pair in an IfElse case.
//
type Assignment struct {
	target Handle
	value  Signal
}

// Set returns an assignment of value to target.
//
func Set(target Handle, value Signal) Assignment {
	return Assignment{target: target, value: value}
}

// A Case is a condition and its assignments.
//
type Case struct {
	cond      Signal
	assigns   []Assignment
	otherwise bool
}

// When returns a case applied when cond is 1. cond must be a 1 bit signal in
// [0, 1] computed by a comparison or logical operator, or a named flag.
//
func When(cond Signal, assigns ...Assignment) Case {
	return Case{cond: cond, assigns: assigns}
}

// Else returns the case applied when no other condition holds. It must be
// the last case.
//
func Else(assigns ...Assignment) Case {
	return Case{assigns: assigns, otherwise: true}
}

type span struct {
	lo, hi   int64
	alo, ahi float64
	scale    float64
}

// IfElse builds a priority multiplexer from cases. The first case whose
// condition holds is applied. For every target, the range of the new value is
// the union of the ranges of all values assigned to it across all cases.
// Targets not assigned by the selected case keep their current value.
//
func (c *Context) IfElse(cases ...Case) error {
	return c.IfElseAt(ClockAuto, cases...)
}

// IfElseAt is like IfElse with an explicit target clock.
//
func (c *Context) IfElseAt(clock int, cases ...Case) error {
	const op = "ifElse"
	if len(cases) == 0 {
		return c.fail(newError(ArgumentError, op, "no cases"), "")
	}
	latest := ClockConst
	var err error
	var order []Handle
	spans := make(map[Handle]*span)
	for i, cs := range cases {
		if cs.otherwise && i != len(cases)-1 {
			return c.fail(newError(ArgumentError, op, "else must be the last case"), "")
		}
		if !cs.otherwise {
			cd := cs.cond
			switch {
			case cd.blank || cd.kind == Slv:
				return c.fail(newError(TypeError, op, "case %d: invalid condition", i), "")
			case cd.min != 0 || cd.max != 1 || cd.width != 1:
				return c.fail(newError(TypeError, op, "case %d: condition range [%d, %d] is not a 1 bit [0, 1] flag", i, cd.min, cd.max), cd.name)
			case cd.expr == nil && cd.h == 0:
				return c.fail(newError(TypeError, op, "case %d: condition is not a comparison or a named flag", i), "")
			}
			if k := cd.effectiveClock(); k > latest {
				latest = k
			}
			if err == nil {
				err = cd.err
			}
		}
		for _, a := range cs.assigns {
			if e := c.checkTarget(op, a.target); e != nil {
				return e
			}
			v := a.value
			if e := checkOperands(op, v); e != nil {
				return c.fail(e, c.names[a.target])
			}
			if k := v.effectiveClock(); k > latest {
				latest = k
			}
			if err == nil {
				err = v.err
			}
			sp, ok := spans[a.target]
			if !ok {
				spans[a.target] = &span{lo: v.min, hi: v.max, alo: v.actualMin, ahi: v.actualMax, scale: v.scale}
				order = append(order, a.target)
				continue
			}
			if !c.Target.sameScale(sp.scale, v.scale) {
				return c.fail(newError(UnitError, op, "%s: values have different scales %g and %g", c.names[a.target], sp.scale, v.scale), c.names[a.target])
			}
			if v.min < sp.lo {
				sp.lo = v.min
			}
			if v.max > sp.hi {
				sp.hi = v.max
			}
			if v.actualMin < sp.alo {
				sp.alo = v.actualMin
			}
			if v.actualMax > sp.ahi {
				sp.ahi = v.actualMax
			}
		}
	}
	t, cerr := c.targetClock(op, clock, latest)
	if cerr != nil {
		return cerr
	}

	// integer dispatch
	values := make(map[Handle]Signal)
	for _, cs := range cases {
		if cs.otherwise || cs.cond.v == 1 {
			for _, a := range cs.assigns {
				values[a.target] = a.value
			}
			break
		}
	}
	// ideal dispatch
	actuals := make(map[Handle]float64)
	for _, cs := range cases {
		if cs.otherwise || cs.cond.actual == 1 {
			for _, a := range cs.assigns {
				actuals[a.target] = a.value.actual
			}
			break
		}
	}

	for _, h := range order {
		sp := spans[h]
		v, ok := values[h]
		if !ok {
			if a, ok := actuals[h]; ok {
				b := c.binds[h]
				b.actual = a
				c.binds[h] = b
			}
			continue
		}
		r := Signal{
			id:        nextID(),
			h:         h,
			name:      c.names[h],
			kind:      rangeKind(sp.lo),
			width:     rangeWidth(sp.lo, sp.hi),
			v:         v.v,
			min:       sp.lo,
			max:       sp.hi,
			scale:     sp.scale,
			actual:    v.actual,
			actualMin: sp.alo,
			actualMax: sp.ahi,
			clock:     t,
			err:       err,
		}
		if a, ok := actuals[h]; ok {
			r.actual = a
		}
		r.check(op)
		if err == nil {
			err = r.err
		}
		c.binds[h] = r
	}

	if c.print {
		st := stmt{kind: stmtIfElse, clock: t}
		for _, h := range order {
			sp := spans[h]
			c.declare(c.names[h], rangeKind(sp.lo), rangeWidth(sp.lo, sp.hi))
		}
		for _, cs := range cases {
			ic := ifCase{}
			if !cs.otherwise {
				ic.cond = cs.cond.node()
			}
			for _, a := range cs.assigns {
				sp := spans[a.target]
				ic.sets = append(ic.sets, set{target: a.target, expr: retype(a.value.node(), rangeKind(sp.lo), rangeWidth(sp.lo, sp.hi), sp.lo, sp.hi)})
			}
			st.cases = append(st.cases, ic)
		}
		c.stmts = append(c.stmts, st)
	}
	return c.track(err)
}
