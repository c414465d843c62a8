// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

import (
	"sort"
	"strconv"
	"strings"
)

// vexpr is a lowered VHDL expression with its VHDL type. boolean expressions
// come from comparisons and are only valid as conditions.
//
type vexpr struct {
	code    string
	kind    Kind
	width   int
	max     int64
	boolean bool
}

// lowering holds the state of one lowering pass over the recorded statements.
type lowering struct {
	c     *Context
	clock int            // clock of the statement being lowered
	bufs  map[Handle]int // buffer depth per dependency
	err   error
}

// program is the result of lowering all statements of a context.
type program struct {
	registered []string
	bufs       []buffer
}

type buffer struct {
	h     Handle
	name  string
	kind  Kind
	width int
	depth int
}

// lower lowers all recorded statements. The result is cached until new
// statements or declarations are recorded, so that a lowering error is
// reported once.
//
func (c *Context) lower() (*program, error) {
	key := [2]int{len(c.stmts), len(c.decls)}
	if c.lowerKey == key && (c.lowered != nil || c.lowerErr != nil) {
		return c.lowered, c.lowerErr
	}
	p, err := c.lowerAll()
	c.lowered, c.lowerErr, c.lowerKey = p, err, key
	return p, err
}

func (c *Context) lowerAll() (*program, error) {
	l := &lowering{c: c, bufs: make(map[Handle]int)}
	var lines []string
	for i := range c.stmts {
		lines = l.stmt(lines, &c.stmts[i])
		if l.err != nil {
			return nil, l.err
		}
	}
	p := &program{registered: lines}
	for h, d := range l.bufs {
		k, w := c.declType(h)
		p.bufs = append(p.bufs, buffer{h: h, name: c.names[h], kind: k, width: w, depth: d})
	}
	sort.Slice(p.bufs, func(i, j int) bool { return p.bufs[i].h < p.bufs[j].h })
	return p, nil
}

// declType returns the declared VHDL type of a named signal.
func (c *Context) declType(h Handle) (Kind, int) {
	if i, ok := c.declIdx[c.names[h]]; ok {
		return c.decls[i].kind, c.decls[i].width
	}
	s := c.binds[h]
	return s.kind, s.width
}

func (l *lowering) fail(kind ErrorKind, op, format string, args ...interface{}) vexpr {
	if l.err == nil {
		l.err = l.c.fail(newError(kind, op, format, args...), "")
	}
	return vexpr{code: "0", width: 1}
}

func (l *lowering) stmt(out []string, st *stmt) []string {
	l.clock = st.clock
	switch st.kind {
	case stmtAssign:
		return l.assign(out, "", st.target, st.expr)
	case stmtChoose:
		ref := l.expr(st.ref)
		for i, a := range st.arms {
			switch {
			case a.from == nil:
				out = append(out, "else")
			default:
				lo := l.compare(">=", ref, l.expr(a.from))
				hi := l.compare("<=", ref, l.expr(a.to))
				kw := "if"
				if i > 0 {
					kw = "elsif"
				}
				out = append(out, kw+" "+lo.code+" and "+hi.code+" then")
			}
			out = l.assign(out, "  ", st.target, a.assign)
		}
		return append(out, "end if;")
	case stmtIfElse:
		if len(st.cases) == 1 && st.cases[0].cond == nil {
			for _, s := range st.cases[0].sets {
				out = l.assign(out, "", s.target, s.expr)
			}
			return out
		}
		for i, cs := range st.cases {
			switch {
			case cs.cond == nil:
				out = append(out, "else")
			case i == 0:
				out = append(out, "if "+l.cond(l.expr(cs.cond)).code+" then")
			default:
				out = append(out, "elsif "+l.cond(l.expr(cs.cond)).code+" then")
			}
			for _, s := range cs.sets {
				out = l.assign(out, "  ", s.target, s.expr)
			}
		}
		return append(out, "end if;")
	}
	return out
}

// assign lowers one signal assignment. Conditions assigned to a signal become
// an if/else block driving "1" or "0".
//
func (l *lowering) assign(out []string, indent string, h Handle, n *node) []string {
	name := l.c.names[h]
	x := l.expr(n)
	if x.boolean {
		return append(out,
			indent+"if "+x.code+" then",
			indent+"  "+name+" <= \"1\";",
			indent+"else",
			indent+"  "+name+" <= \"0\";",
			indent+"end if;")
	}
	k, w := l.c.declType(h)
	if k != Slv {
		x = l.fit(x, k, w)
	}
	return append(out, indent+name+" <= "+x.code+";")
}

func (l *lowering) expr(n *node) vexpr {
	switch n.op {
	case opConst:
		return literal(n.kind, n.width, n.v)
	case opInput:
		return vexpr{code: "INPUT(" + strconv.FormatInt(n.v, 10) + ")", kind: n.kind, width: n.width, max: n.max}
	case opRef:
		return l.ref(n)
	case opAdd, opSub, opMul:
		return l.binary(n)
	case opNeg:
		return l.unary(n, func(x string) string { return "-(" + x + ")" })
	case opAbs:
		return l.unary(n, func(x string) string { return "abs(" + x + ")" })
	case opShiftL:
		return l.unary(n, func(x string) string { return "shift_left(" + x + ", " + strconv.Itoa(n.n) + ")" })
	case opShiftR:
		return l.unary(n, func(x string) string { return "shift_right(" + x + ", " + strconv.Itoa(n.n) + ")" })
	case opRetype, opResize:
		x := l.expr(n.args[0])
		if x.boolean {
			return l.fail(TypeError, "lower", "condition used as a number")
		}
		x = l.fit(x, n.kind, n.width)
		x.max = n.max
		return x
	case opToSlv:
		x := l.expr(n.args[0])
		if x.boolean {
			return l.fail(TypeError, "lower", "condition used as a number")
		}
		return vexpr{code: "std_logic_vector(" + x.code + ")", kind: Slv, width: x.width}
	case opFromSlv:
		x := l.expr(n.args[0])
		r := vexpr{code: n.kind.String() + "(" + x.code + ")", kind: n.kind, width: x.width, max: n.max}
		if n.width != x.width {
			r.code = "resize(" + r.code + ", " + strconv.Itoa(n.width) + ")"
			r.width = n.width
		}
		return r
	case opEq, opNe, opLt, opLe, opGt, opGe:
		return l.compare(opSymbols[n.op], l.expr(n.args[0]), l.expr(n.args[1]))
	case opAnd, opOr:
		a, b := l.cond(l.expr(n.args[0])), l.cond(l.expr(n.args[1]))
		return vexpr{code: "(" + a.code + " " + opSymbols[n.op] + " " + b.code + ")", kind: Unsigned, width: 1, max: 1, boolean: true}
	}
	return l.fail(TypeError, "lower", "unknown expression node %d", n.op)
}

// ref references a named signal, through its buffer chain if it was
// produced two or more clocks before the current statement.
//
func (l *lowering) ref(n *node) vexpr {
	x := vexpr{code: n.name, kind: n.kind, width: n.width, max: n.max}
	if n.clock < 0 {
		return x
	}
	d := l.clock - n.clock
	switch {
	case d < 0:
		return l.fail(ClockError, "lower", "%s is valid at clock %d but consumed at clock %d", n.name, n.clock, l.clock)
	case d <= 1:
		return x
	}
	if d-1 > l.bufs[n.h] {
		l.bufs[n.h] = d - 1
	}
	x.code = n.name + "_b(" + strconv.Itoa(d-2) + ")"
	return x
}

func literal(k Kind, w int, v int64) vexpr {
	if w < 1 {
		w = 1
	}
	f := "decimal_string_to_unsigned"
	if k == Signed {
		f = "decimal_string_to_signed"
	}
	m := v
	if m < 0 {
		m = -m
	}
	return vexpr{code: f + "(\"" + strconv.FormatInt(v, 10) + "\"," + strconv.Itoa(w) + ")", kind: k, width: w, max: m}
}

// toSigned converts an unsigned expression to signed, adding a sign bit only
// if its range needs every bit of the vector.
//
func toSigned(x vexpr) vexpr {
	if x.kind == Signed {
		return x
	}
	w := kindWidth(Unsigned, 0, x.max) + 1
	if w <= x.width {
		return vexpr{code: "signed(" + x.code + ")", kind: Signed, width: x.width, max: x.max}
	}
	return vexpr{code: "signed('0'&(" + x.code + "))", kind: Signed, width: x.width + 1, max: x.max}
}

// fit converts x to the given numeric type.
func (l *lowering) fit(x vexpr, k Kind, w int) vexpr {
	if w < 1 {
		w = 1
	}
	switch {
	case k == Signed && x.kind != Signed:
		x = toSigned(x)
	case k == Unsigned && x.kind == Signed:
		return vexpr{code: "resize(unsigned(" + x.code + "), " + strconv.Itoa(w) + ")", kind: Unsigned, width: w, max: x.max}
	}
	if x.width != w {
		x.code = "resize(" + x.code + ", " + strconv.Itoa(w) + ")"
		x.width = w
	}
	x.kind = k
	return x
}

func resize(x vexpr, w int) vexpr {
	x.code = "resize(" + x.code + ", " + strconv.Itoa(w) + ")"
	x.width = w
	return x
}

func (l *lowering) binary(n *node) vexpr {
	a, b := l.expr(n.args[0]), l.expr(n.args[1])
	if a.boolean || b.boolean {
		return l.fail(TypeError, "lower", "condition used as a number")
	}
	if a.kind != b.kind || n.kind == Signed && a.kind != Signed {
		a, b = toSigned(a), toSigned(b)
	}
	vw := func() int {
		if n.op == opMul {
			return a.width + b.width
		}
		if a.width > b.width {
			return a.width
		}
		return b.width
	}
	op := " " + opSymbols[n.op] + " "
	w := n.width
	if w < 1 {
		w = 1
	}
	if n.kind == Unsigned && a.kind == Signed {
		if w+1 > vw() {
			a = resize(a, w+1)
		}
		return vexpr{code: "resize(unsigned(" + a.code + op + b.code + "), " + strconv.Itoa(w) + ")", kind: Unsigned, width: w, max: n.max}
	}
	if w > vw() {
		a = resize(a, w)
	}
	r := vexpr{code: "(" + a.code + op + b.code + ")", kind: a.kind, width: vw(), max: n.max}
	if w < r.width {
		r = resize(r, w)
	}
	return r
}

func (l *lowering) unary(n *node, f func(string) string) vexpr {
	x := l.expr(n.args[0])
	if x.boolean {
		return l.fail(TypeError, "lower", "condition used as a number")
	}
	if n.op == opNeg || n.op == opAbs {
		x = toSigned(x)
	}
	w := n.width
	if w < 1 {
		w = 1
	}
	if n.kind == Unsigned && x.kind == Signed {
		if w+1 > x.width {
			x = resize(x, w+1)
		}
		return vexpr{code: "resize(unsigned(" + f(x.code) + "), " + strconv.Itoa(w) + ")", kind: Unsigned, width: w, max: n.max}
	}
	if w > x.width {
		x = resize(x, w)
	}
	r := vexpr{code: f(x.code), kind: x.kind, width: x.width, max: n.max}
	if w < r.width {
		r = resize(r, w)
	}
	return r
}

func (l *lowering) compare(op string, a, b vexpr) vexpr {
	if a.boolean || b.boolean {
		return l.fail(TypeError, "lower", "condition compared as a number")
	}
	if a.kind != b.kind {
		a, b = toSigned(a), toSigned(b)
	}
	return vexpr{code: "(" + a.code + " " + op + " " + b.code + ")", kind: Unsigned, width: 1, max: 1, boolean: true}
}

// cond turns x into a VHDL boolean.
func (l *lowering) cond(x vexpr) vexpr {
	if x.boolean {
		return x
	}
	if x.kind == Slv || x.width != 1 {
		return l.fail(TypeError, "lower", "%s is not a 1 bit condition", x.code)
	}
	return vexpr{code: "(" + x.code + " = decimal_string_to_unsigned(\"1\",1))", kind: Unsigned, width: 1, max: 1, boolean: true}
}

// vhdlType returns the VHDL type of a vector of the given kind and width.
func vhdlType(k Kind, w int) string {
	if w < 1 {
		w = 1
	}
	var b strings.Builder
	b.WriteString(k.String())
	b.WriteString("(")
	b.WriteString(strconv.Itoa(w - 1))
	b.WriteString(" downto 0)")
	return b.String()
}
