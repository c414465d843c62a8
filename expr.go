// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

type opcode int

const (
	opRef opcode = iota
	opConst
	opInput
	opAdd
	opSub
	opMul
	opNeg
	opAbs
	opShiftL
	opShiftR
	opRetype
	opResize
	opToSlv
	opFromSlv
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opAnd
	opOr
)

var opSymbols = [...]string{
	opAdd: "+",
	opSub: "-",
	opMul: "*",
	opEq:  "=",
	opNe:  "/=",
	opLt:  "<",
	opLe:  "<=",
	opGt:  ">",
	opGe:  ">=",
	opAnd: "and",
	opOr:  "or",
}

func (op opcode) leaf() bool { return op <= opInput }

func (op opcode) compare() bool { return op >= opEq && op <= opGe }

func (op opcode) logical() bool { return op == opAnd || op == opOr }

// node is an expression tree node. Every node carries the type and range of
// the value it computes.
//
type node struct {
	op    opcode
	args  []*node
	kind  Kind
	width int
	min   int64
	max   int64

	v     int64  // literal and input value
	n     int    // shift amount
	h     Handle // reference
	name  string // reference
	clock int    // reference
}

// A Dep is a leaf of an expression.
//
type Dep struct {
	Name   string // empty for literals and unnamed inputs
	Handle Handle
	Kind   Kind
	Width  int
	Clock  int
	Value  int64 // literal or unnamed input value
	Const  bool
	Input  bool
}

func (n *node) deps(out []Dep) []Dep {
	switch n.op {
	case opRef:
		return append(out, Dep{Name: n.name, Handle: n.h, Kind: n.kind, Width: n.width, Clock: n.clock, Value: n.v})
	case opConst:
		return append(out, Dep{Kind: n.kind, Width: n.width, Clock: ClockConst, Value: n.v, Const: true})
	case opInput:
		return append(out, Dep{Kind: n.kind, Width: n.width, Clock: n.clock, Value: n.v, Input: true})
	}
	for _, a := range n.args {
		out = a.deps(out)
	}
	return out
}

// walk calls fn for every node of the tree, parents first.
func (n *node) walk(fn func(*node)) {
	fn(n)
	for _, a := range n.args {
		a.walk(fn)
	}
}

// retype returns a node converting n to the given type and range.
func retype(n *node, k Kind, w int, min, max int64) *node {
	return &node{op: opRetype, args: []*node{n}, kind: k, width: w, min: min, max: max}
}
