/*
Package fxsim simulates fixed-point hardware pipelines and generates the
matching VHDL and block memory initialization files.

A Signal is an integer code together with its statically known range, the
physical value of one code (its scale), the pipeline clock at which it is
valid and the expression that computes it. Arithmetic on signals follows the
integer semantics of numeric_std: every result gets the smallest signedness and
bit width able to hold its range, and a value or bound that does not fit is
reported as a range error. An ideal floating point value is carried along so
that quantization errors can be measured.

Signals are bound to names in a Context, which records one statement per
assignment and one if/elsif/else block per Choose or IfElse call. Operands that
were produced more than one clock before they are consumed are delayed through
shift register buffers. Lookup tables (LUT) approximate functions with a block
memory.

A typical session:

	c := fxsim.NewContext("stage")
	hs, _ := c.Seed([]fxsim.Value{{Name: "x", Value: 0.5, Width: 10, Min: 0, Max: 1}})
	x := c.Get(hs[0])
	y := c.Declare("y")
	c.Assign(y, x.Mul(x))
	c.Output(y)
	src, err := c.VHDL()

Expressions are built lazily and lowered to VHDL in a separate pass, so that
buffer references can be resolved once the clock of every consumer is known.

*/
package fxsim
