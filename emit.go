// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const entryVHDL = `  function decimal_string_to_unsigned(s : string; w : natural) return unsigned is
    variable r : unsigned(w - 1 downto 0) := (others => '0');
  begin
    for i in s'range loop
      r := resize(r * 10, w) + to_unsigned(character'pos(s(i)) - character'pos('0'), w);
    end loop;
    return r;
  end function;

  function decimal_string_to_signed(s : string; w : natural) return signed is
    variable r : signed(w - 1 downto 0) := (others => '0');
    variable neg : boolean := false;
  begin
    for i in s'range loop
      if s(i) = '-' then
        neg := true;
      else
        r := resize(r * 10, w) + to_signed(character'pos(s(i)) - character'pos('0'), w);
      end if;
    end loop;
    if neg then
      return -r;
    end if;
    return r;
  end function;
`

// EntryVHDL returns the two helper functions that convert decimal strings to
// numeric_std vectors. All literals in the generated code go through them.
//
func (c *Context) EntryVHDL() string { return entryVHDL }

// SignalsVHDL returns one signal declaration per named value, in order of
// first assignment. Module inputs are declared as ports instead.
//
func (c *Context) SignalsVHDL() string {
	var b strings.Builder
	for _, d := range c.decls {
		if h, ok := c.handles[d.name]; ok && c.isPort[h] {
			continue
		}
		b.WriteString("  signal " + d.name + " : " + vhdlType(d.kind, d.width) + ";\n")
	}
	return b.String()
}

// BuffersVHDL returns the declarations of the buffer chains and the
// statements that shift them on every clock.
//
func (c *Context) BuffersVHDL() (decl, shift string, err error) {
	p, err := c.lower()
	if err != nil {
		return "", "", err
	}
	decl, shift = p.buffersVHDL()
	return decl, shift, nil
}

func (p *program) buffersVHDL() (decl, shift string) {
	var d, s strings.Builder
	for _, b := range p.bufs {
		d.WriteString("  type " + b.name + "_bt is array (0 to " + strconv.Itoa(b.depth-1) + ") of " + vhdlType(b.kind, b.width) + ";\n")
		d.WriteString("  signal " + b.name + "_b : " + b.name + "_bt;\n")
		s.WriteString(b.name + "_b(0) <= " + b.name + ";\n")
		for i := 1; i < b.depth; i++ {
			s.WriteString(b.name + "_b(" + strconv.Itoa(i) + ") <= " + b.name + "_b(" + strconv.Itoa(i-1) + ");\n")
		}
	}
	return d.String(), s.String()
}

// CombinationalVHDL returns the concurrent statements: LUT address
// conversions, memory instances and output drivers.
//
func (c *Context) CombinationalVHDL() string {
	var b strings.Builder
	for _, l := range c.luts {
		b.WriteString("  " + l.name + "_addr <= std_logic_vector(resize(" + l.name + "_in, " + strconv.Itoa(l.inWidth) + "));\n")
		b.WriteString("  " + l.name + "_inst : entity work." + l.name + " port map (clka => CLKIN, addra => " + l.name + "_addr, douta => " + l.name + "_out);\n")
	}
	for _, h := range c.outputs {
		b.WriteString("  " + c.names[h] + "_o <= " + c.names[h] + ";\n")
	}
	return b.String()
}

// RegisteredVHDL returns the statements of the clocked process, one per
// assignment and one if/elsif/else block per multiplexer.
//
func (c *Context) RegisteredVHDL() (string, error) {
	p, err := c.lower()
	if err != nil {
		return "", err
	}
	return indent(p.registered, ""), nil
}

func indent(lines []string, prefix string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(prefix)
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// VHDL returns the complete module.
//
func (c *Context) VHDL() (string, error) {
	var b strings.Builder
	if err := c.WriteVHDL(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WriteVHDL writes the complete module to w.
//
func (c *Context) WriteVHDL(w io.Writer) error {
	p, err := c.lower()
	if err != nil {
		return err
	}
	bdecl, bshift := p.buffersVHDL()

	bw := bufio.NewWriter(w)
	bw.WriteString("library IEEE;\nuse IEEE.STD_LOGIC_1164.ALL;\nuse IEEE.NUMERIC_STD.ALL;\n\n")
	bw.WriteString("entity " + c.Module + " is\n  port (\n    CLKIN : in std_logic")
	for _, h := range c.ports {
		k, wd := c.declType(h)
		bw.WriteString(";\n    " + c.names[h] + " : in " + vhdlType(k, wd))
	}
	for _, h := range c.outputs {
		k, wd := c.declType(h)
		bw.WriteString(";\n    " + c.names[h] + "_o : out " + vhdlType(k, wd))
	}
	bw.WriteString("\n  );\nend " + c.Module + ";\n\n")
	bw.WriteString("architecture Behavioral of " + c.Module + " is\n\n")
	bw.WriteString(entryVHDL)
	bw.WriteString("\n")
	bw.WriteString(c.SignalsVHDL())
	bw.WriteString(bdecl)
	bw.WriteString("\nbegin\n\n")
	bw.WriteString(c.CombinationalVHDL())
	bw.WriteString("\n  process (CLKIN)\n  begin\n    if rising_edge(CLKIN) then\n")
	bw.WriteString(indent(p.registered, "      "))
	if bshift != "" {
		bw.WriteString(indent(strings.Split(strings.TrimSuffix(bshift, "\n"), "\n"), "      "))
	}
	bw.WriteString("    end if;\n  end process;\n\nend Behavioral;\n")
	return errors.Wrap(bw.Flush(), "write VHDL")
}

// PrintToFile writes <OutputDir>/<Module>.vhd and one <name>.coe file per
// LUT used by the module. Once a call succeeds, later calls do nothing.
//
func (c *Context) PrintToFile() error {
	if c.printed {
		return nil
	}
	if !c.print {
		warn("print", c.Module, "statement recording is disabled, the module will be empty")
	}
	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	if err := writeFile(filepath.Join(c.OutputDir, c.Module+".vhd"), c.WriteVHDL); err != nil {
		return err
	}
	for _, l := range c.luts {
		l := l
		err := writeFile(filepath.Join(c.OutputDir, l.name+".coe"), func(w io.Writer) error {
			return l.WriteCOE(w, c.COERadix)
		})
		if err != nil {
			return err
		}
	}
	c.printed = true
	return nil
}

func writeFile(name string, write func(io.Writer) error) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.WithStack(cerr)
		}
	}()
	return errors.Wrapf(write(f), "write %s", name)
}

// Facts is a summary of a generated module, used by design-rule checks.
//
type Facts struct {
	Module  string       `json:"module"`
	Signals []SignalFact `json:"signals"`
	Buffers []BufferFact `json:"buffers"`
	LUTs    []LUTFact    `json:"luts"`
}

// SignalFact describes a declared signal.
type SignalFact struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Width  int    `json:"width"`
	Port   bool   `json:"port"`
	Output bool   `json:"output"`
}

// BufferFact describes a buffer chain.
type BufferFact struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
	Depth int    `json:"depth"`
}

// LUTFact describes a block memory.
type LUTFact struct {
	Name        string `json:"name"`
	InputWidth  int    `json:"inputWidth"`
	OutputWidth int    `json:"outputWidth"`
	Entries     int    `json:"entries"`
}

// Facts returns a summary of the module.
//
func (c *Context) Facts() (Facts, error) {
	p, err := c.lower()
	if err != nil {
		return Facts{}, err
	}
	f := Facts{Module: c.Module, Signals: []SignalFact{}, Buffers: []BufferFact{}, LUTs: []LUTFact{}}
	out := make(map[Handle]bool, len(c.outputs))
	for _, h := range c.outputs {
		out[h] = true
	}
	for _, d := range c.decls {
		h := c.handles[d.name]
		f.Signals = append(f.Signals, SignalFact{Name: d.name, Kind: d.kind.String(), Width: d.width, Port: c.isPort[h], Output: out[h]})
	}
	for _, b := range p.bufs {
		f.Buffers = append(f.Buffers, BufferFact{Name: b.name, Width: b.width, Depth: b.depth})
	}
	for _, l := range c.luts {
		f.LUTs = append(f.LUTs, LUTFact{Name: l.name, InputWidth: l.inWidth, OutputWidth: l.outWidth, Entries: len(l.table)})
	}
	return f, nil
}
