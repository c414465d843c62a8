package design_test

import (
	"math"
	"strings"
	"testing"

	fx "github.com/db47h/fxsim"
	"github.com/db47h/fxsim/fxtest"
	"github.com/db47h/fxsim/internal/design"
)

const sqrtDesign = `{
	"module": "root",
	"inputs": [{"name": "x", "value": 1, "bits": 10, "min": 0, "max": 2}],
	"luts": [{
		"name": "sqrt_lut", "function": "sqrt",
		"input": "x", "output": "y",
		"inverseMin": 0, "inverseMax": 2, "outputScale": 0.001,
		"inputBits": 8, "outputBits": 12
	}],
	"outputs": ["y"]
}`

func TestParse(t *testing.T) {
	d, err := design.Parse([]byte(sqrtDesign))
	if err != nil {
		t.Fatal(err)
	}
	if d.Module != "root" || len(d.Inputs) != 1 || len(d.LUTs) != 1 || d.LUTs[0].OutputBits != 12 {
		t.Errorf("bad design %+v", d)
	}
	vs := d.Values(2)
	if vs[0].Clock != 2 || vs[0].Width != 10 {
		t.Errorf("bad values %+v", vs)
	}

	for _, bad := range []string{
		`{"inputs": []}`,
		`{"inputs": [{"name": "1x", "value": 1, "bits": 10, "min": 0, "max": 2}]}`,
		strings.Replace(sqrtDesign, `"inputBits": 8`, `"inputBits": 30`, 1),
	} {
		if _, err := design.Parse([]byte(bad)); err == nil {
			t.Errorf("expected error for %s", bad)
		}
	}
}

func TestDesign_Build(t *testing.T) {
	d, err := design.Parse([]byte(sqrtDesign))
	if err != nil {
		t.Fatal(err)
	}
	c := fx.NewContext(d.Module)
	luts, err := d.Build(c, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(luts) != 1 {
		t.Fatalf("got %d LUTs", len(luts))
	}
	fxtest.CheckLUT(t, luts[0], math.Sqrt, 1e-12)

	vs, err := c.Values(d.Picks(true))
	if err != nil {
		t.Fatal(err)
	}
	if vs[0].Clock != 3 || math.Abs(vs[0].Value-1) > 0.01 {
		t.Errorf("got %+v", vs[0])
	}
	vhdl, err := c.VHDL()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(vhdl, "y_o : out ") || !strings.Contains(vhdl, "sqrt_lut_inst : entity work.sqrt_lut") {
		t.Errorf("unexpected module:\n%s", vhdl)
	}
}

func TestDesign_Build_errors(t *testing.T) {
	for _, tc := range []struct {
		name, from, to string
	}{
		{"unknown function", `"function": "sqrt"`, `"function": "nope"`},
		{"undefined input", `"input": "x"`, `"input": "w"`},
		{"undefined output", `"outputs": ["y"]`, `"outputs": ["z"]`},
	} {
		d, err := design.Parse([]byte(strings.Replace(sqrtDesign, tc.from, tc.to, 1)))
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if _, err = d.Build(fx.NewContext("root"), 0); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
