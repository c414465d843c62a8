package drc_test

import (
	"context"
	"testing"

	"github.com/db47h/fxsim"
	"github.com/db47h/fxsim/internal/drc"
)

var limits = drc.Limits{MaxWidth: 16, MaxBufferDepth: 2, MaxLUTEntries: 1024, MaxLUTWidth: 18}

func TestEngine_Evaluate(t *testing.T) {
	ctx := context.Background()
	e, err := drc.New(ctx)
	if err != nil {
		t.Fatal(err)
	}

	clean := fxsim.Facts{
		Module:  "stage",
		Signals: []fxsim.SignalFact{{Name: "x", Kind: "unsigned", Width: 8, Port: true}},
		Buffers: []fxsim.BufferFact{{Name: "x", Width: 8, Depth: 2}},
		LUTs:    []fxsim.LUTFact{{Name: "l", InputWidth: 10, OutputWidth: 18, Entries: 1024}},
	}
	r, err := e.Evaluate(ctx, drc.Input{Facts: clean, Limits: limits})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Violations) != 0 || r.Summary.Total != 0 || r.Failed() {
		t.Errorf("unexpected violations %+v", r)
	}

	bad := fxsim.Facts{
		Module: "process",
		Signals: []fxsim.SignalFact{
			{Name: "wide", Kind: "signed", Width: 40},
			{Name: "Signal", Kind: "unsigned", Width: 4},
		},
		Buffers: []fxsim.BufferFact{{Name: "x", Width: 8, Depth: 5}},
		LUTs:    []fxsim.LUTFact{{Name: "l", InputWidth: 12, OutputWidth: 20, Entries: 4096}},
	}
	r, err = e.Evaluate(ctx, drc.Input{Facts: bad, Limits: limits})
	if err != nil {
		t.Fatal(err)
	}
	exp := []struct{ rule, name string }{
		{"deep_buffer", "x"},
		{"large_lut", "l"},
		{"lut_output_too_wide", "l"},
		{"reserved_identifier", "Signal"},
		{"reserved_identifier", "process"},
		{"wide_signal", "wide"},
	}
	if len(r.Violations) != len(exp) {
		t.Fatalf("got %+v", r.Violations)
	}
	for i, x := range exp {
		if v := r.Violations[i]; v.Rule != x.rule || v.Name != x.name {
			t.Errorf("violation %d: got %s %s, expected %s %s", i, v.Rule, v.Name, x.rule, x.name)
		}
	}
	if r.Summary.Total != 6 || r.Summary.Errors != 4 || r.Summary.Warnings != 2 || !r.Failed() {
		t.Errorf("bad summary %+v", r.Summary)
	}
}

func TestEngine_Evaluate_context(t *testing.T) {
	ctx := context.Background()
	e, err := drc.New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	c := fxsim.NewContext("stage")
	hs, err := c.Seed([]fxsim.Value{{Name: "x", Value: 0.5, Width: 8, Min: 0, Max: 1}})
	if err != nil {
		t.Fatal(err)
	}
	x := c.Get(hs[0])
	c.AssignAt(c.Declare("y"), 6, x)
	f, err := c.Facts()
	if err != nil {
		t.Fatal(err)
	}
	r, err := e.Evaluate(ctx, drc.Input{Facts: f, Limits: limits})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Violations) != 1 || r.Violations[0].Rule != "deep_buffer" {
		t.Errorf("got %+v", r.Violations)
	}
}
