// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package drc runs design-rule checks on generated modules.
//
package drc

import (
	"context"
	_ "embed" // rules
	"encoding/json"
	"sort"

	"github.com/db47h/fxsim"
	"github.com/open-policy-agent/opa/rego"
	"github.com/pkg/errors"
)

//go:embed rules.rego
var rules string

// Limits are the thresholds checked by the rules.
//
type Limits struct {
	MaxWidth       int `json:"maxWidth"`
	MaxBufferDepth int `json:"maxBufferDepth"`
	MaxLUTEntries  int `json:"maxLUTEntries"`
	MaxLUTWidth    int `json:"maxLUTWidth"`
}

// Input is the document evaluated by the rules.
//
type Input struct {
	Facts  fxsim.Facts `json:"facts"`
	Limits Limits      `json:"limits"`
}

// A Violation is a broken design rule.
//
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Name     string `json:"name"`
	Message  string `json:"message"`
}

// Summary counts violations by severity.
//
type Summary struct {
	Total    int `json:"total"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Result holds the outcome of a check.
//
type Result struct {
	Violations []Violation
	Summary    Summary
}

// Engine evaluates the embedded rules.
//
type Engine struct {
	violations rego.PreparedEvalQuery
	summary    rego.PreparedEvalQuery
}

// New prepares the rule queries.
//
func New(ctx context.Context) (*Engine, error) {
	prepare := func(q string) (rego.PreparedEvalQuery, error) {
		pq, err := rego.New(rego.Module("rules.rego", rules), rego.Query(q)).PrepareForEval(ctx)
		return pq, errors.Wrapf(err, "prepare %s", q)
	}
	var (
		e   Engine
		err error
	)
	if e.violations, err = prepare("data.fxsim.drc.all_violations"); err != nil {
		return nil, err
	}
	if e.summary, err = prepare("data.fxsim.drc.summary"); err != nil {
		return nil, err
	}
	return &e, nil
}

// Evaluate checks in against the rules. Violations are sorted by rule and
// name.
//
func (e *Engine) Evaluate(ctx context.Context, in Input) (*Result, error) {
	doc, err := toMap(in)
	if err != nil {
		return nil, errors.Wrap(err, "convert input")
	}
	r := &Result{}
	rs, err := e.violations.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return nil, errors.Wrap(err, "evaluate violations")
	}
	if err = decode(rs, &r.Violations); err != nil {
		return nil, err
	}
	sort.Slice(r.Violations, func(i, j int) bool {
		a, b := r.Violations[i], r.Violations[j]
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Name < b.Name
	})
	rs, err = e.summary.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return nil, errors.Wrap(err, "evaluate summary")
	}
	if err = decode(rs, &r.Summary); err != nil {
		return nil, err
	}
	return r, nil
}

// Failed reports whether the result holds at least one error.
//
func (r *Result) Failed() bool { return r.Summary.Errors > 0 }

func toMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	err = json.Unmarshal(data, &m)
	return m, err
}

// decode converts the value of the first expression of rs into v.
func decode(rs rego.ResultSet, v interface{}) error {
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil
	}
	data, err := json.Marshal(rs[0].Expressions[0].Value)
	if err != nil {
		return errors.Wrap(err, "decode result")
	}
	return errors.Wrap(json.Unmarshal(data, v), "decode result")
}
