// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package validator checks configuration and design files against embedded
// CUE schemas.
//
package validator

import (
	_ "embed" // schema

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pkg/errors"
)

//go:embed schema.cue
var schema []byte

// Schema definitions.
//
const (
	Config = "#Config"
	Design = "#Design"
)

// A Validator validates JSON documents against a schema definition.
//
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
//
func New() (*Validator, error) {
	ctx := cuecontext.New()
	s := ctx.CompileBytes(schema)
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "compile schema")
	}
	return &Validator{ctx: ctx, schema: s}, nil
}

// ValidateJSON checks data against the named definition.
//
func (v *Validator) ValidateJSON(def string, data []byte) error {
	d := v.ctx.CompileBytes(data)
	if err := d.Err(); err != nil {
		return errors.Wrap(err, "compile JSON")
	}
	s := v.schema.LookupPath(cue.ParsePath(def))
	if err := s.Err(); err != nil {
		return errors.Wrapf(err, "lookup %s", def)
	}
	if err := s.Unify(d).Validate(cue.Concrete(true)); err != nil {
		return errors.Wrapf(err, "%s validation failed", def)
	}
	return nil
}

// Errors returns one message per validation error, or nil if data is valid.
//
func (v *Validator) Errors(def string, data []byte) []string {
	err := v.ValidateJSON(def, data)
	if err == nil {
		return nil
	}
	var msgs []string
	for _, e := range cueerrors.Errors(errors.Cause(err)) {
		msgs = append(msgs, e.Error())
	}
	if len(msgs) == 0 {
		msgs = append(msgs, err.Error())
	}
	return msgs
}
