// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// StructValues returns the values described by the float64 fields of a
// struct (or pointer to struct) tagged with `fx`.
//
// The tag format is `fx:"name,bits=12,min=-1,max=1,clock=0"`. By default, the
// signal name is the field name in lowercase. bits, min and max are required.
//
//	type Sample struct {
//		Rho float64 `fx:",bits=12,min=0.3,max=2.5"`
//		Z   float64 `fx:"z0,bits=10,min=-1,max=1,clock=1"`
//	}
//
func StructValues(v interface{}) ([]Value, error) {
	e := reflect.Indirect(reflect.ValueOf(v))
	typ := e.Type()
	if k := typ.Kind(); k != reflect.Struct {
		return nil, errors.Errorf("unsupported type %q", k)
	}
	var vs []Value
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("fx")
		if !ok {
			continue
		}
		if f.Type.Kind() != reflect.Float64 {
			return nil, errors.Errorf("unsupported type %q for field %q in %q", f.Type.Kind(), f.Name, typ.Name())
		}
		val, err := parseTag(f.Name, tag)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q in %q", f.Name, typ.Name())
		}
		val.Value = e.Field(i).Float()
		vs = append(vs, val)
	}
	return vs, nil
}

func parseTag(field, tag string) (Value, error) {
	tv := strings.Split(tag, ",")
	v := Value{Name: strings.ToLower(field)}
	if tv[0] != "" {
		v.Name = tv[0]
	}
	seen := make(map[string]bool)
	for _, kv := range tv[1:] {
		p := strings.SplitN(kv, "=", 2)
		if len(p) != 2 {
			return v, errors.Errorf("malformed tag option %q", kv)
		}
		key, val := strings.TrimSpace(p[0]), strings.TrimSpace(p[1])
		var err error
		switch key {
		case "bits":
			v.Width, err = strconv.Atoi(val)
		case "clock":
			v.Clock, err = strconv.Atoi(val)
		case "min":
			v.Min, err = strconv.ParseFloat(val, 64)
		case "max":
			v.Max, err = strconv.ParseFloat(val, 64)
		default:
			return v, errors.Errorf("unknown tag option %q", key)
		}
		if err != nil {
			return v, errors.Wrapf(err, "tag option %q", key)
		}
		seen[key] = true
	}
	for _, k := range []string{"bits", "min", "max"} {
		if !seen[k] {
			return v, errors.Errorf("missing tag option %q", k)
		}
	}
	return v, nil
}

// ReadStruct sets the fx tagged fields of the struct pointed to by p to the
// current values of the corresponding signals.
//
func (c *Context) ReadStruct(p interface{}, quantized bool) error {
	pv := reflect.ValueOf(p)
	if pv.Kind() != reflect.Ptr || pv.Elem().Kind() != reflect.Struct {
		return errors.Errorf("ReadStruct needs a pointer to a struct, got %T", p)
	}
	e := pv.Elem()
	typ := e.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("fx")
		if !ok {
			continue
		}
		if f.Type.Kind() != reflect.Float64 {
			return errors.Errorf("unsupported type %q for field %q in %q", f.Type.Kind(), f.Name, typ.Name())
		}
		name := strings.ToLower(f.Name)
		if n := strings.Split(tag, ",")[0]; n != "" {
			name = n
		}
		vs, err := c.Values([]Pick{{Name: name, Quantized: quantized}})
		if err != nil {
			return err
		}
		e.Field(i).SetFloat(vs[0].Value)
	}
	return nil
}
