// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies errors reported by the engine.
//
type ErrorKind int

// Error kinds.
//
const (
	// RangeError reports a value or range that does not fit its bit width.
	RangeError ErrorKind = iota + 1
	// UnitError reports operands whose scales cannot be reconciled by a
	// power of two shift.
	UnitError
	// TypeError reports a raw bit vector used in arithmetic, or a malformed
	// condition.
	TypeError
	// LUTError reports an invalid lookup table configuration.
	LUTError
	// ClockError reports a consumer scheduled before one of its operands.
	ClockError
	// ArgumentError reports invalid arguments to a build operation.
	ArgumentError
)

var kindNames = [...]string{
	RangeError:    "range error",
	UnitError:     "unit error",
	TypeError:     "type error",
	LUTError:      "lut error",
	ClockError:    "clock error",
	ArgumentError: "argument error",
}

func (k ErrorKind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown error"
}

// Error is the error type returned by the engine. Errors are usually wrapped
// with a stack trace; use KindOf or errors.As to inspect them.
//
type Error struct {
	Kind ErrorKind
	Op   string // operation that detected the error
	Msg  string
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Kind.String() + ": " + e.Msg
}

func newError(kind ErrorKind, op string, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)})
}

// KindOf returns the kind of the first *Error found in err's chain, or 0 if
// there is none.
//
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is an engine error of the given kind.
//
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
