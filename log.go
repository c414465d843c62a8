// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fxsim

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger sets the logger used to report errors and warnings at the point
// where they are detected. A nil logger restores the logrus standard logger.
//
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	logger = l
}

// report logs err and returns it unchanged.
func report(err error, name string) error {
	if err == nil {
		return nil
	}
	e := logger.WithField("kind", KindOf(err).String())
	var fe *Error
	if errors.As(err, &fe) {
		e = e.WithField("op", fe.Op)
	}
	if name != "" {
		e = e.WithField("signal", name)
	}
	e.Error(err.Error())
	return err
}

func warn(op, name, msg string) {
	e := logger.WithField("op", op)
	if name != "" {
		e = e.WithField("signal", name)
	}
	e.Warn(msg)
}
