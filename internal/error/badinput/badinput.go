// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package badinput describes errors caused by malformed firmware images, RAM
// dumps or addresses supplied by the user.
package badinput

import (
	"errors"
	"fmt"
)

// Error is public.
func Error(s string) error {
	return errorType(s)
}

// Errorf formats public information.
func Errorf(format string, args ...interface{}) error {
	return errorType(fmt.Sprintf(format, args...))
}

type errorType string

func (s errorType) Error() string       { return string(s) }
func (s errorType) PublicError() string { return string(s) }
func (s errorType) InputError() bool    { return true }

type inputError interface {
	error
	InputError() bool
}

// Is an input error?
func Is(err error) bool {
	var e inputError
	return errors.As(err, &e) && e.InputError()
}
