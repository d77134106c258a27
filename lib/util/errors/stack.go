// Copyright 2025 PingCAP, Inc.
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
)

const defaultStackDepth = 48

var (
	_ error         = &Error{}
	_ fmt.Formatter = &Error{}
)

// Error records the stack where WithStack was called. %+v prints the trace.
type Error struct {
	err   error
	trace []uintptr
}

func WithStack(err error) error {
	if err == nil {
		return nil
	}
	e := &Error{err: err, trace: make([]uintptr, defaultStackDepth)}
	n := runtime.Callers(2, e.trace)
	e.trace = e.trace[:n]
	return e
}

func (e *Error) Format(st fmt.State, verb rune) {
	switch verb {
	case 'v':
		fmt.Fprintf(st, "%v", e.err)
		if st.Flag('+') {
			e.writeTrace(st)
		}
	default:
		fmt.Fprintf(st, "%s", e.err)
	}
}

func (e *Error) writeTrace(w io.Writer) {
	frames := runtime.CallersFrames(e.trace)
	for {
		fr, more := frames.Next()
		fn := fr.Function
		if fn == "" {
			fn = "unknown"
		}
		io.WriteString(w, "\n"+fn+"\n\t"+fr.File+":"+strconv.Itoa(fr.Line))
		if !more {
			return
		}
	}
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *Error) As(target any) bool {
	return errors.As(e.err, target)
}

// Unwrap skips the stack layer.
func (e *Error) Unwrap() error {
	return errors.Unwrap(e.err)
}
